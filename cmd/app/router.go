package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)
	router.ServeFiles("/media/*filepath", http.Dir(app.blobs.Root()))

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthenticatedUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodPost, "/v1/users/refresh-token", app.refreshTokenHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/forgot-password", app.forgotPasswordHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/reset/:token", app.resetPasswordHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/change-password", app.requireAuthenticatedUser(app.changePasswordHandler))
	router.HandlerFunc(http.MethodPost, "/v1/users/verify", app.requireAuthenticatedUser(app.requestVerificationHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/users/verify/:username/:token", app.verifyAccountHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/users/:id", app.requireAuthenticatedUser(app.deleteUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/profiles/:username", app.userProfileHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/account", app.requireAuthenticatedUser(app.updateProfileHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/account/close", app.requireAuthenticatedUser(app.closeAccountHandler))
	router.HandlerFunc(http.MethodGet, "/v1/account/chartdata", app.requireAuthenticatedUser(app.chartDataHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/users", app.requireAuthenticatedUser(app.allUsersHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/admin/users/:id/block", app.requireAuthenticatedUser(app.setBlockedHandler(true)))
	router.HandlerFunc(http.MethodPatch, "/v1/admin/users/:id/unblock", app.requireAuthenticatedUser(app.setBlockedHandler(false)))

	// blog service
	router.HandlerFunc(http.MethodGet, "/v1/feed", app.homeFeedHandler)
	router.HandlerFunc(http.MethodGet, "/v1/search", app.searchPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.allPostsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.requireAuthenticatedUser(app.createPostHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/:url", app.getPostHandler)
	router.HandlerFunc(http.MethodPut, "/v1/posts/:id", app.requireAuthenticatedUser(app.updatePostHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:id", app.requireAuthenticatedUser(app.deletePostHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/posts/:id/publish", app.requireAuthenticatedUser(app.setPublishedHandler(true)))
	router.HandlerFunc(http.MethodPatch, "/v1/posts/:id/unpublish", app.requireAuthenticatedUser(app.setPublishedHandler(false)))

	// likes, comments and follows
	router.HandlerFunc(http.MethodPost, "/v1/posts/:id/like", app.requireAuthenticatedUser(app.likeHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:id/like", app.requireAuthenticatedUser(app.unlikeHandler))
	router.HandlerFunc(http.MethodGet, "/v1/likes/:id", app.likeCountHandler)
	router.HandlerFunc(http.MethodPost, "/v1/comments", app.requireAuthenticatedUser(app.createCommentHandler))
	router.HandlerFunc(http.MethodGet, "/v1/comments/:id", app.listCommentsHandler)
	router.HandlerFunc(http.MethodPut, "/v1/comments/:id", app.requireAuthenticatedUser(app.editCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.requireAuthenticatedUser(app.deleteCommentHandler))
	router.HandlerFunc(http.MethodPost, "/v1/follows", app.requireAuthenticatedUser(app.followHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/follows/:id", app.requireAuthenticatedUser(app.unfollowHandler))
	router.HandlerFunc(http.MethodGet, "/v1/isfollowing/:id", app.requireAuthenticatedUser(app.isFollowingHandler))
	router.HandlerFunc(http.MethodGet, "/v1/followers", app.requireAuthenticatedUser(app.followersHandler))
	router.HandlerFunc(http.MethodGet, "/v1/following", app.requireAuthenticatedUser(app.followingHandler))

	// resource service
	router.HandlerFunc(http.MethodPost, "/v1/resources", app.requireAuthenticatedUser(app.uploadResourceHandler))
	router.HandlerFunc(http.MethodGet, "/v1/resources", app.requireAuthenticatedUser(app.listResourcesHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/resources/:id", app.requireAuthenticatedUser(app.deleteResourceHandler))
	router.HandlerFunc(http.MethodPost, "/v1/posts/:id/resources", app.requireAuthenticatedUser(app.attachResourcesHandler))

	// contact service
	router.HandlerFunc(http.MethodPost, "/v1/contact", app.submitContactHandler)
	router.HandlerFunc(http.MethodGet, "/v1/contact", app.requireAuthenticatedUser(app.listContactsHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/contact/:id", app.requireAuthenticatedUser(app.deleteContactHandler))

	return app.recoverPanic(app.logRequest(app.enableCORS(app.rateLimit(app.authenticate(router)))))
}
