package main

import (
	"net/http"

	"github.com/google/uuid"
)

type followRequest struct {
	AuthorID uuid.UUID  `json:"authorId"`
	BlogID   *uuid.UUID `json:"blogId"`
}

func (app *application) followHandler(w http.ResponseWriter, r *http.Request) {
	var input followRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	follow, err := app.ledger.Follow(r.Context(), app.contextGetActor(r), input.AuthorID, input.BlogID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Followed successfully", follow), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) unfollowHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.ledger.Unfollow(r.Context(), app.contextGetActor(r), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Unfollowed Successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) isFollowingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	status, err := app.ledger.IsFollowing(r.Context(), app.contextGetActor(r), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Following", status), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) followersHandler(w http.ResponseWriter, r *http.Request) {
	page, err := app.ledger.Followers(r.Context(), app.contextGetActor(r), app.readSkip(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Followers fetched successfully", page), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) followingHandler(w http.ResponseWriter, r *http.Request) {
	page, err := app.ledger.Following(r.Context(), app.contextGetActor(r), app.readSkip(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Authors you are following", page), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) likeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	status, err := app.ledger.Like(r.Context(), app.contextGetActor(r), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Liked the post", status), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) unlikeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	status, err := app.ledger.Unlike(r.Context(), app.contextGetActor(r), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Unliked the post", status), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) likeCountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	status, err := app.ledger.LikeCount(r.Context(), app.contextGetActor(r), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Likes Count fetched successfully.", status), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type createCommentRequest struct {
	BlogID  uuid.UUID `json:"blogId"`
	Comment string    `json:"comment"`
}

func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	var input createCommentRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.ledger.CreateComment(r.Context(), app.contextGetActor(r), input.BlogID, input.Comment)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, success("Commented Successfully", comment), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type editCommentRequest struct {
	Comment string `json:"comment"`
}

func (app *application) editCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input editCommentRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.ledger.EditComment(r.Context(), app.contextGetActor(r), id, input.Comment)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Comment Updated", comment), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.ledger.DeleteComment(r.Context(), app.contextGetActor(r), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Comment deleted successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	page, err := app.ledger.Comments(r.Context(), app.contextGetActor(r), id, app.readSkip(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Comments fetched successfully", page), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
