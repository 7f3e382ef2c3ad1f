package main

import (
	"net/http"

	"github.com/sushihentaime/inkwell/internal/blogservice"
)

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.parseForm(w, r); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	cover, err := app.readFile(r, "postImage")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	defer closeFile(cover)

	actor := app.contextGetActor(r)
	input := blogservice.CreateInput{
		AuthorID:        actor.ID,
		Title:           r.FormValue("title"),
		URL:             r.FormValue("url"),
		Content:         r.FormValue("content"),
		Tags:            r.FormValue("tags"),
		SEOKeywords:     r.FormValue("seoKeywords"),
		MetaDescription: r.FormValue("metaDescription"),
		Cover:           cover,
	}

	post, err := app.blogService.Create(r.Context(), actor, input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, success("Blog Post Created successfully", post), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if err := app.parseForm(w, r); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	cover, err := app.readFile(r, "postImage")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	defer closeFile(cover)

	input := blogservice.UpdateInput{
		Title:           formValue(r, "title"),
		Content:         formValue(r, "content"),
		Tags:            formValue(r, "tags"),
		SEOKeywords:     formValue(r, "seoKeywords"),
		MetaDescription: formValue(r, "metaDescription"),
		Cover:           cover,
	}

	post, err := app.blogService.Update(r.Context(), app.contextGetActor(r), id, input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Blog post updated successfully", post), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) setPublishedHandler(published bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := app.readIDParam(r, "id")
		if err != nil {
			app.badRequestErrorResponse(w, r, err)
			return
		}

		actor := app.contextGetActor(r)
		message := "Blog published successfully"
		if published {
			err = app.blogService.Publish(r.Context(), actor, id)
		} else {
			err = app.blogService.Unpublish(r.Context(), actor, id)
			message = "Blog unpublished successfully"
		}
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}

		err = app.writeJSON(w, http.StatusOK, success(message, nil), nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
		}
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.blogService.Delete(r.Context(), app.contextGetActor(r), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Post deleted successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getPostHandler(w http.ResponseWriter, r *http.Request) {
	page, err := app.blogService.GetByURL(r.Context(), app.contextGetActor(r), app.readParam(r, "url"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Post fetched successfully", page), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) homeFeedHandler(w http.ResponseWriter, r *http.Request) {
	feed, err := app.blogService.HomeFeed(r.Context())
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Posts fetched successfully", feed), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) allPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := app.blogService.AllPosts(r.Context(), app.readSkip(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("All posts fetched successfully", posts), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) searchPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := app.blogService.TagSearch(r.Context(), r.URL.Query().Get("tag"), app.readSkip(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Searched posts fetched successfully", posts), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
