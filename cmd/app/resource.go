package main

import (
	"net/http"

	"github.com/google/uuid"
)

func (app *application) uploadResourceHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.parseForm(w, r); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	file, err := app.readFile(r, "resource")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	defer closeFile(file)

	resource, err := app.resourceService.Upload(r.Context(), app.contextGetActor(r), file)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, success("File Uploaded successfully", resource), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type attachResourcesRequest struct {
	Resources string `json:"resources"`
}

func (app *application) attachResourcesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input attachResourcesRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.resourceService.Attach(r.Context(), app.contextGetActor(r), id, input.Resources)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Resources added to blog posts successfully.", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteResourceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.resourceService.Delete(r.Context(), app.contextGetActor(r), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("File deleted successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listResourcesHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(r.URL.Query().Get("blog"))
	if err != nil {
		app.writeErrorResponse(w, r, http.StatusBadRequest, "invalid blog parameter", nil)
		return
	}

	page, err := app.resourceService.List(r.Context(), app.contextGetActor(r), postID, app.readSkip(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Resources fetched successfully", page), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
