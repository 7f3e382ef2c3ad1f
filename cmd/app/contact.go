package main

import (
	"fmt"
	"net/http"
)

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (app *application) submitContactHandler(w http.ResponseWriter, r *http.Request) {
	var input contactRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	_, err = app.contactService.Submit(r.Context(), input.Name, input.Email, input.Subject, input.Message)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Form submitted successfully!", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listContactsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := app.contactService.List(r.Context(), app.contextGetActor(r), app.readSkip(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Contacts fetched successfully", page), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteContactHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.contactService.Delete(r.Context(), app.contextGetActor(r), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success(fmt.Sprintf("Deleted contact %s", id), nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
