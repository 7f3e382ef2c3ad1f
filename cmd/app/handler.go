package main

import (
	"fmt"
	"net/http"

	"github.com/sushihentaime/inkwell/internal/userservice"
)

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.parseForm(w, r); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	avatar, err := app.readFile(r, "avatar")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	defer closeFile(avatar)

	input := userservice.RegisterInput{
		Username:  r.FormValue("username"),
		Email:     r.FormValue("email"),
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		Password:  r.FormValue("password"),
		Avatar:    avatar,
	}

	session, err := app.userService.Register(r.Context(), input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, success("User created Successfully", session), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type loginUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input loginUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	session, err := app.userService.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	message := "User logged in successfully"
	if session.Info != "" {
		message = session.Info
	}

	err = app.writeJSON(w, http.StatusOK, success(message, session), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	err := app.userService.Logout(r.Context(), app.contextGetActor(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("User logged Out successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input refreshTokenRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	session, err := app.userService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Token fetched successfully", session), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type forgotPasswordRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (app *application) forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input forgotPasswordRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	login := input.Email
	if login == "" {
		login = input.Username
	}

	err = app.userService.ForgotPassword(r.Context(), login)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Password Reset link has been sent to Your registered email successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input resetPasswordRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.ResetPassword(r.Context(), app.readParam(r, "token"), input.Password)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Password changed successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (app *application) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input changePasswordRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.ChangePassword(r.Context(), app.contextGetActor(r), input.OldPassword, input.NewPassword)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Password changed successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) requestVerificationHandler(w http.ResponseWriter, r *http.Request) {
	err := app.userService.RequestVerification(r.Context(), app.contextGetActor(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	message := "Verification token has been sent to your registered Email address, Click on it to verify."
	err = app.writeJSON(w, http.StatusOK, success(message, nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) verifyAccountHandler(w http.ResponseWriter, r *http.Request) {
	err := app.userService.VerifyAccount(r.Context(), app.readParam(r, "username"), app.readParam(r, "token"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Account Verified Successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) userProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := app.userService.Profile(r.Context(), app.contextGetActor(r), app.readParam(r, "username"), app.readSkip(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Profile fetched successfully", profile), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.parseForm(w, r); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	avatar, err := app.readFile(r, "avatar")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	defer closeFile(avatar)

	input := userservice.ProfileInput{
		FirstName: formValue(r, "firstName"),
		LastName:  formValue(r, "lastName"),
		Bio:       formValue(r, "bio"),
		Email:     formValue(r, "email"),
		Avatar:    avatar,
	}

	user, err := app.userService.UpdateProfile(r.Context(), app.contextGetActor(r), input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Profile updated successfully", user), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) closeAccountHandler(w http.ResponseWriter, r *http.Request) {
	err := app.userService.Close(r.Context(), app.contextGetActor(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Account closed successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type blockUserRequest struct {
	Username string `json:"username"`
}

func (app *application) setBlockedHandler(blocked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := app.readIDParam(r, "id")
		if err != nil {
			app.badRequestErrorResponse(w, r, err)
			return
		}

		var input blockUserRequest
		err = app.parseJSON(w, r, &input)
		if err != nil {
			app.badRequestErrorResponse(w, r, err)
			return
		}

		actor := app.contextGetActor(r)
		if blocked {
			err = app.userService.Block(r.Context(), actor, id, input.Username)
		} else {
			err = app.userService.Unblock(r.Context(), actor, id, input.Username)
		}
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}

		state := "unblocked"
		if blocked {
			state = "blocked"
		}

		message := fmt.Sprintf("Account with username %s has been %s.", input.Username, state)
		err = app.writeJSON(w, http.StatusOK, success(message, nil), nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
		}
	}
}

func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.Delete(r.Context(), app.contextGetActor(r), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("User deleted successfully", nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) allUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := app.userService.AllUsers(r.Context(), app.contextGetActor(r), app.readSkip(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Users fetched successfully", users), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) chartDataHandler(w http.ResponseWriter, r *http.Request) {
	data, err := app.ledger.ChartData(r.Context(), app.contextGetActor(r))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, success("Chart Data fetched successfully", data), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
