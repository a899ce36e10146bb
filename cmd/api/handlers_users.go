// cmd/api/handlers_users.go
// This file contains all HTTP request handlers for user accounts:
// registration, login, profile reads/updates, and the admin listing.
package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/aoideee/readshelf/internal/auth"
	"github.com/aoideee/readshelf/internal/data"
	"github.com/aoideee/readshelf/internal/validator"
)

// tokenTTL is how long an access token stays valid after login/registration.
const tokenTTL = 24 * time.Hour

// validateEmail and validatePassword keep the credential rules in one place.
func validateEmail(v *validator.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(validator.Matches(email, validator.EmailRX), "email", "must be a valid email address")
}

func validatePassword(v *validator.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) >= 8, "password", "must be at least 8 bytes long")
	// bcrypt silently ignores input past 72 bytes, so refuse it instead.
	v.Check(len(password) <= 72, "password", "must not be more than 72 bytes long")
}

// registerUserHandler handles POST /api/users/register.
// It creates an account with a bcrypt-hashed password and responds with the
// new user plus a signed access token, so the client is logged in
// immediately. There is no other way to obtain an account: the old demo
// admin backdoor token does not exist here, admins are seeded accounts that
// log in like everyone else.
func (app *applicationDependencies) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(input.Name != "", "name", "must be provided")
	v.Check(len(input.Name) <= 500, "name", "must not be more than 500 bytes long")
	validateEmail(v, input.Email)
	validatePassword(v, input.Password)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	user := &data.User{
		Name:           input.Name,
		Email:          input.Email,
		PasswordHash:   hash,
		FavoriteGenres: []string{},
	}

	err = app.models.Users.Insert(user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateEmail):
			v.AddError("email", "a user with this email address already exists")
			app.failedValidationResponse(w, r, v.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	token, err := auth.MakeJWT(user.ID, app.config.jwt.secret, tokenTTL)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"user": user, "token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// loginUserHandler handles POST /api/users/login.
// It verifies the email/password pair and responds with the account and a
// signed access token. Unknown email and wrong password produce the same
// 401 response.
func (app *applicationDependencies) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	validateEmail(v, input.Email)
	v.Check(input.Password != "", "password", "must be provided")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user, err := app.models.Users.GetByEmail(input.Email)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.invalidCredentialsResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = auth.CheckPasswordHash(user.PasswordHash, input.Password)
	if err != nil {
		app.invalidCredentialsResponse(w, r)
		return
	}

	token, err := auth.MakeJWT(user.ID, app.config.jwt.secret, tokenTTL)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user, "token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showUserHandler handles GET /api/users/:id.
// Public profile view: name, bio, favorite genres, and the liked-book and
// liked-review ID sets. The password hash never serializes.
func (app *applicationDependencies) showUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.models.Users.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateUserHandler handles PUT /api/users/:id (authenticated).
// Users may update their own profile; admins may update anyone's. All fields
// are optional pointers so a partial body only changes what it names.
// Supplying a password re-hashes and replaces the stored credential.
func (app *applicationDependencies) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	caller := app.contextGetUser(r)
	if caller.ID != id && !caller.IsAdmin {
		app.notPermittedResponse(w, r)
		return
	}

	user, err := app.models.Users.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	var input struct {
		Name           *string   `json:"name"`
		Email          *string   `json:"email"`
		Bio            *string   `json:"bio"`
		FavoriteGenres *[]string `json:"favoriteGenres"`
		Password       *string   `json:"password"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.FavoriteGenres != nil {
		user.FavoriteGenres = *input.FavoriteGenres
	}

	v := validator.New()
	v.Check(user.Name != "", "name", "must be provided")
	v.Check(len(user.Name) <= 500, "name", "must not be more than 500 bytes long")
	validateEmail(v, user.Email)
	v.Check(validator.Unique(user.FavoriteGenres), "favoriteGenres", "must not contain duplicate values")

	if input.Password != nil {
		validatePassword(v, *input.Password)
	}
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		user.PasswordHash = hash
	}

	err = app.models.Users.Update(user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateEmail):
			v.AddError("email", "a user with this email address already exists")
			app.failedValidationResponse(w, r, v.Errors)
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listUsersHandler handles GET /api/users (admin only).
// Returns every account for the admin dashboard.
func (app *applicationDependencies) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := app.models.Users.GetAll()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"users": users}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
