// cmd/api/handlers_reviews.go
// This file contains all HTTP request handlers for the reviews resource.
package main

import (
	"errors"
	"net/http"

	"github.com/aoideee/readshelf/internal/data"
	"github.com/aoideee/readshelf/internal/validator"
)

// listReviewsHandler handles GET /api/reviews?bookId=N.
// It returns every review for the given book, newest first, with the
// reviewer's name and like set populated. A missing or invalid bookId is a
// 400 rather than an empty result, matching the original API.
func (app *applicationDependencies) listReviewsHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	bookID := int64(app.readInt(qs, "bookId", 0))
	if bookID < 1 {
		app.badRequestResponse(w, r, errors.New("book id is required"))
		return
	}

	reviews, err := app.models.Reviews.GetForBook(bookID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reviews": reviews}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// createReviewHandler handles POST /api/reviews (authenticated).
// The review is attributed to the authenticated user; a user gets one review
// per book, enforced by the store. On success the reviewed book's rating and
// numReviews have already been recomputed in the same transaction as the
// insert, so a subsequent read of the book always reflects this review.
func (app *applicationDependencies) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
		BookID  int64  `json:"bookId"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	review := &data.Review{
		BookID:  input.BookID,
		UserID:  user.ID,
		Rating:  input.Rating,
		Comment: input.Comment,
	}

	v := validator.New()
	v.Check(review.BookID > 0, "bookId", "must be provided")
	v.Check(review.Rating >= 1 && review.Rating <= 5, "rating", "must be between 1 and 5")
	v.Check(review.Comment != "", "comment", "must be provided")
	v.Check(len(review.Comment) <= 1000, "comment", "must not be more than 1000 bytes long")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Reviews.Insert(review)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateReview):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	// Populate the reviewer's name so the client can render the new review
	// without another round trip.
	review.UserName = user.Name

	err = app.writeJSON(w, http.StatusCreated, envelope{"review": review}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listAllReviewsHandler handles GET /api/reviews/all (admin only).
// It returns every review in the system with the reviewer's name and the
// reviewed book's title populated, for the admin dashboard.
func (app *applicationDependencies) listAllReviewsHandler(w http.ResponseWriter, r *http.Request) {
	reviews, err := app.models.Reviews.GetAll()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reviews": reviews}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// toggleReviewLikeHandler handles PUT /api/reviews/:id/like (authenticated).
// Works exactly like the book version: the caller's membership in the
// review's like set is flipped and the derived count is returned.
func (app *applicationDependencies) toggleReviewLikeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	liked, likes, err := app.models.Reviews.ToggleLike(id, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"liked": liked, "likes": likes}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
