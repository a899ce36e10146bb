// cmd/api/handlers_books.go
// This file contains all HTTP request handlers for the books resource.
// Each handler is a method on *applicationDependencies so it has access
// to the logger and database models.
package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aoideee/readshelf/internal/data"
	"github.com/aoideee/readshelf/internal/validator"

	"github.com/julienschmidt/httprouter"
)

// placeholderCoverURL is served when a book has no cover image of its own.
const placeholderCoverURL = "https://via.placeholder.com/400x600?text=Book+Cover+Not+Available"

// normalizeCoverImage rewrites a book's cover image for client consumption:
// an empty value becomes the placeholder, and a relative path is made
// absolute against the host the request arrived on.
func (app *applicationDependencies) normalizeCoverImage(r *http.Request, book *data.Book) {
	switch {
	case book.CoverImage == "":
		book.CoverImage = placeholderCoverURL
	case !strings.HasPrefix(book.CoverImage, "http"):
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		book.CoverImage = scheme + "://" + r.Host + "/" + strings.TrimPrefix(book.CoverImage, "/")
	}
}

// validateBook runs the field checks shared by create and update.
func validateBook(v *validator.Validator, book *data.Book) {
	v.Check(book.Title != "", "title", "must be provided")
	v.Check(len(book.Title) <= 500, "title", "must not be more than 500 bytes long")
	v.Check(book.Author != "", "author", "must be provided")
	v.Check(book.Genre != "", "genre", "must be provided")
	v.Check(book.Description != "", "description", "must be provided")
	v.Check(book.PublishedYear != 0, "publishedYear", "must be provided")
	v.Check(book.PublishedYear <= time.Now().Year(), "publishedYear", "must not be in the future")
}

// listBooksHandler handles GET /api/books.
// Supported query parameters: keyword (case-insensitive substring of the
// title), genre (exact match), limit, and pageNumber. A limit of zero or
// less (or no limit at all) returns every matching book on a single page;
// otherwise the response is offset-paginated. The response shape is
// {"books": [...], "page": N, "pages": N}.
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	keyword := app.readString(qs, "keyword", "")
	genre := app.readString(qs, "genre", "")

	filters := data.Filters{
		Page:  app.readInt(qs, "pageNumber", 1),
		Limit: app.readInt(qs, "limit", 0),
	}
	if filters.Page < 1 {
		filters.Page = 1
	}

	books, metadata, err := app.models.Books.GetAll(keyword, genre, filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	for _, book := range books {
		app.normalizeCoverImage(r, book)
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"books": books,
		"page":  metadata.Page,
		"pages": metadata.Pages,
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /api/books/:id (and GET /api/books/featured,
// which shares the wildcard position in the route table).
// It fetches the requested book, normalizes its cover image URL, and returns
// it. Responds 404 if no book with that ID exists.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	// httprouter cannot register /api/books/featured alongside the
	// /api/books/:id wildcard, so the featured listing is dispatched here.
	if httprouter.ParamsFromContext(r.Context()).ByName("id") == "featured" {
		app.listFeaturedBooksHandler(w, r)
		return
	}

	// readIDParam extracts and validates the :id URL parameter.
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book, err := app.models.Books.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.normalizeCoverImage(r, book)

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listFeaturedBooksHandler serves GET /api/books/featured: every book
// flagged for homepage promotion, regardless of rating.
func (app *applicationDependencies) listFeaturedBooksHandler(w http.ResponseWriter, r *http.Request) {
	books, err := app.models.Books.GetFeatured()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	for _, book := range books {
		app.normalizeCoverImage(r, book)
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"books": books}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// createBookHandler handles POST /api/books (admin only).
// It reads a JSON body containing the new book's details, inserts a record
// into the database, and responds with the created book (including its
// database-assigned ID and timestamps) and a 201 Created status.
// The rating and numReviews fields always start at zero: they are derived
// from reviews and cannot be set by any client.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var input data.CreateBookInput

	// Decode the incoming JSON body into our input struct using the safe readJSON helper.
	// readJSON enforces a 1MB limit, rejects unknown fields, and ensures a single value.
	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book := &data.Book{
		Title:         input.Title,
		Author:        input.Author,
		Genre:         input.Genre,
		Description:   input.Description,
		PublishedYear: input.PublishedYear,
		CoverImage:    input.CoverImage,
		Featured:      input.Featured,
	}

	v := validator.New()
	if validateBook(v, book); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Books.Insert(book)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateBookHandler handles PUT /api/books/:id (admin only).
// It reads a partial JSON body (UpdateBookInput), finds the existing book,
// applies only the non-nil fields from the input, and saves the changes.
// Responds 404 if the book does not exist. The derived rating fields are
// untouched by this handler no matter what the client sends.
func (app *applicationDependencies) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book, err := app.models.Books.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	var input data.UpdateBookInput
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// Apply only the fields that were actually provided in the request body.
	// Each field is a pointer; nil means "not provided, leave as-is".
	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.Genre != nil {
		book.Genre = *input.Genre
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.PublishedYear != nil {
		book.PublishedYear = *input.PublishedYear
	}
	if input.CoverImage != nil {
		book.CoverImage = *input.CoverImage
	}
	if input.Featured != nil {
		book.Featured = *input.Featured
	}

	v := validator.New()
	if validateBook(v, book); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Books.Update(book)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteBookHandler handles DELETE /api/books/:id (admin only).
// Deleting a book also removes its reviews and likes via the database's
// cascade constraints, so no orphaned reviews survive.
func (app *applicationDependencies) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.models.Books.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "book removed"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// toggleBookLikeHandler handles PUT /api/books/:id/like (authenticated).
// The caller's membership in the book's like set is flipped: liking an
// already-liked book removes the like. The response reports the caller's
// resulting liked state and the book's like count, both read back from the
// server-side set so the client never has to guess.
func (app *applicationDependencies) toggleBookLikeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	liked, likes, err := app.models.Books.ToggleLike(id, user.ID)
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
