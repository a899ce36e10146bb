// cmd/api/handlers_bookshelf.go
package main

import (
	"errors"
	"net/http"

	"github.com/aoideee/readshelf/internal/data"
)

// listBookshelfHandler handles GET /api/bookshelf?ids=1,2,3.
// A bookshelf is the client's stored list of liked-book IDs; this endpoint
// resolves those IDs back into book records. Entries that are not valid IDs
// are skipped rather than rejected, so ids=1,2,x returns the books for 1
// and 2. A request with no ids parameter at all is a 400; a list with no
// usable IDs yields an empty result, not an error.
func (app *applicationDependencies) listBookshelfHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	if app.readString(qs, "ids", "") == "" {
		app.badRequestResponse(w, r, errors.New("no book ids provided"))
		return
	}

	ids := app.readIDList(qs, "ids")

	books := []*data.Book{}
	if len(ids) > 0 {
		var err error
		books, err = app.models.Books.GetByIDs(ids)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
	}

	for _, book := range books {
		app.normalizeCoverImage(r, book)
	}

	err := app.writeJSON(w, http.StatusOK, envelope{"books": books}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
