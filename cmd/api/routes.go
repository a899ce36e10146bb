// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the configured router wrapped
// in the recoverPanic, enableCORS, and rateLimit middlewares.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → enableCORS → rateLimit → router
//
// Protected handlers are wrapped individually with requireAuth (valid bearer
// token) or requireAdmin (valid bearer token + admin account).
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	// Books. GET /api/books/featured is dispatched inside showBookHandler
	// because httprouter cannot register a static segment alongside the :id
	// wildcard for the same method.
	router.HandlerFunc(http.MethodGet, "/api/books", app.listBooksHandler)
	router.HandlerFunc(http.MethodGet, "/api/books/:id", app.showBookHandler)
	router.HandlerFunc(http.MethodPost, "/api/books", app.requireAdmin(app.createBookHandler))
	router.HandlerFunc(http.MethodPut, "/api/books/:id", app.requireAdmin(app.updateBookHandler))
	router.HandlerFunc(http.MethodDelete, "/api/books/:id", app.requireAdmin(app.deleteBookHandler))
	router.HandlerFunc(http.MethodPut, "/api/books/:id/like", app.requireAuth(app.toggleBookLikeHandler))

	// Reviews
	router.HandlerFunc(http.MethodGet, "/api/reviews", app.listReviewsHandler)
	router.HandlerFunc(http.MethodGet, "/api/reviews/all", app.requireAdmin(app.listAllReviewsHandler))
	router.HandlerFunc(http.MethodPost, "/api/reviews", app.requireAuth(app.createReviewHandler))
	router.HandlerFunc(http.MethodPut, "/api/reviews/:id/like", app.requireAuth(app.toggleReviewLikeHandler))

	// Bookshelf
	router.HandlerFunc(http.MethodGet, "/api/bookshelf", app.listBookshelfHandler)

	// Users
	router.HandlerFunc(http.MethodPost, "/api/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/api/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodGet, "/api/users", app.requireAdmin(app.listUsersHandler))
	router.HandlerFunc(http.MethodGet, "/api/users/:id", app.showUserHandler)
	router.HandlerFunc(http.MethodPut, "/api/users/:id", app.requireAuth(app.updateUserHandler))

	// Wrap with middleware: recoverPanic is outermost so it catches panics
	// from the other middlewares and the router alike.
	return app.recoverPanic(app.enableCORS(app.rateLimit(router)))
}
