// cmd/api/context.go
package main

import (
	"context"
	"net/http"

	"github.com/aoideee/readshelf/internal/data"
)

// contextKey is a private type for request-context keys so values stored by
// this package can never collide with keys from other packages.
type contextKey string

// userContextKey is the key under which the authenticated user travels in the
// request context between the auth middleware and the handlers.
const userContextKey = contextKey("user")

// contextSetUser returns a copy of the request whose context carries user.
func (app *applicationDependencies) contextSetUser(r *http.Request, user *data.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

// contextGetUser retrieves the authenticated user from the request context.
// It panics if no user is present: that only happens when a handler that
// expects authentication was registered without the requireAuth wrapper,
// which is a programming error we want to surface loudly.
func (app *applicationDependencies) contextGetUser(r *http.Request) *data.User {
	user, ok := r.Context().Value(userContextKey).(*data.User)
	if !ok {
		panic("missing user value in request context")
	}
	return user
}
