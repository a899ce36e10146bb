// internal/data/models.go
package data

import (
	"database/sql"
	"errors"
)

// Models is a top-level container that groups all database model types together.
// It is passed around the application via applicationDependencies so every handler
// has access to the database without importing sql directly.
//
// The fields are interfaces so tests can substitute in-memory stores.
type Models struct {
	Books   BookStore
	Users   UserStore
	Reviews ReviewStore
}

// NewModels constructs a Models value wired up to the given database connection pool.
// Call this once during application startup and store the result in applicationDependencies.
func NewModels(db *sql.DB) Models {
	return Models{
		Books:   BookModel{DB: db},
		Users:   UserModel{DB: db},
		Reviews: ReviewModel{DB: db},
	}
}

// Sentinel errors returned by the store layer. Handlers translate these into
// the appropriate HTTP responses.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateEmail  = errors.New("duplicate email")
	ErrDuplicateReview = errors.New("book already reviewed")
)

// BookStore describes every database operation on the books table and the
// book_likes set.
type BookStore interface {
	Insert(book *Book) error
	Get(id int64) (*Book, error)
	GetAll(keyword, genre string, filters Filters) ([]*Book, Metadata, error)
	GetFeatured() ([]*Book, error)
	GetByIDs(ids []int64) ([]*Book, error)
	Update(book *Book) error
	Delete(id int64) error
	ToggleLike(bookID, userID int64) (liked bool, likes int, err error)
}

// UserStore describes every database operation on the users table.
type UserStore interface {
	Insert(user *User) error
	Get(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	GetAll() ([]*User, error)
	Update(user *User) error
}

// ReviewStore describes every database operation on the reviews table and the
// review_likes set. Insert also recomputes the reviewed book's rating
// aggregate inside the same transaction.
type ReviewStore interface {
	Insert(review *Review) error
	GetForBook(bookID int64) ([]*Review, error)
	GetAll() ([]*Review, error)
	ToggleLike(reviewID, userID int64) (liked bool, likes int, err error)
}
