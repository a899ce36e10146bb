// internal/data/users.go
package data

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// User represents a registered account. The password hash is never serialized.
// LikedBooks and LikedComments are the server-authoritative like sets, read
// from the book_likes and review_likes tables.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	IsAdmin        bool      `json:"isAdmin"`
	Bio            string    `json:"bio"`
	FavoriteGenres []string  `json:"favoriteGenres"`
	LikedBooks     []int64   `json:"likedBooks"`
	LikedComments  []int64   `json:"likedComments"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserModel wraps a *sql.DB connection and provides methods for creating,
// reading, and updating user accounts.
type UserModel struct {
	DB *sql.DB
}

const userColumns = `user_id, name, email, password_hash, is_admin, bio, favorite_genres, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var user User
	var genres pq.StringArray
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.Bio,
		&genres,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.FavoriteGenres = []string(genres)
	user.LikedBooks = []int64{}
	user.LikedComments = []int64{}
	return &user, nil
}

// isDuplicateKey reports whether err is a Postgres unique violation on the
// named constraint.
func isDuplicateKey(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == constraint
}

// Insert adds a new user account. Returns ErrDuplicateEmail if the email
// address is already registered (the unique index is case-insensitive).
func (m UserModel) Insert(user *User) error {
	query := `
		INSERT INTO users (name, email, password_hash, is_admin, bio, favorite_genres)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id, created_at, updated_at`

	err := m.DB.QueryRow(
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.Bio,
		pq.Array(user.FavoriteGenres),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isDuplicateKey(err, "users_email_key") {
			return ErrDuplicateEmail
		}
		return err
	}

	user.LikedBooks = []int64{}
	user.LikedComments = []int64{}
	return nil
}

// Get retrieves a user by ID with their like sets populated.
// Returns ErrRecordNotFound if no such user exists.
func (m UserModel) Get(id int64) (*User, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	user, err := scanUser(m.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	if err := m.fillLikes(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail retrieves a user by email address (case-insensitive) with their
// like sets populated. Returns ErrRecordNotFound if no such user exists.
func (m UserModel) GetByEmail(email string) (*User, error) {
	user, err := scanUser(m.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	if err := m.fillLikes(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetAll retrieves every user account, newest first, for the admin dashboard.
// Like sets are left empty: the dashboard only shows profile fields.
func (m UserModel) GetAll() ([]*User, error) {
	rows, err := m.DB.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, user_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update saves the modified profile fields (and possibly a new password hash)
// back to the database. Returns ErrDuplicateEmail if the new email collides
// with another account, or ErrRecordNotFound if the user no longer exists.
func (m UserModel) Update(user *User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, bio = $4, favorite_genres = $5, updated_at = now()
		WHERE user_id = $6
		RETURNING updated_at`

	err := m.DB.QueryRow(
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Bio,
		pq.Array(user.FavoriteGenres),
		user.ID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		switch {
		case isDuplicateKey(err, "users_email_key"):
			return ErrDuplicateEmail
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}
	return nil
}

// fillLikes loads the user's liked-book and liked-review ID sets.
func (m UserModel) fillLikes(user *User) error {
	var likedBooks pq.Int64Array
	err := m.DB.QueryRow(`
		SELECT coalesce(array_agg(book_id ORDER BY book_id), '{}')
		FROM book_likes WHERE user_id = $1`, user.ID).Scan(&likedBooks)
	if err != nil {
		return err
	}

	var likedComments pq.Int64Array
	err = m.DB.QueryRow(`
		SELECT coalesce(array_agg(review_id ORDER BY review_id), '{}')
		FROM review_likes WHERE user_id = $1`, user.ID).Scan(&likedComments)
	if err != nil {
		return err
	}

	user.LikedBooks = []int64(likedBooks)
	user.LikedComments = []int64(likedComments)
	return nil
}
