// Package data provides the data models and database interaction logic
// for the readshelf book-review API.
package data

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Book represents a single book record stored in the database.
// Rating and NumReviews are derived fields: they are recomputed from the
// book's reviews whenever a review is written and are never client-set.
type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	Description   string    `json:"description"`
	PublishedYear int       `json:"publishedYear"`
	CoverImage    string    `json:"coverImage"`
	Featured      bool      `json:"featured"`
	Rating        float64   `json:"rating"`
	NumReviews    int       `json:"numReviews"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateBookInput holds the fields an admin must supply when creating a book.
// Rating and review counts are intentionally absent: they always start at zero.
type CreateBookInput struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	Description   string `json:"description"`
	PublishedYear int    `json:"publishedYear"`
	CoverImage    string `json:"coverImage"`
	Featured      bool   `json:"featured"`
}

// UpdateBookInput holds the fields an admin may supply when partially updating
// a book. Every field is a pointer so we can distinguish between "not provided"
// (nil) and "intentionally set to zero/empty". Only non-nil fields are applied.
type UpdateBookInput struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	Genre         *string `json:"genre"`
	Description   *string `json:"description"`
	PublishedYear *int    `json:"publishedYear"`
	CoverImage    *string `json:"coverImage"`
	Featured      *bool   `json:"featured"`
}

// BookModel wraps a *sql.DB connection and provides methods for
// creating, reading, updating, and deleting book records.
type BookModel struct {
	DB *sql.DB // Shared database connection pool
}

// bookColumns is the SELECT column list shared by every book query.
const bookColumns = `book_id, title, author, genre, description, published_year, cover_image, featured, rating, num_reviews, created_at, updated_at`

// scanBook scans one row of bookColumns into a Book struct.
func scanBook(row interface{ Scan(...any) error }) (*Book, error) {
	var book Book
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Genre,
		&book.Description,
		&book.PublishedYear,
		&book.CoverImage,
		&book.Featured,
		&book.Rating,
		&book.NumReviews,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Insert adds a new book record to the database.
// After a successful insert, the database-assigned book_id, created_at, and
// updated_at values are written back into the book struct.
func (m BookModel) Insert(book *Book) error {
	query := `
		INSERT INTO books (title, author, genre, description, published_year, cover_image, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING book_id, rating, num_reviews, created_at, updated_at`

	return m.DB.QueryRow(
		query,
		book.Title,
		book.Author,
		book.Genre,
		book.Description,
		book.PublishedYear,
		book.CoverImage,
		book.Featured,
	).Scan(&book.ID, &book.Rating, &book.NumReviews, &book.CreatedAt, &book.UpdatedAt)
}

// Get retrieves a single book by its primary key.
// Returns ErrRecordNotFound if no book with the given id exists.
func (m BookModel) Get(id int64) (*Book, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE book_id = $1`

	book, err := scanBook(m.DB.QueryRow(query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return book, nil
}

// GetAll retrieves books matching the optional keyword (case-insensitive
// substring of the title) and genre (exact match) filters, newest first.
// With filters.Limit > 0 the result is paginated; otherwise every matching
// book is returned on a single page.
//
// The total is counted in a separate query (like the original's
// countDocuments) so the page count stays correct even when the requested
// page is past the end of the result set.
func (m BookModel) GetAll(keyword, genre string, filters Filters) ([]*Book, Metadata, error) {
	where := ` WHERE (title ILIKE '%' || $1 || '%' OR $1 = '') AND (genre = $2 OR $2 = '')`

	var total int
	err := m.DB.QueryRow(`SELECT count(*) FROM books`+where, keyword, genre).Scan(&total)
	if err != nil {
		return nil, Metadata{}, err
	}

	query := `SELECT ` + bookColumns + ` FROM books` + where + ` ORDER BY created_at DESC, book_id DESC`
	args := []any{keyword, genre}
	if filters.limited() {
		query += ` LIMIT $3 OFFSET $4`
		args = append(args, filters.Limit, filters.offset())
	}

	rows, err := m.DB.Query(query, args...)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, Metadata{}, err
		}
		books = append(books, book)
	}
	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	return books, calculateMetadata(total, filters), nil
}

// GetFeatured retrieves every book flagged for homepage promotion.
func (m BookModel) GetFeatured() ([]*Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE featured ORDER BY created_at DESC, book_id DESC`

	rows, err := m.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// GetByIDs retrieves the books whose IDs appear in ids, in ID order.
// IDs with no matching book are silently ignored, so the result may be
// shorter than the input.
func (m BookModel) GetByIDs(ids []int64) ([]*Book, error) {
	if len(ids) == 0 {
		return []*Book{}, nil
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE book_id = ANY($1) ORDER BY book_id`

	rows, err := m.DB.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// Update saves the modified descriptive fields of book back to the database.
// The derived rating and num_reviews columns are deliberately excluded: only
// review writes may change them.
func (m BookModel) Update(book *Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, genre = $3, description = $4,
		    published_year = $5, cover_image = $6, featured = $7, updated_at = now()
		WHERE book_id = $8
		RETURNING updated_at`

	args := []any{
		book.Title,
		book.Author,
		book.Genre,
		book.Description,
		book.PublishedYear,
		book.CoverImage,
		book.Featured,
		book.ID,
	}

	err := m.DB.QueryRow(query, args...).Scan(&book.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}
	return nil
}

// Delete removes the book with the given id. The reviews and likes that
// reference it are removed by the ON DELETE CASCADE constraints.
// Returns ErrRecordNotFound if no matching record exists.
func (m BookModel) Delete(id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	result, err := m.DB.Exec(`DELETE FROM books WHERE book_id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ToggleLike flips the (user, book) membership in the book_likes set.
// If the user already likes the book the like is removed, otherwise it is
// added. Returns the user's resulting liked state and the book's like count.
// Returns ErrRecordNotFound if the book does not exist.
func (m BookModel) ToggleLike(bookID, userID int64) (bool, int, error) {
	tx, err := m.DB.Begin()
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM book_likes WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return false, 0, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, 0, err
	}

	liked := false
	if removed == 0 {
		_, err = tx.Exec(`INSERT INTO book_likes (user_id, book_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, bookID)
		if err != nil {
			var pqErr *pq.Error
			// A foreign-key violation means the book does not exist.
			if errors.As(err, &pqErr) && pqErr.Code == "23503" {
				return false, 0, ErrRecordNotFound
			}
			return false, 0, err
		}
		liked = true
	}

	var likes int
	err = tx.QueryRow(`SELECT count(*) FROM book_likes WHERE book_id = $1`, bookID).Scan(&likes)
	if err != nil {
		return false, 0, err
	}

	return liked, likes, tx.Commit()
}
