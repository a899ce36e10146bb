// internal/data/reviews.go
package data

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Review represents one user's star rating and comment for one book.
// LikedBy is the set of user IDs who liked the review; Likes is derived
// from it, never stored. UserName and BookTitle are populated on reads
// that join the related tables.
type Review struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"bookId"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	BookTitle string    `json:"bookTitle,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Likes     int       `json:"likes"`
	LikedBy   []int64   `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewModel wraps a *sql.DB connection and provides methods for creating
// and reading reviews, and for toggling review likes.
type ReviewModel struct {
	DB *sql.DB
}

// likedBySubquery aggregates a review's liker IDs into an array column.
const likedBySubquery = `coalesce((SELECT array_agg(rl.user_id ORDER BY rl.user_id) FROM review_likes rl WHERE rl.review_id = r.review_id), '{}'::bigint[])`

// Insert creates a review and recomputes the reviewed book's rating and
// num_reviews inside the same transaction, so the aggregate can never drift
// from the review set even under concurrent submissions.
//
// Returns ErrDuplicateReview if this user has already reviewed the book
// (backed by the one-review-per-user-per-book unique constraint) and
// ErrRecordNotFound if the book does not exist.
func (m ReviewModel) Insert(review *Review) error {
	tx, err := m.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO reviews (book_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING review_id, created_at`

	err = tx.QueryRow(query, review.BookID, review.UserID, review.Rating, review.Comment).
		Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		switch {
		case errors.As(err, &pqErr) && pqErr.Code == "23505":
			return ErrDuplicateReview
		case errors.As(err, &pqErr) && pqErr.Code == "23503":
			// The book (or user) referenced by the review is gone.
			return ErrRecordNotFound
		default:
			return err
		}
	}

	// Recompute the book's derived aggregate from the full review set.
	_, err = tx.Exec(`
		UPDATE books
		SET rating      = coalesce((SELECT avg(rating) FROM reviews WHERE book_id = $1), 0),
		    num_reviews = (SELECT count(*) FROM reviews WHERE book_id = $1),
		    updated_at  = now()
		WHERE book_id = $1`, review.BookID)
	if err != nil {
		return err
	}

	review.LikedBy = []int64{}
	review.Likes = 0
	return tx.Commit()
}

// GetForBook retrieves every review for a book, newest first, with the
// reviewer's name and the review's like set populated.
func (m ReviewModel) GetForBook(bookID int64) ([]*Review, error) {
	query := `
		SELECT r.review_id, r.book_id, r.user_id, u.name, r.rating, r.comment, r.created_at, ` + likedBySubquery + `
		FROM reviews r
		INNER JOIN users u ON u.user_id = r.user_id
		WHERE r.book_id = $1
		ORDER BY r.created_at DESC, r.review_id DESC`

	rows, err := m.DB.Query(query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*Review{}
	for rows.Next() {
		var review Review
		var likedBy pq.Int64Array
		err := rows.Scan(
			&review.ID,
			&review.BookID,
			&review.UserID,
			&review.UserName,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&likedBy,
		)
		if err != nil {
			return nil, err
		}
		review.LikedBy = []int64(likedBy)
		review.Likes = len(review.LikedBy)
		reviews = append(reviews, &review)
	}
	return reviews, rows.Err()
}

// GetAll retrieves every review in the system, newest first, with the
// reviewer's name and the reviewed book's title populated. Used by the
// admin dashboard.
func (m ReviewModel) GetAll() ([]*Review, error) {
	query := `
		SELECT r.review_id, r.book_id, r.user_id, u.name, b.title, r.rating, r.comment, r.created_at, ` + likedBySubquery + `
		FROM reviews r
		INNER JOIN users u ON u.user_id = r.user_id
		INNER JOIN books b ON b.book_id = r.book_id
		ORDER BY r.created_at DESC, r.review_id DESC`

	rows, err := m.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*Review{}
	for rows.Next() {
		var review Review
		var likedBy pq.Int64Array
		err := rows.Scan(
			&review.ID,
			&review.BookID,
			&review.UserID,
			&review.UserName,
			&review.BookTitle,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&likedBy,
		)
		if err != nil {
			return nil, err
		}
		review.LikedBy = []int64(likedBy)
		review.Likes = len(review.LikedBy)
		reviews = append(reviews, &review)
	}
	return reviews, rows.Err()
}

// ToggleLike flips the (user, review) membership in the review_likes set.
// Returns the user's resulting liked state and the review's like count, or
// ErrRecordNotFound if the review does not exist.
func (m ReviewModel) ToggleLike(reviewID, userID int64) (bool, int, error) {
	tx, err := m.DB.Begin()
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	// Lock the review row so concurrent toggles serialize, and 404 early
	// if the review is gone.
	var id int64
	err = tx.QueryRow(`SELECT review_id FROM reviews WHERE review_id = $1 FOR UPDATE`, reviewID).Scan(&id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return false, 0, ErrRecordNotFound
		default:
			return false, 0, err
		}
	}

	result, err := tx.Exec(`DELETE FROM review_likes WHERE user_id = $1 AND review_id = $2`, userID, reviewID)
	if err != nil {
		return false, 0, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, 0, err
	}

	liked := false
	if removed == 0 {
		_, err = tx.Exec(`INSERT INTO review_likes (user_id, review_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, reviewID)
		if err != nil {
			return false, 0, err
		}
		liked = true
	}

	var likes int
	err = tx.QueryRow(`SELECT count(*) FROM review_likes WHERE review_id = $1`, reviewID).Scan(&likes)
	if err != nil {
		return false, 0, err
	}

	return liked, likes, tx.Commit()
}
