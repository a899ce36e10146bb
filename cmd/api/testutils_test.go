// cmd/api/testutils_test.go
// In-memory stub stores and request helpers shared by the handler tests.
// The stubs implement the data store interfaces over plain maps so the full
// middleware + handler stack can be exercised without a database.
package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aoideee/readshelf/internal/auth"
	"github.com/aoideee/readshelf/internal/data"

	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

// stubDB is the shared backing state for the three stub stores.
type stubDB struct {
	books        map[int64]*data.Book
	users        map[int64]*data.User
	reviews      map[int64]*data.Review
	bookLikes    map[int64]map[int64]bool // bookID -> set of user IDs
	reviewLikes  map[int64]map[int64]bool // reviewID -> set of user IDs
	nextBookID   int64
	nextUserID   int64
	nextReviewID int64
}

func newStubDB() *stubDB {
	return &stubDB{
		books:       map[int64]*data.Book{},
		users:       map[int64]*data.User{},
		reviews:     map[int64]*data.Review{},
		bookLikes:   map[int64]map[int64]bool{},
		reviewLikes: map[int64]map[int64]bool{},
	}
}

// sortedKeysDesc returns the map keys largest-first, which matches the SQL
// layer's created_at DESC, id DESC ordering since IDs are assigned in order.
func sortedKeysDesc[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
	return keys
}

func sortedSet(set map[int64]bool) []int64 {
	ids := []int64{}
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func copyBook(b *data.Book) *data.Book {
	cp := *b
	return &cp
}

func copyUser(u *data.User) *data.User {
	cp := *u
	cp.FavoriteGenres = append([]string{}, u.FavoriteGenres...)
	return &cp
}

// stubBooks implements data.BookStore.
type stubBooks struct{ db *stubDB }

func (s stubBooks) Insert(book *data.Book) error {
	s.db.nextBookID++
	book.ID = s.db.nextBookID
	book.Rating = 0
	book.NumReviews = 0
	book.CreatedAt = time.Now()
	book.UpdatedAt = book.CreatedAt
	s.db.books[book.ID] = copyBook(book)
	return nil
}

func (s stubBooks) Get(id int64) (*data.Book, error) {
	book, ok := s.db.books[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return copyBook(book), nil
}

func (s stubBooks) GetAll(keyword, genre string, filters data.Filters) ([]*data.Book, data.Metadata, error) {
	matched := []*data.Book{}
	for _, id := range sortedKeysDesc(s.db.books) {
		book := s.db.books[id]
		if keyword != "" && !strings.Contains(strings.ToLower(book.Title), strings.ToLower(keyword)) {
			continue
		}
		if genre != "" && book.Genre != genre {
			continue
		}
		matched = append(matched, copyBook(book))
	}

	total := len(matched)
	pages := 1
	if filters.Limit > 0 {
		pages = (total + filters.Limit - 1) / filters.Limit
		offset := (filters.Page - 1) * filters.Limit
		if offset > total {
			offset = total
		}
		end := offset + filters.Limit
		if end > total {
			end = total
		}
		matched = matched[offset:end]
	}

	return matched, data.Metadata{Page: filters.Page, Pages: pages, Total: total}, nil
}

func (s stubBooks) GetFeatured() ([]*data.Book, error) {
	books := []*data.Book{}
	for _, id := range sortedKeysDesc(s.db.books) {
		if s.db.books[id].Featured {
			books = append(books, copyBook(s.db.books[id]))
		}
	}
	return books, nil
}

func (s stubBooks) GetByIDs(ids []int64) ([]*data.Book, error) {
	sorted := append([]int64{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	books := []*data.Book{}
	for _, id := range sorted {
		if book, ok := s.db.books[id]; ok {
			books = append(books, copyBook(book))
		}
	}
	return books, nil
}

func (s stubBooks) Update(book *data.Book) error {
	if _, ok := s.db.books[book.ID]; !ok {
		return data.ErrRecordNotFound
	}
	book.UpdatedAt = time.Now()
	s.db.books[book.ID] = copyBook(book)
	return nil
}

func (s stubBooks) Delete(id int64) error {
	if _, ok := s.db.books[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(s.db.books, id)
	delete(s.db.bookLikes, id)
	for reviewID, review := range s.db.reviews {
		if review.BookID == id {
			delete(s.db.reviews, reviewID)
			delete(s.db.reviewLikes, reviewID)
		}
	}
	return nil
}

func (s stubBooks) ToggleLike(bookID, userID int64) (bool, int, error) {
	if _, ok := s.db.books[bookID]; !ok {
		return false, 0, data.ErrRecordNotFound
	}
	set := s.db.bookLikes[bookID]
	if set == nil {
		set = map[int64]bool{}
		s.db.bookLikes[bookID] = set
	}

	liked := !set[userID]
	if liked {
		set[userID] = true
	} else {
		delete(set, userID)
	}
	return liked, len(set), nil
}

// stubUsers implements data.UserStore.
type stubUsers struct{ db *stubDB }

func (s stubUsers) Insert(user *data.User) error {
	for _, existing := range s.db.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return data.ErrDuplicateEmail
		}
	}
	s.db.nextUserID++
	user.ID = s.db.nextUserID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	user.LikedBooks = []int64{}
	user.LikedComments = []int64{}
	s.db.users[user.ID] = copyUser(user)
	return nil
}

func (s stubUsers) fillLikes(user *data.User) {
	user.LikedBooks = []int64{}
	user.LikedComments = []int64{}
	for bookID, set := range s.db.bookLikes {
		if set[user.ID] {
			user.LikedBooks = append(user.LikedBooks, bookID)
		}
	}
	for reviewID, set := range s.db.reviewLikes {
		if set[user.ID] {
			user.LikedComments = append(user.LikedComments, reviewID)
		}
	}
	sort.Slice(user.LikedBooks, func(i, j int) bool { return user.LikedBooks[i] < user.LikedBooks[j] })
	sort.Slice(user.LikedComments, func(i, j int) bool { return user.LikedComments[i] < user.LikedComments[j] })
}

func (s stubUsers) Get(id int64) (*data.User, error) {
	user, ok := s.db.users[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	cp := copyUser(user)
	s.fillLikes(cp)
	return cp, nil
}

func (s stubUsers) GetByEmail(email string) (*data.User, error) {
	for _, user := range s.db.users {
		if strings.EqualFold(user.Email, email) {
			cp := copyUser(user)
			s.fillLikes(cp)
			return cp, nil
		}
	}
	return nil, data.ErrRecordNotFound
}

func (s stubUsers) GetAll() ([]*data.User, error) {
	users := []*data.User{}
	for _, id := range sortedKeysDesc(s.db.users) {
		users = append(users, copyUser(s.db.users[id]))
	}
	return users, nil
}

func (s stubUsers) Update(user *data.User) error {
	if _, ok := s.db.users[user.ID]; !ok {
		return data.ErrRecordNotFound
	}
	for _, existing := range s.db.users {
		if existing.ID != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return data.ErrDuplicateEmail
		}
	}
	user.UpdatedAt = time.Now()
	s.db.users[user.ID] = copyUser(user)
	return nil
}

// stubReviews implements data.ReviewStore, including the transactional
// aggregate recompute that the SQL layer performs.
type stubReviews struct{ db *stubDB }

func (s stubReviews) Insert(review *data.Review) error {
	book, ok := s.db.books[review.BookID]
	if !ok {
		return data.ErrRecordNotFound
	}
	for _, existing := range s.db.reviews {
		if existing.UserID == review.UserID && existing.BookID == review.BookID {
			return data.ErrDuplicateReview
		}
	}

	s.db.nextReviewID++
	review.ID = s.db.nextReviewID
	review.CreatedAt = time.Now()
	review.LikedBy = []int64{}
	review.Likes = 0
	s.db.reviews[review.ID] = &data.Review{
		ID:        review.ID,
		BookID:    review.BookID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}

	// Recompute the book's derived aggregate from the full review set.
	sum, count := 0, 0
	for _, existing := range s.db.reviews {
		if existing.BookID == review.BookID {
			sum += existing.Rating
			count++
		}
	}
	book.NumReviews = count
	book.Rating = 0
	if count > 0 {
		book.Rating = float64(sum) / float64(count)
	}
	return nil
}

func (s stubReviews) GetForBook(bookID int64) ([]*data.Review, error) {
	reviews := []*data.Review{}
	for _, id := range sortedKeysDesc(s.db.reviews) {
		review := s.db.reviews[id]
		if review.BookID != bookID {
			continue
		}
		cp := *review
		if user, ok := s.db.users[review.UserID]; ok {
			cp.UserName = user.Name
		}
		cp.LikedBy = sortedSet(s.db.reviewLikes[id])
		cp.Likes = len(cp.LikedBy)
		reviews = append(reviews, &cp)
	}
	return reviews, nil
}

func (s stubReviews) GetAll() ([]*data.Review, error) {
	reviews := []*data.Review{}
	for _, id := range sortedKeysDesc(s.db.reviews) {
		review := s.db.reviews[id]
		cp := *review
		if user, ok := s.db.users[review.UserID]; ok {
			cp.UserName = user.Name
		}
		if book, ok := s.db.books[review.BookID]; ok {
			cp.BookTitle = book.Title
		}
		cp.LikedBy = sortedSet(s.db.reviewLikes[id])
		cp.Likes = len(cp.LikedBy)
		reviews = append(reviews, &cp)
	}
	return reviews, nil
}

func (s stubReviews) ToggleLike(reviewID, userID int64) (bool, int, error) {
	if _, ok := s.db.reviews[reviewID]; !ok {
		return false, 0, data.ErrRecordNotFound
	}
	set := s.db.reviewLikes[reviewID]
	if set == nil {
		set = map[int64]bool{}
		s.db.reviewLikes[reviewID] = set
	}

	liked := !set[userID]
	if liked {
		set[userID] = true
	} else {
		delete(set, userID)
	}
	return liked, len(set), nil
}

// newTestApplication builds an application wired to fresh stub stores with
// the rate limiter disabled.
func newTestApplication(t *testing.T) (*applicationDependencies, *stubDB) {
	t.Helper()

	db := newStubDB()

	var settings serverConfig
	settings.environment = "test"
	settings.jwt.secret = testJWTSecret
	settings.cors.trustedOrigins = []string{"*"}
	settings.limiter.enabled = false

	app := &applicationDependencies{
		config: settings,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		models: data.Models{
			Books:   stubBooks{db: db},
			Users:   stubUsers{db: db},
			Reviews: stubReviews{db: db},
		},
	}
	return app, db
}

// seedBook inserts a book directly through the stub store.
func seedBook(t *testing.T, app *applicationDependencies, book data.Book) *data.Book {
	t.Helper()
	require.NoError(t, app.models.Books.Insert(&book))
	return &book
}

// seedUser inserts a user with the given password and returns the stored
// user plus a valid bearer token for them.
func seedUser(t *testing.T, app *applicationDependencies, name, email, password string, isAdmin bool) (*data.User, string) {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &data.User{
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		IsAdmin:        isAdmin,
		FavoriteGenres: []string{},
	}
	require.NoError(t, app.models.Users.Insert(user))

	token, err := auth.MakeJWT(user.ID, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return user, token
}

// mintToken signs a token for an arbitrary user ID with an arbitrary secret,
// for exercising authentication failure paths.
func mintToken(t *testing.T, userID int64, secret string) string {
	t.Helper()
	token, err := auth.MakeJWT(userID, secret, time.Hour)
	require.NoError(t, err)
	return token
}

// doRequest sends a request to the full middleware + router stack and decodes
// the JSON response body into a generic map.
func doRequest(t *testing.T, ts *httptest.Server, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(js)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	payload := map[string]any{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	return res.StatusCode, payload
}
