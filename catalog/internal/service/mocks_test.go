package service_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bookhive/catalog-service/catalog/internal/model"
	"github.com/bookhive/catalog-service/catalog/internal/repository"
	"github.com/bookhive/catalog-service/pkg/cache"
)

// repoMock embeds the interface so tests only implement what they expect to
// be called; anything else panics with a nil dereference, which is the point.
type repoMock struct {
	repository.Repository

	getBookFn          func(ctx context.Context, id int64) (model.Book, error)
	listBooksFn        func(ctx context.Context, page, size int) (model.ListBooks, error)
	createBookFn       func(ctx context.Context, book model.Book) (model.Book, error)
	updateBookFn       func(ctx context.Context, id int64, book model.Book) (model.Book, error)
	updateStatusFn     func(ctx context.Context, id int64, status model.BookStatus) (model.Book, error)
	deleteBookFn       func(ctx context.Context, id int64) error
	byCategoryFn       func(ctx context.Context, category string) ([]model.Book, error)
	byStatusFn         func(ctx context.Context, status model.BookStatus) ([]model.Book, error)
	searchByTitleFn    func(ctx context.Context, keyword string, page, size int) (model.ListBooks, error)
	searchByAuthorFn   func(ctx context.Context, keyword string, page, size int) (model.ListBooks, error)
	byCriteriaFn       func(ctx context.Context, c model.SearchCriteria, page, size int) (model.ListBooks, error)
	borrowBookFn       func(ctx context.Context, bookID, userID int64, dueDate time.Time) (model.BorrowRecord, error)
	returnBookFn       func(ctx context.Context, bookID int64) (model.BorrowRecord, error)
	reservationsFn     func(ctx context.Context, bookID int64) ([]model.Reservation, error)
	getBookCalls       int
	listBooksCalls     int
	searchTitleCalls   int
	searchAuthorCalls  int
	updateStatusCalls  int
}

func (m *repoMock) GetBook(ctx context.Context, id int64) (model.Book, error) {
	m.getBookCalls++
	return m.getBookFn(ctx, id)
}

func (m *repoMock) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	m.listBooksCalls++
	return m.listBooksFn(ctx, page, size)
}

func (m *repoMock) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	return m.createBookFn(ctx, book)
}

func (m *repoMock) UpdateBook(ctx context.Context, id int64, book model.Book) (model.Book, error) {
	return m.updateBookFn(ctx, id, book)
}

func (m *repoMock) UpdateBookStatus(ctx context.Context, id int64, status model.BookStatus) (model.Book, error) {
	m.updateStatusCalls++
	return m.updateStatusFn(ctx, id, status)
}

func (m *repoMock) DeleteBook(ctx context.Context, id int64) error {
	return m.deleteBookFn(ctx, id)
}

func (m *repoMock) BooksByCategory(ctx context.Context, category string) ([]model.Book, error) {
	return m.byCategoryFn(ctx, category)
}

func (m *repoMock) BooksByStatus(ctx context.Context, status model.BookStatus) ([]model.Book, error) {
	return m.byStatusFn(ctx, status)
}

func (m *repoMock) SearchByTitle(ctx context.Context, keyword string, page, size int) (model.ListBooks, error) {
	m.searchTitleCalls++
	return m.searchByTitleFn(ctx, keyword, page, size)
}

func (m *repoMock) SearchByAuthor(ctx context.Context, keyword string, page, size int) (model.ListBooks, error) {
	m.searchAuthorCalls++
	return m.searchByAuthorFn(ctx, keyword, page, size)
}

func (m *repoMock) BooksByCriteria(ctx context.Context, c model.SearchCriteria, page, size int) (model.ListBooks, error) {
	return m.byCriteriaFn(ctx, c, page, size)
}

func (m *repoMock) BorrowBook(ctx context.Context, bookID, userID int64, dueDate time.Time) (model.BorrowRecord, error) {
	return m.borrowBookFn(ctx, bookID, userID, dueDate)
}

func (m *repoMock) ReturnBook(ctx context.Context, bookID int64) (model.BorrowRecord, error) {
	return m.returnBookFn(ctx, bookID)
}

func (m *repoMock) ReservationsByBook(ctx context.Context, bookID int64) ([]model.Reservation, error) {
	return m.reservationsFn(ctx, bookID)
}

// cacheMock is an in-memory stand-in with injectable failures.
type cacheMock struct {
	store   map[string][]byte
	getErr  error
	setErr  error
	delErr  error
	deleted []string
}

func newCacheMock() *cacheMock {
	return &cacheMock{store: map[string][]byte{}}
}

func (c *cacheMock) Get(_ context.Context, key string, v any) error {
	if c.getErr != nil {
		return c.getErr
	}
	data, ok := c.store[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(data, v)
}

func (c *cacheMock) Set(_ context.Context, key string, v any, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = data
	return nil
}

func (c *cacheMock) Delete(_ context.Context, keys ...string) error {
	if c.delErr != nil {
		return c.delErr
	}
	for _, key := range keys {
		delete(c.store, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}

type publisherMock struct {
	events []any
	err    error
}

func (p *publisherMock) Publish(_ string, v any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, v)
	return nil
}
