package handler

import (
	"context"

	"github.com/bookhive/catalog-service/catalog/internal/model"
	"github.com/bookhive/catalog-service/catalog/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type CatalogService interface {
	GetBook(ctx context.Context, id int64) (model.Book, error)
	ListBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	BooksByCategory(ctx context.Context, category string) ([]model.Book, error)
	BooksByStatus(ctx context.Context, status model.BookStatus) ([]model.Book, error)
	SearchBooks(ctx context.Context, keyword, searchType string, page, size int) (model.ListBooks, error)
	BooksByCriteria(ctx context.Context, c model.SearchCriteria, page, size int) (model.ListBooks, error)
	CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id int64, req model.BookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	UpdateBookStatus(ctx context.Context, id int64, status model.BookStatus) (model.Book, error)
	BorrowBook(ctx context.Context, bookID int64, req model.BorrowRequest) (model.BorrowRecord, error)
	ReturnBook(ctx context.Context, bookID int64) (model.BorrowRecord, error)
	ReservationsByBook(ctx context.Context, bookID int64) ([]model.Reservation, error)
}

var _ CatalogService = (*service.Service)(nil)
