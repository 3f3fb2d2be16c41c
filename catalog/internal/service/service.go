package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bookhive/catalog-service/catalog/internal/model"
	"github.com/bookhive/catalog-service/catalog/internal/repository"
	"go.uber.org/zap"
)

const (
	bookCachePrefix      = "book:"
	bookListCacheKey     = "book:list"
	bookCategoryCacheKey = "book:category:"
	bookStatusCacheKey   = "book:status:"
	defaultCacheTTL      = 30 * time.Minute
)

// Cache is the key/value collaborator. It is never authoritative: every
// failure is swallowed by the service and degrades to a store read.
type Cache interface {
	Get(ctx context.Context, key string, v any) error
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Publisher interface {
	Publish(topic string, v any) error
}

type Service struct {
	log        *zap.Logger
	repo       repository.Repository
	cache      Cache
	publisher  Publisher
	validator  *StatusValidator
	strategies map[string]SearchStrategy
	ttl        time.Duration
}

type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

func NewService(repo repository.Repository, cache Cache, publisher Publisher, log *zap.Logger, ops ...Option) *Service {
	s := &Service{
		log:       log,
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		validator: DefaultStatusValidator(),
		ttl:       defaultCacheTTL,
	}
	s.strategies = s.newSearchStrategies()
	for _, op := range ops {
		op(s)
	}
	return s
}

func (s *Service) GetBook(ctx context.Context, id int64) (model.Book, error) {
	key := bookKey(id)
	var cached model.Book
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	s.cacheSet(ctx, key, book)
	return book, nil
}

// ListBooks caches the unpaginated list only; paginated reads always go to
// the store since the single list key cannot represent every page.
func (s *Service) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	if page != 0 || size != 0 {
		return s.repo.ListBooks(ctx, page, size)
	}

	var cached model.ListBooks
	if s.cacheGet(ctx, bookListCacheKey, &cached) {
		return cached, nil
	}

	books, err := s.repo.ListBooks(ctx, 0, 0)
	if err != nil {
		return model.ListBooks{}, err
	}
	s.cacheSet(ctx, bookListCacheKey, books)
	return books, nil
}

func (s *Service) BooksByCategory(ctx context.Context, category string) ([]model.Book, error) {
	key := bookCategoryCacheKey + category
	var cached []model.Book
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	books, err := s.repo.BooksByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, books)
	return books, nil
}

func (s *Service) BooksByStatus(ctx context.Context, status model.BookStatus) ([]model.Book, error) {
	key := bookStatusCacheKey + string(status)
	var cached []model.Book
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	books, err := s.repo.BooksByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, books)
	return books, nil
}

// SearchBooks bypasses the cache: result sets churn too quickly for a fixed
// TTL to be useful.
func (s *Service) SearchBooks(ctx context.Context, keyword, searchType string, page, size int) (model.ListBooks, error) {
	strategy, err := s.strategy(searchType)
	if err != nil {
		return model.ListBooks{}, err
	}
	return strategy(ctx, keyword, page, size)
}

func (s *Service) BooksByCriteria(ctx context.Context, c model.SearchCriteria, page, size int) (model.ListBooks, error) {
	return s.repo.BooksByCriteria(ctx, c, page, size)
}

func (s *Service) CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error) {
	book, err := s.repo.CreateBook(ctx, req.Book())
	if err != nil {
		return model.Book{}, err
	}
	s.cacheDelete(ctx, bookListCacheKey)
	s.publish(model.BookEvent{Type: model.EventBookCreated, BookID: book.ID, Status: book.Status})
	return book, nil
}

func (s *Service) UpdateBook(ctx context.Context, id int64, req model.BookRequest) (model.Book, error) {
	book, err := s.repo.UpdateBook(ctx, id, req.Book())
	if err != nil {
		return model.Book{}, err
	}
	s.cacheDelete(ctx, bookKey(id), bookListCacheKey)
	return book, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		return err
	}
	s.cacheDelete(ctx, bookKey(id), bookListCacheKey)
	s.publish(model.BookEvent{Type: model.EventBookDeleted, BookID: id})
	return nil
}

// UpdateBookStatus runs the rule chain to completion before any field is
// mutated: a rejected transition leaves the book exactly as it was.
func (s *Service) UpdateBookStatus(ctx context.Context, id int64, newStatus model.BookStatus) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	if err := s.validator.Validate(book, newStatus); err != nil {
		return model.Book{}, err
	}

	updated, err := s.repo.UpdateBookStatus(ctx, id, newStatus)
	if err != nil {
		return model.Book{}, err
	}
	s.cacheDelete(ctx, bookKey(id), bookListCacheKey)
	s.publish(model.BookEvent{Type: model.EventStatusChanged, BookID: id, Status: newStatus})
	return updated, nil
}

func (s *Service) BorrowBook(ctx context.Context, bookID int64, req model.BorrowRequest) (model.BorrowRecord, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return model.BorrowRecord{}, err
	}
	if err := s.validator.Validate(book, model.StatusBorrowed); err != nil {
		return model.BorrowRecord{}, err
	}

	record, err := s.repo.BorrowBook(ctx, bookID, req.UserID, req.DueDate.Time)
	if err != nil {
		return model.BorrowRecord{}, err
	}
	s.cacheDelete(ctx, bookKey(bookID), bookListCacheKey)
	s.publish(model.BookEvent{Type: model.EventBookBorrowed, BookID: bookID, Status: model.StatusBorrowed, RecordUid: record.RecordUid})
	return record, nil
}

func (s *Service) ReturnBook(ctx context.Context, bookID int64) (model.BorrowRecord, error) {
	if _, err := s.repo.GetBook(ctx, bookID); err != nil {
		return model.BorrowRecord{}, err
	}

	record, err := s.repo.ReturnBook(ctx, bookID)
	if err != nil {
		return model.BorrowRecord{}, err
	}
	s.cacheDelete(ctx, bookKey(bookID), bookListCacheKey)
	s.publish(model.BookEvent{Type: model.EventBookReturned, BookID: bookID, Status: model.StatusAvailable, RecordUid: record.RecordUid})
	return record, nil
}

func (s *Service) ReservationsByBook(ctx context.Context, bookID int64) ([]model.Reservation, error) {
	if _, err := s.repo.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.repo.ReservationsByBook(ctx, bookID)
}

func bookKey(id int64) string {
	return bookCachePrefix + strconv.FormatInt(id, 10)
}
