package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bookhive/catalog-service/catalog/internal/errs"
	"github.com/bookhive/catalog-service/catalog/internal/model"
	"github.com/bookhive/catalog-service/catalog/internal/service"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(repo *repoMock, c service.Cache, pub service.Publisher) *service.Service {
	return service.NewService(repo, c, pub, zap.NewNop())
}

func fixtureBook(id int64, status model.BookStatus) model.Book {
	return model.Book{
		ID:              id,
		Title:           "The Left Hand of Darkness",
		Author:          "Ursula K. Le Guin",
		Status:          status,
		Category:        "Fiction",
		Price:           14.5,
		TotalCopies:     1,
		AvailableCopies: 1,
	}
}

func TestGetBook_CacheMissThenHit(t *testing.T) {
	t.Parallel()
	book := fixtureBook(1, model.StatusAvailable)
	repo := &repoMock{
		getBookFn: func(_ context.Context, id int64) (model.Book, error) {
			return book, nil
		},
	}
	c := newCacheMock()
	svc := newService(repo, c, nil)

	got, err := svc.GetBook(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, book, got)
	require.Equal(t, 1, repo.getBookCalls)
	require.Contains(t, c.store, "book:1")

	// second read is served from the cache, no second store read
	got, err = svc.GetBook(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, book.ID, got.ID)
	require.Equal(t, book.Title, got.Title)
	require.Equal(t, 1, repo.getBookCalls)
}

func TestGetBook_CacheFailureDegradesToStore(t *testing.T) {
	t.Parallel()
	book := fixtureBook(2, model.StatusAvailable)
	repo := &repoMock{
		getBookFn: func(_ context.Context, id int64) (model.Book, error) {
			return book, nil
		},
	}
	c := newCacheMock()
	c.getErr = errors.New("redis: connection refused")
	c.setErr = errors.New("redis: connection refused")
	svc := newService(repo, c, nil)

	got, err := svc.GetBook(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, book, got)
	require.Equal(t, 1, repo.getBookCalls)
}

func TestGetBook_NotFound(t *testing.T) {
	t.Parallel()
	repo := &repoMock{
		getBookFn: func(_ context.Context, id int64) (model.Book, error) {
			return model.Book{}, errs.NotFound(id)
		},
	}
	svc := newService(repo, newCacheMock(), nil)

	_, err := svc.GetBook(context.Background(), 7)
	var notFound *errs.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.EqualError(t, err, "Book not found with id: 7")
}

func TestListBooks_CachesUnpaginatedOnly(t *testing.T) {
	t.Parallel()
	list := model.ListBooks{
		Paging: model.Paging{TotalElements: 1},
		Items:  []model.Book{fixtureBook(1, model.StatusAvailable)},
	}
	repo := &repoMock{
		listBooksFn: func(_ context.Context, page, size int) (model.ListBooks, error) {
			return list, nil
		},
	}
	c := newCacheMock()
	svc := newService(repo, c, nil)

	_, err := svc.ListBooks(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Contains(t, c.store, "book:list")
	require.Equal(t, 1, repo.listBooksCalls)

	_, err = svc.ListBooks(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, repo.listBooksCalls)

	// paginated reads always hit the store
	_, err = svc.ListBooks(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, repo.listBooksCalls)
}

func TestBooksByCategoryAndStatus_SeparateNamespaces(t *testing.T) {
	t.Parallel()
	repo := &repoMock{
		byCategoryFn: func(_ context.Context, category string) ([]model.Book, error) {
			return []model.Book{fixtureBook(1, model.StatusAvailable)}, nil
		},
		byStatusFn: func(_ context.Context, status model.BookStatus) ([]model.Book, error) {
			return []model.Book{fixtureBook(2, status)}, nil
		},
	}
	c := newCacheMock()
	svc := newService(repo, c, nil)

	_, err := svc.BooksByCategory(context.Background(), "Fiction")
	require.NoError(t, err)
	_, err = svc.BooksByStatus(context.Background(), model.StatusAvailable)
	require.NoError(t, err)

	require.Contains(t, c.store, "book:category:Fiction")
	require.Contains(t, c.store, "book:status:AVAILABLE")
}

func TestSearchBooks_StrategyDispatch(t *testing.T) {
	t.Parallel()
	repo := &repoMock{
		searchByTitleFn: func(_ context.Context, keyword string, page, size int) (model.ListBooks, error) {
			return model.ListBooks{}, nil
		},
		searchByAuthorFn: func(_ context.Context, keyword string, page, size int) (model.ListBooks, error) {
			return model.ListBooks{}, nil
		},
	}
	svc := newService(repo, newCacheMock(), nil)

	_, err := svc.SearchBooks(context.Background(), "dune", "title", 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, repo.searchTitleCalls)
	require.Equal(t, 0, repo.searchAuthorCalls)

	_, err = svc.SearchBooks(context.Background(), "herbert", "author", 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, repo.searchAuthorCalls)

	for _, token := range []string{"isbn", "", "Title", "AUTHOR"} {
		_, err = svc.SearchBooks(context.Background(), "dune", token, 1, 10)
		var unsupported *errs.UnsupportedSearchTypeError
		require.ErrorAs(t, err, &unsupported)
		require.EqualError(t, err, "Unsupported search type: "+token)
	}
	// strategy misses never reach the repository
	require.Equal(t, 1, repo.searchTitleCalls)
	require.Equal(t, 1, repo.searchAuthorCalls)
}

func TestCreateBook_InvalidatesListAndPublishes(t *testing.T) {
	t.Parallel()
	repo := &repoMock{
		createBookFn: func(_ context.Context, book model.Book) (model.Book, error) {
			book.ID = 42
			return book, nil
		},
	}
	c := newCacheMock()
	c.store["book:list"] = []byte(`{}`)
	pub := &publisherMock{}
	svc := newService(repo, c, pub)

	book, err := svc.CreateBook(context.Background(), model.BookRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	require.EqualValues(t, 42, book.ID)
	require.Equal(t, model.StatusAvailable, book.Status)
	require.NotContains(t, c.store, "book:list")

	require.Len(t, pub.events, 1)
	event, ok := pub.events[0].(model.BookEvent)
	require.True(t, ok)
	require.Equal(t, model.EventBookCreated, event.Type)
	require.EqualValues(t, 42, event.BookID)
}

func TestUpdateBook_InvalidatesBookAndList(t *testing.T) {
	t.Parallel()
	repo := &repoMock{
		updateBookFn: func(_ context.Context, id int64, book model.Book) (model.Book, error) {
			book.ID = id
			return book, nil
		},
	}
	c := newCacheMock()
	c.store["book:5"] = []byte(`{}`)
	c.store["book:list"] = []byte(`{}`)
	svc := newService(repo, c, nil)

	_, err := svc.UpdateBook(context.Background(), 5, model.BookRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	require.NotContains(t, c.store, "book:5")
	require.NotContains(t, c.store, "book:list")
}

func TestDeleteBook_InvalidatesAndPublishes(t *testing.T) {
	t.Parallel()
	repo := &repoMock{
		deleteBookFn: func(_ context.Context, id int64) error {
			return nil
		},
	}
	c := newCacheMock()
	c.store["book:5"] = []byte(`{}`)
	c.store["book:list"] = []byte(`{}`)
	pub := &publisherMock{}
	svc := newService(repo, c, pub)

	require.NoError(t, svc.DeleteBook(context.Background(), 5))
	require.NotContains(t, c.store, "book:5")
	require.NotContains(t, c.store, "book:list")
	require.Len(t, pub.events, 1)
}

func TestDeleteBook_NotFoundLeavesCache(t *testing.T) {
	t.Parallel()
	repo := &repoMock{
		deleteBookFn: func(_ context.Context, id int64) error {
			return errs.NotFound(id)
		},
	}
	c := newCacheMock()
	c.store["book:9"] = []byte(`{}`)
	svc := newService(repo, c, nil)

	err := svc.DeleteBook(context.Background(), 9)
	var notFound *errs.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Contains(t, c.store, "book:9")
}

func TestUpdateBookStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current model.BookStatus
		next    model.BookStatus
		wantErr error
	}{
		{name: "available to borrowed", current: model.StatusAvailable, next: model.StatusBorrowed},
		{name: "reserved to borrowed", current: model.StatusReserved, next: model.StatusBorrowed},
		{name: "borrowed to available", current: model.StatusBorrowed, next: model.StatusAvailable},
		{name: "borrowed to borrowed rejected", current: model.StatusBorrowed, next: model.StatusBorrowed, wantErr: errs.ErrAlreadyBorrowed},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := &repoMock{
				getBookFn: func(_ context.Context, id int64) (model.Book, error) {
					return fixtureBook(id, tt.current), nil
				},
				updateStatusFn: func(_ context.Context, id int64, status model.BookStatus) (model.Book, error) {
					require.Equal(t, tt.next, status)
					book := fixtureBook(id, status)
					return book, nil
				},
			}
			c := newCacheMock()
			c.store["book:3"] = []byte(`{}`)
			pub := &publisherMock{}
			svc := newService(repo, c, pub)

			book, err := svc.UpdateBookStatus(context.Background(), 3, tt.next)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				// rejected transition is a pure no-op
				require.Zero(t, repo.updateStatusCalls)
				require.Contains(t, c.store, "book:3")
				require.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.next, book.Status)
			require.Equal(t, 1, repo.updateStatusCalls)
			require.NotContains(t, c.store, "book:3")
			require.Len(t, pub.events, 1)
		})
	}
}

func TestBorrowBook(t *testing.T) {
	t.Parallel()
	due := time.Now().Add(14 * 24 * time.Hour).UTC()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		repo := &repoMock{
			getBookFn: func(_ context.Context, id int64) (model.Book, error) {
				return fixtureBook(id, model.StatusAvailable), nil
			},
			borrowBookFn: func(_ context.Context, bookID, userID int64, dueDate time.Time) (model.BorrowRecord, error) {
				require.EqualValues(t, 3, bookID)
				require.EqualValues(t, 11, userID)
				return model.BorrowRecord{
					RecordUid: "8f2b7c6e-0f3a-4f5e-9a42-47a1c0a64f1d",
					BookID:    bookID,
					UserID:    userID,
					Status:    model.BorrowStatusBorrowed,
					DueDate:   dueDate,
				}, nil
			},
		}
		pub := &publisherMock{}
		svc := newService(repo, newCacheMock(), pub)

		record, err := svc.BorrowBook(context.Background(), 3, model.BorrowRequest{UserID: 11, DueDate: model.Date{Time: due}})
		require.NoError(t, err)
		require.Equal(t, model.BorrowStatusBorrowed, record.Status)
		require.Len(t, pub.events, 1)
		event := pub.events[0].(model.BookEvent)
		require.Equal(t, model.EventBookBorrowed, event.Type)
		require.Equal(t, record.RecordUid, event.RecordUid)
	})

	t.Run("already borrowed", func(t *testing.T) {
		t.Parallel()
		repo := &repoMock{
			getBookFn: func(_ context.Context, id int64) (model.Book, error) {
				return fixtureBook(id, model.StatusBorrowed), nil
			},
		}
		pub := &publisherMock{}
		svc := newService(repo, newCacheMock(), pub)

		_, err := svc.BorrowBook(context.Background(), 3, model.BorrowRequest{UserID: 11, DueDate: model.Date{Time: due}})
		require.ErrorIs(t, err, errs.ErrAlreadyBorrowed)
		require.Empty(t, pub.events)
	})
}

func TestReturnBook(t *testing.T) {
	t.Parallel()

	t.Run("no open borrow", func(t *testing.T) {
		t.Parallel()
		repo := &repoMock{
			getBookFn: func(_ context.Context, id int64) (model.Book, error) {
				return fixtureBook(id, model.StatusAvailable), nil
			},
			returnBookFn: func(_ context.Context, bookID int64) (model.BorrowRecord, error) {
				return model.BorrowRecord{}, errs.ErrNoOpenBorrow
			},
		}
		svc := newService(repo, newCacheMock(), nil)

		_, err := svc.ReturnBook(context.Background(), 3)
		require.ErrorIs(t, err, errs.ErrNoOpenBorrow)
	})

	t.Run("book missing", func(t *testing.T) {
		t.Parallel()
		repo := &repoMock{
			getBookFn: func(_ context.Context, id int64) (model.Book, error) {
				return model.Book{}, errs.NotFound(id)
			},
		}
		svc := newService(repo, newCacheMock(), nil)

		_, err := svc.ReturnBook(context.Background(), 404)
		var notFound *errs.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()
	repo := &repoMock{
		createBookFn: func(_ context.Context, book model.Book) (model.Book, error) {
			book.ID = 1
			return book, nil
		},
	}
	pub := &publisherMock{err: errors.New("kafka: broker down")}
	svc := newService(repo, newCacheMock(), pub)

	_, err := svc.CreateBook(context.Background(), model.BookRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
}
