package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/bookhive/catalog-service/catalog/internal/errs"
	"github.com/bookhive/catalog-service/catalog/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Repository interface {
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	BookExists(ctx context.Context, id int64) (bool, error)
	ListBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	UpdateBook(ctx context.Context, id int64, book model.Book) (model.Book, error)
	UpdateBookStatus(ctx context.Context, id int64, status model.BookStatus) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error

	BooksByCategory(ctx context.Context, category string) ([]model.Book, error)
	BooksByStatus(ctx context.Context, status model.BookStatus) ([]model.Book, error)
	SearchByTitle(ctx context.Context, keyword string, page, size int) (model.ListBooks, error)
	SearchByAuthor(ctx context.Context, keyword string, page, size int) (model.ListBooks, error)
	BooksByCriteria(ctx context.Context, c model.SearchCriteria, page, size int) (model.ListBooks, error)

	BorrowBook(ctx context.Context, bookID, userID int64, dueDate time.Time) (model.BorrowRecord, error)
	ReturnBook(ctx context.Context, bookID int64) (model.BorrowRecord, error)
	ReservationsByBook(ctx context.Context, bookID int64) ([]model.Reservation, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName         = `books`
	borrowRecordsTableName = `borrow_records`
	reservationsTableName  = `reservations`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var bookColumns = []string{
	"id", "title", "author", "isbn", "publish_date", "status", "category",
	"description", "price", "location", "total_copies", "available_copies",
	"created_at", "updated_at",
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "isbn", "publish_date", "status", "category",
			"description", "price", "location", "total_copies", "available_copies").
		Values(book.Title, book.Author, book.ISBN, book.PublishDate, book.Status, book.Category,
			book.Description, book.Price, book.Location, book.TotalCopies, book.AvailableCopies).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var created model.Book
	if err := r.db.GetContext(ctx, &created, query, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args))
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.Book{}, errs.ErrDuplicateISBN
		}
		return model.Book{}, err
	}
	return created, nil
}

func (r *repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.NotFound(id)
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) BookExists(ctx context.Context, id int64) (bool, error) {
	q := `select exists(select 1 from books where id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *repository) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("id")

	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}

func (r *repository) UpdateBook(ctx context.Context, id int64, book model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		Set("title", book.Title).
		Set("author", book.Author).
		Set("isbn", book.ISBN).
		Set("publish_date", book.PublishDate).
		Set("status", book.Status).
		Set("category", book.Category).
		Set("description", book.Description).
		Set("price", book.Price).
		Set("location", book.Location).
		Set("total_copies", book.TotalCopies).
		Set("available_copies", book.AvailableCopies).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var updated model.Book
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.NotFound(id)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.Book{}, errs.ErrDuplicateISBN
		}
		return model.Book{}, err
	}
	return updated, nil
}

func (r *repository) UpdateBookStatus(ctx context.Context, id int64, status model.BookStatus) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var updated model.Book
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.NotFound(id)
		}
		return model.Book{}, err
	}
	return updated, nil
}

func (r *repository) DeleteBook(ctx context.Context, id int64) error {
	query, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.NotFound(id)
	}
	return nil
}

func (r *repository) BooksByCategory(ctx context.Context, category string) ([]model.Book, error) {
	return r.selectBooks(ctx, sq.Eq{"category": category})
}

func (r *repository) BooksByStatus(ctx context.Context, status model.BookStatus) ([]model.Book, error) {
	return r.selectBooks(ctx, sq.Eq{"status": status})
}

func (r *repository) selectBooks(ctx context.Context, pred any) ([]model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(pred).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repository) SearchByTitle(ctx context.Context, keyword string, page, size int) (model.ListBooks, error) {
	return r.searchBooks(ctx, "title", keyword, page, size)
}

func (r *repository) SearchByAuthor(ctx context.Context, keyword string, page, size int) (model.ListBooks, error) {
	return r.searchBooks(ctx, "author", keyword, page, size)
}

func (r *repository) searchBooks(ctx context.Context, column, keyword string, page, size int) (model.ListBooks, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.ILike{column: "%" + keyword + "%"}).
		OrderBy("id")

	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("searchBooks", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}

func (r *repository) BooksByCriteria(ctx context.Context, c model.SearchCriteria, page, size int) (model.ListBooks, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("id")

	if c.Category != nil {
		q = q.Where(sq.Eq{"category": *c.Category})
	}
	if c.Status != nil {
		q = q.Where(sq.Eq{"status": *c.Status})
	}
	if c.MinPrice != nil {
		q = q.Where(sq.GtOrEq{"price": *c.MinPrice})
	}
	if c.MaxPrice != nil {
		q = q.Where(sq.LtOrEq{"price": *c.MaxPrice})
	}
	if c.StartDate != nil {
		q = q.Where(sq.GtOrEq{"publish_date": *c.StartDate})
	}
	if c.EndDate != nil {
		q = q.Where(sq.LtOrEq{"publish_date": *c.EndDate})
	}
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("BooksByCriteria", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}

func (r *repository) BorrowBook(ctx context.Context, bookID, userID int64, dueDate time.Time) (model.BorrowRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.BorrowRecord{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	query, args, err := qb.Insert(borrowRecordsTableName).
		Columns("record_uid", "book_id", "user_id", "status", "borrow_date", "due_date").
		Values(uuid.New(), bookID, userID, model.BorrowStatusBorrowed, time.Now().UTC(), dueDate).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.BorrowRecord{}, err
	}

	var record model.BorrowRecord
	if err := tx.GetContext(ctx, &record, query, args...); err != nil {
		r.log.Error("BorrowBook", zap.String("q", query), zap.Any("args", args))
		return model.BorrowRecord{}, err
	}

	q := `
update books
	set status = $2,
		available_copies = greatest(available_copies - 1, 0),
		updated_at = now()
where id = $1`
	if _, err := tx.ExecContext(ctx, q, bookID, model.StatusBorrowed); err != nil {
		return model.BorrowRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.BorrowRecord{}, err
	}
	return record, nil
}

func (r *repository) ReturnBook(ctx context.Context, bookID int64) (model.BorrowRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.BorrowRecord{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	q := `
update borrow_records
	set status = case when now() > due_date then 'OVERDUE' else 'RETURNED' end,
		return_date = now()
where book_id = $1 and status = 'BORROWED'
returning *`

	var record model.BorrowRecord
	if err := tx.GetContext(ctx, &record, q, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BorrowRecord{}, errs.ErrNoOpenBorrow
		}
		return model.BorrowRecord{}, err
	}

	q = `
update books
	set status = $2,
		available_copies = least(available_copies + 1, total_copies),
		updated_at = now()
where id = $1`
	if _, err := tx.ExecContext(ctx, q, bookID, model.StatusAvailable); err != nil {
		return model.BorrowRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.BorrowRecord{}, err
	}
	return record, nil
}

func (r *repository) ReservationsByBook(ctx context.Context, bookID int64) ([]model.Reservation, error) {
	query, args, err := qb.Select("id", "reservation_uid", "book_id", "user_id", "status", "reserved_at", "expires_at").
		From(reservationsTableName).
		Where(sq.Eq{"book_id": bookID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var items []model.Reservation
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}
