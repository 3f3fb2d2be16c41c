package errs

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyBorrowed = errors.New("Book is already borrowed")
	ErrDuplicateISBN   = errors.New("book with this isbn already exists")
	ErrNoOpenBorrow    = errors.New("book has no open borrow record")
)

type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Book not found with id: %d", e.ID)
}

func NotFound(id int64) error {
	return &NotFoundError{ID: id}
}

type UnsupportedSearchTypeError struct {
	Type string
}

func (e *UnsupportedSearchTypeError) Error() string {
	return fmt.Sprintf("Unsupported search type: %s", e.Type)
}
