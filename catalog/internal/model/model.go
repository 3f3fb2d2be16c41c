package model

import (
	"strings"
	"time"
)

type BookStatus string

const (
	StatusAvailable   BookStatus = "AVAILABLE"
	StatusBorrowed    BookStatus = "BORROWED"
	StatusReserved    BookStatus = "RESERVED"
	StatusMaintenance BookStatus = "MAINTENANCE"
	StatusLost        BookStatus = "LOST"
)

func (s BookStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusBorrowed, StatusReserved, StatusMaintenance, StatusLost:
		return true
	}
	return false
}

type Book struct {
	ID              int64      `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Author          string     `json:"author" db:"author"`
	ISBN            *string    `json:"isbn,omitempty" db:"isbn"`
	PublishDate     *time.Time `json:"publishDate,omitempty" db:"publish_date"`
	Status          BookStatus `json:"status" db:"status"`
	Category        string     `json:"category" db:"category"`
	Description     string     `json:"description" db:"description"`
	Price           float64    `json:"price" db:"price"`
	Location        string     `json:"location" db:"location"`
	TotalCopies     int        `json:"totalCopies" db:"total_copies"`
	AvailableCopies int        `json:"availableCopies" db:"available_copies"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

type BookRequest struct {
	Title           string     `json:"title" validate:"required,min=1,max=200"`
	Author          string     `json:"author" validate:"required,min=1,max=100"`
	ISBN            *string    `json:"isbn,omitempty" validate:"omitempty,isbn"`
	PublishDate     *time.Time `json:"publishDate,omitempty"`
	Status          BookStatus `json:"status,omitempty" validate:"omitempty,oneof=AVAILABLE BORROWED RESERVED MAINTENANCE LOST"`
	Category        string     `json:"category,omitempty"`
	Description     string     `json:"description,omitempty" validate:"max=1000"`
	Price           float64    `json:"price,omitempty" validate:"gte=0"`
	Location        string     `json:"location,omitempty"`
	TotalCopies     *int       `json:"totalCopies,omitempty" validate:"omitempty,gte=0"`
	AvailableCopies *int       `json:"availableCopies,omitempty" validate:"omitempty,gte=0"`
}

// Book builds the entity from the request, applying the same defaults the
// store would: status AVAILABLE, one copy total and available.
func (r BookRequest) Book() Book {
	b := Book{
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN,
		PublishDate:     r.PublishDate,
		Status:          r.Status,
		Category:        r.Category,
		Description:     r.Description,
		Price:           r.Price,
		Location:        r.Location,
		TotalCopies:     1,
		AvailableCopies: 1,
	}
	if b.Status == "" {
		b.Status = StatusAvailable
	}
	if r.TotalCopies != nil {
		b.TotalCopies = *r.TotalCopies
	}
	if r.AvailableCopies != nil {
		b.AvailableCopies = *r.AvailableCopies
	}
	return b
}

type UpdateStatusRequest struct {
	Status BookStatus `json:"status" validate:"required,oneof=AVAILABLE BORROWED RESERVED MAINTENANCE LOST"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

// SearchCriteria combines independently optional filters with AND.
type SearchCriteria struct {
	Category  *string
	Status    *BookStatus
	MinPrice  *float64
	MaxPrice  *float64
	StartDate *time.Time
	EndDate   *time.Time
}

type BorrowStatus string

const (
	BorrowStatusBorrowed BorrowStatus = "BORROWED"
	BorrowStatusReturned BorrowStatus = "RETURNED"
	BorrowStatusOverdue  BorrowStatus = "OVERDUE"
	BorrowStatusLost     BorrowStatus = "LOST"
)

type BorrowRecord struct {
	ID         int64        `json:"-" db:"id"`
	RecordUid  string       `json:"recordUid" db:"record_uid"`
	BookID     int64        `json:"bookId" db:"book_id"`
	UserID     int64        `json:"userId" db:"user_id"`
	Status     BorrowStatus `json:"status" db:"status"`
	BorrowDate time.Time    `json:"borrowDate" db:"borrow_date"`
	DueDate    time.Time    `json:"dueDate" db:"due_date"`
	ReturnDate *time.Time   `json:"returnDate,omitempty" db:"return_date"`
}

type BorrowRequest struct {
	UserID  int64 `json:"userId" validate:"required,gt=0"`
	DueDate Date  `json:"dueDate" validate:"required"`
}

type Date struct {
	time.Time `json:",inline"`
}

// Accepts RFC3339 or a plain date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationApproved  ReservationStatus = "APPROVED"
	ReservationRejected  ReservationStatus = "REJECTED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

type Reservation struct {
	ID             int64             `json:"-" db:"id"`
	ReservationUid string            `json:"reservationUid" db:"reservation_uid"`
	BookID         int64             `json:"bookId" db:"book_id"`
	UserID         int64             `json:"userId" db:"user_id"`
	Status         ReservationStatus `json:"status" db:"status"`
	ReservedAt     time.Time         `json:"reservedAt" db:"reserved_at"`
	ExpiresAt      *time.Time        `json:"expiresAt,omitempty" db:"expires_at"`
}

type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleLibrarian UserRole = "LIBRARIAN"
	RoleReader    UserRole = "READER"
)

type User struct {
	ID       int64    `json:"id" db:"id"`
	Username string   `json:"username" db:"username"`
	Email    string   `json:"email" db:"email"`
	Phone    string   `json:"phone" db:"phone"`
	Role     UserRole `json:"role" db:"role"`
}

// BookEvent is the message published to the circulation topic.
type BookEvent struct {
	Type      string     `json:"type"`
	BookID    int64      `json:"bookId"`
	Status    BookStatus `json:"status,omitempty"`
	RecordUid string     `json:"recordUid,omitempty"`
	At        time.Time  `json:"at"`
}

const (
	EventBookCreated   = "book.created"
	EventBookDeleted   = "book.deleted"
	EventStatusChanged = "book.status-changed"
	EventBookBorrowed  = "book.borrowed"
	EventBookReturned  = "book.returned"
)
