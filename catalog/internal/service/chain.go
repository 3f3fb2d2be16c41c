package service

import (
	"github.com/bookhive/catalog-service/catalog/internal/errs"
	"github.com/bookhive/catalog-service/catalog/internal/model"
)

// StatusRule checks a single aspect of a proposed status transition. Rules
// must not mutate the book; the caller applies the new status only after
// every rule accepts.
type StatusRule interface {
	Validate(book model.Book, newStatus model.BookStatus) error
}

type StatusRuleFunc func(book model.Book, newStatus model.BookStatus) error

func (f StatusRuleFunc) Validate(book model.Book, newStatus model.BookStatus) error {
	return f(book, newStatus)
}

// StatusValidator runs rules in registration order and short-circuits on the
// first rejection.
type StatusValidator struct {
	rules []StatusRule
}

func NewStatusValidator(rules ...StatusRule) *StatusValidator {
	return &StatusValidator{rules: rules}
}

func (v *StatusValidator) Validate(book model.Book, newStatus model.BookStatus) error {
	for _, rule := range v.rules {
		if err := rule.Validate(book, newStatus); err != nil {
			return err
		}
	}
	return nil
}

// AvailabilityRule rejects borrowing a copy that is already out.
func AvailabilityRule() StatusRule {
	return StatusRuleFunc(func(book model.Book, newStatus model.BookStatus) error {
		if newStatus == model.StatusBorrowed && book.Status == model.StatusBorrowed {
			return errs.ErrAlreadyBorrowed
		}
		return nil
	})
}

// DefaultStatusValidator is the rule set used by the service.
func DefaultStatusValidator() *StatusValidator {
	return NewStatusValidator(
		AvailabilityRule(),
	)
}
