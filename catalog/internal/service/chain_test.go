package service_test

import (
	"testing"

	"github.com/bookhive/catalog-service/catalog/internal/errs"
	"github.com/bookhive/catalog-service/catalog/internal/model"
	"github.com/bookhive/catalog-service/catalog/internal/service"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityRule(t *testing.T) {
	t.Parallel()
	rule := service.AvailabilityRule()

	tests := []struct {
		name      string
		current   model.BookStatus
		newStatus model.BookStatus
		wantErr   error
	}{
		{name: "borrowed to borrowed rejected", current: model.StatusBorrowed, newStatus: model.StatusBorrowed, wantErr: errs.ErrAlreadyBorrowed},
		{name: "available to borrowed", current: model.StatusAvailable, newStatus: model.StatusBorrowed},
		{name: "reserved to borrowed", current: model.StatusReserved, newStatus: model.StatusBorrowed},
		{name: "maintenance to borrowed", current: model.StatusMaintenance, newStatus: model.StatusBorrowed},
		{name: "lost to borrowed", current: model.StatusLost, newStatus: model.StatusBorrowed},
		{name: "borrowed to returned", current: model.StatusBorrowed, newStatus: model.StatusAvailable},
		{name: "borrowed to lost", current: model.StatusBorrowed, newStatus: model.StatusLost},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			book := model.Book{ID: 1, Status: tt.current}
			err := rule.Validate(book, tt.newStatus)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.EqualError(t, err, "Book is already borrowed")
			} else {
				require.NoError(t, err)
			}
			// rules never touch the book
			require.Equal(t, tt.current, book.Status)
		})
	}
}

func TestStatusValidator_ShortCircuits(t *testing.T) {
	t.Parallel()

	var calls []string
	accept := func(name string) service.StatusRule {
		return service.StatusRuleFunc(func(model.Book, model.BookStatus) error {
			calls = append(calls, name)
			return nil
		})
	}
	reject := service.StatusRuleFunc(func(model.Book, model.BookStatus) error {
		calls = append(calls, "reject")
		return errs.ErrAlreadyBorrowed
	})

	v := service.NewStatusValidator(accept("first"), reject, accept("last"))
	err := v.Validate(model.Book{Status: model.StatusAvailable}, model.StatusBorrowed)

	require.ErrorIs(t, err, errs.ErrAlreadyBorrowed)
	require.Equal(t, []string{"first", "reject"}, calls)
}

func TestStatusValidator_EmptyChainAccepts(t *testing.T) {
	t.Parallel()
	v := service.NewStatusValidator()
	require.NoError(t, v.Validate(model.Book{Status: model.StatusBorrowed}, model.StatusBorrowed))
}
