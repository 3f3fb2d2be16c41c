package service

import (
	"context"

	"github.com/bookhive/catalog-service/catalog/internal/errs"
	"github.com/bookhive/catalog-service/catalog/internal/model"
)

// SearchStrategy is a keyword search handler dispatched by token.
type SearchStrategy func(ctx context.Context, keyword string, page, size int) (model.ListBooks, error)

const (
	SearchTypeTitle  = "title"
	SearchTypeAuthor = "author"
)

// newSearchStrategies builds the registry once at construction. Lookup is
// exact-match and case-sensitive; the map is never mutated afterwards.
func (s *Service) newSearchStrategies() map[string]SearchStrategy {
	return map[string]SearchStrategy{
		SearchTypeTitle:  s.repo.SearchByTitle,
		SearchTypeAuthor: s.repo.SearchByAuthor,
	}
}

func (s *Service) strategy(searchType string) (SearchStrategy, error) {
	strategy, ok := s.strategies[searchType]
	if !ok {
		return nil, &errs.UnsupportedSearchTypeError{Type: searchType}
	}
	return strategy, nil
}
