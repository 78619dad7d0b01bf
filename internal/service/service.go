package service

import (
	"context"

	"github.com/alexivanou/sportslocations/internal/model"
)

// Service provides business logic for the API
type Service struct {
	search  *LocationSearch
	layouts *Layouts
}

// NewService creates a new service instance
func NewService(search *LocationSearch, layouts *Layouts) *Service {
	return &Service{
		search:  search,
		layouts: layouts,
	}
}

// SearchLocations returns the widget envelope for a query
func (s *Service) SearchLocations(ctx context.Context, q model.QueryParams) (*model.SearchResponse, error) {
	return s.search.SearchEnvelope(ctx, q)
}

func (s *Service) GetLayout(ctx context.Context, id string) (*model.Layout, error) {
	return s.layouts.Get(ctx, id)
}

func (s *Service) SaveLayout(ctx context.Context, layout *model.Layout) (*model.Layout, error) {
	return s.layouts.Save(ctx, layout)
}

func (s *Service) DeleteLayout(ctx context.Context, id string) error {
	return s.layouts.Delete(ctx, id)
}

func (s *Service) GetLayoutOutput(ctx context.Context, id string) (*model.LayoutOutput, error) {
	return s.layouts.Output(ctx, id)
}
