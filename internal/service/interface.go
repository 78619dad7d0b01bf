package service

import (
	"context"

	"github.com/alexivanou/sportslocations/internal/model"
)

// ServiceInterface defines the service interface for testing
type ServiceInterface interface {
	SearchLocations(ctx context.Context, q model.QueryParams) (*model.SearchResponse, error)
	GetLayout(ctx context.Context, id string) (*model.Layout, error)
	SaveLayout(ctx context.Context, layout *model.Layout) (*model.Layout, error)
	DeleteLayout(ctx context.Context, id string) error
	GetLayoutOutput(ctx context.Context, id string) (*model.LayoutOutput, error)
}
