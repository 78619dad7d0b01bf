package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/alexivanou/sportslocations/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrLayoutNotFound         = errors.New("layout not found")
	ErrInvalidLayoutID        = errors.New("layout id is required")
	ErrInvalidModule          = errors.New("unknown layout module")
	ErrSelectionLimitExceeded = errors.New("maximum selected locations exceeded")
	ErrSelectionBelowMinimum  = errors.New("not enough selected locations")
)

// Layouts persists layouts and their location selections
type Layouts struct {
	repo   repository.LayoutRepository
	min    int
	max    int
	logger *zap.Logger
}

// NewLayouts creates a layout service
func NewLayouts(repo repository.LayoutRepository, cfg config.SelectionConfig, logger *zap.Logger) *Layouts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Layouts{
		repo:   repo,
		min:    cfg.Min,
		max:    cfg.Max,
		logger: logger.Named("layouts"),
	}
}

// Save validates and stores a layout. Repeated ids keep their first position.
func (l *Layouts) Save(ctx context.Context, layout *model.Layout) (*model.Layout, error) {
	layout.ID = strings.TrimSpace(layout.ID)
	if layout.ID == "" {
		return nil, ErrInvalidLayoutID
	}
	if !model.ValidModule(layout.Module) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModule, layout.Module)
	}

	layout.Selected = layout.Selected.Dedupe()
	if l.max > 0 && len(layout.Selected) > l.max {
		return nil, fmt.Errorf("%w: %d of %d", ErrSelectionLimitExceeded, len(layout.Selected), l.max)
	}
	if len(layout.Selected) < l.min {
		return nil, fmt.Errorf("%w: %d of %d", ErrSelectionBelowMinimum, len(layout.Selected), l.min)
	}

	layout.UpdatedAt = time.Now().UTC()
	if err := l.repo.SaveLayout(ctx, layout); err != nil {
		return nil, fmt.Errorf("failed to save layout: %w", err)
	}

	l.logger.Info("Layout saved",
		zap.String("id", layout.ID),
		zap.String("module", layout.Module),
		zap.Int("selected", len(layout.Selected)),
	)
	return layout, nil
}

// Get loads a layout with its selection
func (l *Layouts) Get(ctx context.Context, id string) (*model.Layout, error) {
	layout, err := l.repo.GetLayout(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get layout: %w", err)
	}
	if layout == nil {
		return nil, ErrLayoutNotFound
	}
	return layout, nil
}

// Delete removes a layout and its selection
func (l *Layouts) Delete(ctx context.Context, id string) error {
	if err := l.repo.DeleteLayout(ctx, id); err != nil {
		return fmt.Errorf("failed to delete layout: %w", err)
	}
	return nil
}

// Output exposes a layout to content consumers: escaped title, bare ids in order and the module tag
func (l *Layouts) Output(ctx context.Context, id string) (*model.LayoutOutput, error) {
	layout, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return LayoutOutput(layout), nil
}

// LayoutOutput converts a stored layout. A missing selection becomes an empty list.
func LayoutOutput(layout *model.Layout) *model.LayoutOutput {
	ids := layout.Selected.IDs()
	return &model.LayoutOutput{
		Title:     html.EscapeString(layout.Title),
		Locations: ids,
		Module:    html.EscapeString(layout.Module),
	}
}
