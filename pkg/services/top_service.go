package services

import (
	"errors"

	"github.com/streampulse/activityd/pkg/analytics"
	"github.com/streampulse/activityd/pkg/models"
)

const defaultTopK = 100

// TopService answers sliding-window top-K queries over recent activity.
type TopService struct {
	registry *analytics.Registry
}

// NewTopService creates a new TopService
func NewTopService(r *analytics.Registry) *TopService {
	return &TopService{registry: r}
}

// GetTop returns the top-k keys for the given window and dimension. Empty
// window or dimension selects 1m and object_id; k <= 0 selects the default.
func (s *TopService) GetTop(window, dimension string, k int) (*models.TopPage, error) {
	if window == "" {
		window = analytics.Window1m
	}
	if dimension == "" {
		dimension = analytics.DimensionObjectID
	}
	if k <= 0 {
		k = defaultTopK
	}

	items, err := s.registry.Top(window, dimension, k)
	switch {
	case errors.Is(err, analytics.ErrUnknownWindow):
		return nil, NewValidationError("window", "must be one of 1m, 5m, 1h")
	case errors.Is(err, analytics.ErrUnknownDimension):
		return nil, NewValidationError("by", "must be object_id or verb")
	case err != nil:
		return nil, err
	}
	if items == nil {
		items = []models.TopEntry{}
	}
	return &models.TopPage{Items: items}, nil
}
