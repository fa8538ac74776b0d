package services

import (
	"context"
	"errors"

	"github.com/wildlens/apiserver/internal/store"
	"github.com/wildlens/apiserver/types"
)

type SpeciesRepository interface {
	Get(ctx context.Context, species string) (types.SpeciesInfo, error)
	List(ctx context.Context) ([]types.SpeciesInfo, error)
}

// SpeciesService serves the read-only species reference data.
type SpeciesService struct {
	repo SpeciesRepository
}

func NewSpeciesService(repo SpeciesRepository) *SpeciesService {
	return &SpeciesService{repo: repo}
}

// Lookup matches species exactly, case included.
func (s *SpeciesService) Lookup(ctx context.Context, species string) (types.SpeciesInfo, error) {
	info, err := s.repo.Get(ctx, species)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.SpeciesInfo{}, ErrSpeciesNotFound
		}
		return types.SpeciesInfo{}, err
	}
	return info, nil
}

func (s *SpeciesService) List(ctx context.Context) ([]types.SpeciesInfo, error) {
	return s.repo.List(ctx)
}
