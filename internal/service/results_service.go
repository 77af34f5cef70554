package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/session"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
)

// ResultsService serves per-session results, through the cache when enabled.
type ResultsService struct {
	repo   resultsRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewResultsService constructs a ResultsService.
func NewResultsService(repo resultsRepository, cache *CacheService, logger *zap.Logger) *ResultsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsService{repo: repo, cache: cache, logger: logger}
}

// Get returns the classes the user has in the given session.
func (s *ResultsService) Get(ctx context.Context, userID, raw string) (*models.Results, error) {
	id, err := session.Parse(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session")
	}

	key := ResultsKey(userID, id)
	var cached models.Results
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	stored, err := s.repo.Get(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	results := stored.ForSession(string(id))
	s.cache.Set(ctx, key, results)
	return results, nil
}
