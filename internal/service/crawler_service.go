package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/session"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
	"github.com/noah-isme/results-app/pkg/jobs"
)

// CrawlJobType is the job type handled by HandleCrawl.
const CrawlJobType = "crawl"

type crawlerRepository interface {
	GetConfig(ctx context.Context, userID string) (*models.StoredCrawlerConfig, error)
	SaveConfig(ctx context.Context, cfg *models.StoredCrawlerConfig) error
	ListClasses(ctx context.Context, userID string) ([]models.StoredCrawlerClass, error)
	CreateClass(ctx context.Context, class *models.StoredCrawlerClass) error
	UpdateClass(ctx context.Context, class *models.StoredCrawlerClass) error
	DeleteClass(ctx context.Context, userID, id string) error
}

type resultsRepository interface {
	Get(ctx context.Context, userID string) (*models.StoredResults, error)
	Save(ctx context.Context, stored *models.StoredResults) error
}

// JobQueue accepts background jobs.
type JobQueue interface {
	Enqueue(job jobs.Job) error
}

// CrawlerService manages crawler settings and runs crawl cycles.
type CrawlerService struct {
	repo      crawlerRepository
	results   resultsRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time

	queue JobQueue
}

// NewCrawlerService constructs a CrawlerService. Call SetQueue before
// RequestRefresh is used.
func NewCrawlerService(repo crawlerRepository, results resultsRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CrawlerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CrawlerService{repo: repo, results: results, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// SetQueue wires the queue that runs crawl jobs.
func (s *CrawlerService) SetQueue(queue JobQueue) {
	s.queue = queue
}

// GetConfig returns the crawler config of a user.
func (s *CrawlerService) GetConfig(ctx context.Context, userID string) (*models.CrawlerConfig, error) {
	stored, err := s.repo.GetConfig(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "crawler config not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load crawler config")
	}
	cfg := stored.CrawlerConfig
	return &cfg, nil
}

// SaveConfig replaces the crawler config of a user.
func (s *CrawlerService) SaveConfig(ctx context.Context, userID string, cfg models.CrawlerConfig) error {
	if err := s.validator.Struct(cfg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid crawler config")
	}
	stored := &models.StoredCrawlerConfig{UserID: userID, CrawlerConfig: cfg, UpdatedAt: s.now().UTC()}
	if err := s.repo.SaveConfig(ctx, stored); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save crawler config")
	}
	s.logger.Info("crawler config saved", zap.String("user_id", userID), zap.Bool("status", cfg.Status))
	return nil
}

// ListClasses returns the tracked classes of a user.
func (s *CrawlerService) ListClasses(ctx context.Context, userID string) ([]models.CrawlerClass, error) {
	stored, err := s.repo.ListClasses(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list crawler classes")
	}
	out := make([]models.CrawlerClass, 0, len(stored))
	for _, class := range stored {
		out = append(out, class.CrawlerClass)
	}
	return out, nil
}

// CreateClass starts tracking a class. The id in class is ignored.
func (s *CrawlerService) CreateClass(ctx context.Context, userID string, class models.CrawlerClass) (*models.CrawlerClass, error) {
	if err := s.validateClass(class); err != nil {
		return nil, err
	}
	class.ID = uuid.NewString()
	stored := &models.StoredCrawlerClass{UserID: userID, CrawlerClass: class, CreatedAt: s.now().UTC()}
	if err := s.repo.CreateClass(ctx, stored); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create crawler class")
	}
	return &class, nil
}

// UpdateClass replaces the tracked class id.
func (s *CrawlerService) UpdateClass(ctx context.Context, userID, id string, class models.CrawlerClass) (*models.CrawlerClass, error) {
	if err := s.validateClass(class); err != nil {
		return nil, err
	}
	class.ID = id
	stored := &models.StoredCrawlerClass{UserID: userID, CrawlerClass: class}
	if err := s.repo.UpdateClass(ctx, stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "crawler class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update crawler class")
	}
	return &class, nil
}

// DeleteClass stops tracking class id.
func (s *CrawlerService) DeleteClass(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteClass(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "crawler class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete crawler class")
	}
	return nil
}

func (s *CrawlerService) validateClass(class models.CrawlerClass) error {
	if err := s.validator.Struct(class); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid crawler class")
	}
	if !session.ID(class.Year).Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid session %q", class.Year))
	}
	return nil
}

// RequestRefresh queues a crawl for the user. A crawl already pending for
// the same user absorbs the request.
func (s *CrawlerService) RequestRefresh(ctx context.Context, userID string) error {
	if s.queue == nil {
		return appErrors.Clone(appErrors.ErrUnavailable, "crawler is not running")
	}
	err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: CrawlJobType, Key: userID, Payload: userID})
	switch {
	case err == nil:
		s.metrics.ObserveCrawl(CrawlQueued, 0)
		s.logger.Info("crawl queued", zap.String("user_id", userID))
		return nil
	case errors.Is(err, jobs.ErrDuplicate):
		return nil
	default:
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to queue crawl")
	}
}

// HandleCrawl runs one crawl cycle for the user in job.Payload: every
// tracked class gets a results entry and the results are stamped.
func (s *CrawlerService) HandleCrawl(ctx context.Context, job jobs.Job) error {
	userID, ok := job.Payload.(string)
	if !ok || userID == "" {
		return fmt.Errorf("crawl job %s has no user", job.ID)
	}

	classes, err := s.repo.ListClasses(ctx, userID)
	if err != nil {
		return fmt.Errorf("list classes for crawl: %w", err)
	}

	stored, err := s.results.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load results for crawl: %w", err)
		}
		stored = &models.StoredResults{UserID: userID}
	}

	index := make(map[string]int, len(stored.Classes))
	for i, class := range stored.Classes {
		index[class.ID] = i
	}
	for _, tracked := range classes {
		if i, ok := index[tracked.ID]; ok {
			stored.Classes[i].Name = tracked.Name
			stored.Classes[i].Group = tracked.Group
			stored.Classes[i].Year = tracked.Year
			continue
		}
		stored.Classes = append(stored.Classes, models.ClassResult{
			ID:      tracked.ID,
			Name:    tracked.Name,
			Group:   tracked.Group,
			Year:    tracked.Year,
			Results: []models.Result{},
		})
	}
	stored.LastUpdate = s.now().UTC()

	if err := s.results.Save(ctx, stored); err != nil {
		return fmt.Errorf("save crawled results: %w", err)
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		return fmt.Errorf("invalidate results cache: %w", err)
	}
	s.logger.Info("crawl finished", zap.String("user_id", userID), zap.Int("classes", len(stored.Classes)))
	return nil
}

// CrawlDone records the final outcome of a crawl job.
func (s *CrawlerService) CrawlDone(job jobs.Job, err error, elapsed time.Duration) {
	if err != nil {
		s.metrics.ObserveCrawl(CrawlFailed, elapsed)
		return
	}
	s.metrics.ObserveCrawl(CrawlSucceeded, elapsed)
}
