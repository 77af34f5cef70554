package screen

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/results-app/internal/models"
)

// SetupSource is the part of the API client the setup screen needs.
type SetupSource interface {
	GetCrawlerConfig(ctx context.Context) (*models.CrawlerConfig, error)
	SaveCrawlerConfig(ctx context.Context, cfg models.CrawlerConfig) error
	GetConfigClasses(ctx context.Context) ([]models.CrawlerClass, error)
}

// SetupView renders the crawler setup screen.
type SetupView interface {
	SetProgress(loading bool)
	ShowConfig(cfg models.CrawlerConfig)
	ShowClasses(classes []models.CrawlerClass)
}

// SaveObserver is implemented by views that want to hear about finished saves.
type SaveObserver interface {
	SaveFinished(cfg models.CrawlerConfig, err error)
}

type setupSnapshot struct {
	config     *models.CrawlerConfig
	classes    []models.CrawlerClass
	configErr  error
	classesErr error
}

// SetupController drives the crawler setup screen.
type SetupController struct {
	api      SetupSource
	view     SetupView
	tracker  *tracker
	dispatch Dispatcher
	logger   *zap.Logger

	mu      sync.Mutex
	config  *models.CrawlerConfig
	classes []models.CrawlerClass

	saveMu  sync.Mutex
	saving  bool
	pending *models.CrawlerConfig
	idle    *sync.Cond
}

// NewSetupController builds a controller wired like NewResultsController.
func NewSetupController(api SetupSource, view SetupView, opts Options) *SetupController {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tr := newTracker(opts.Dispatcher, logger, view.SetProgress)
	c := &SetupController{
		api:      api,
		view:     view,
		tracker:  tr,
		dispatch: tr.dispatch,
		logger:   logger,
	}
	c.idle = sync.NewCond(&c.saveMu)
	return c
}

// Activate loads the screen.
func (c *SetupController) Activate() bool {
	return c.Load()
}

// Load fetches the crawler config and tracked classes in one task. Each part
// that arrives is applied even when the other failed.
func (c *SetupController) Load() bool {
	tk, ok := c.tracker.begin()
	if !ok {
		return false
	}
	launch(c.tracker, tk, "setup", c.fetch, c.apply)
	return true
}

func (c *SetupController) fetch(ctx context.Context) (setupSnapshot, error) {
	var snap setupSnapshot
	snap.config, snap.configErr = c.api.GetCrawlerConfig(ctx)
	snap.classes, snap.classesErr = c.api.GetConfigClasses(ctx)
	return snap, nil
}

func (c *SetupController) apply(snap setupSnapshot) {
	if snap.configErr != nil {
		c.logger.Warn("load crawler config failed", zap.Error(snap.configErr))
	} else if snap.config != nil {
		c.mu.Lock()
		cfg := *snap.config
		c.config = &cfg
		c.mu.Unlock()
		c.view.ShowConfig(cfg)
	}

	if snap.classesErr != nil {
		c.logger.Warn("load crawler classes failed", zap.Error(snap.classesErr))
	} else {
		c.mu.Lock()
		c.classes = snap.classes
		c.mu.Unlock()
		c.view.ShowClasses(snap.classes)
	}
}

// Save sends the whole config. Saves run one at a time; a save requested
// while one is running replaces any save still waiting.
func (c *SetupController) Save(cfg models.CrawlerConfig) {
	c.saveMu.Lock()
	if c.saving {
		c.pending = &cfg
		c.saveMu.Unlock()
		return
	}
	c.saving = true
	c.saveMu.Unlock()

	go c.saveLoop(cfg)
}

func (c *SetupController) saveLoop(cfg models.CrawlerConfig) {
	for {
		err := c.api.SaveCrawlerConfig(context.Background(), cfg)
		saved := cfg
		c.dispatch.Dispatch(func() { c.saved(saved, err) })

		c.saveMu.Lock()
		if c.pending == nil {
			c.saving = false
			c.idle.Broadcast()
			c.saveMu.Unlock()
			return
		}
		cfg = *c.pending
		c.pending = nil
		c.saveMu.Unlock()
	}
}

func (c *SetupController) saved(cfg models.CrawlerConfig, err error) {
	if err != nil {
		c.logger.Warn("save crawler config failed", zap.Error(err))
	} else {
		c.mu.Lock()
		c.config = &cfg
		c.mu.Unlock()
	}
	if obs, ok := c.view.(SaveObserver); ok {
		obs.SaveFinished(cfg, err)
	}
}

// WaitSaves blocks until no save is running or waiting.
func (c *SetupController) WaitSaves() {
	c.saveMu.Lock()
	for c.saving {
		c.idle.Wait()
	}
	c.saveMu.Unlock()
}

// Close cancels the load in flight. Saves already requested still run.
func (c *SetupController) Close() {
	c.tracker.abort()
}

// State reports whether a load is in flight.
func (c *SetupController) State() State {
	return c.tracker.State()
}

// Config returns the last known crawler config, or nil.
func (c *SetupController) Config() *models.CrawlerConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config == nil {
		return nil
	}
	cfg := *c.config
	return &cfg
}

// Classes returns the last loaded tracked classes.
func (c *SetupController) Classes() []models.CrawlerClass {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CrawlerClass(nil), c.classes...)
}
