package screen

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/session"
)

// ResultsSource is the part of the API client the results screen needs.
type ResultsSource interface {
	GetResults(ctx context.Context, id session.ID) (*models.Results, error)
	Refresh(ctx context.Context) error
}

// ResultsView renders the results screen.
type ResultsView interface {
	SetProgress(loading bool)
	ShowSessions(sessions []session.ID, selected session.ID)
	ShowResults(id session.ID, results *models.Results)
}

// Options wires a controller to its environment.
type Options struct {
	Dispatcher Dispatcher
	Logger     *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// RecentSessions is the length of the session picker, 6 when unset.
	RecentSessions int
}

// ResultsController drives the results screen: a session picker and the
// grades of the selected session.
type ResultsController struct {
	api     ResultsSource
	view    ResultsView
	tracker *tracker
	logger  *zap.Logger
	now     func() time.Time
	recent  int

	mu       sync.Mutex
	sessions []session.ID
	selected session.ID
	loaded   session.ID
	results  *models.Results
}

// NewResultsController builds a controller. The view receives every callback
// through opts.Dispatcher.
func NewResultsController(api ResultsSource, view ResultsView, opts Options) *ResultsController {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	recent := opts.RecentSessions
	if recent <= 0 {
		recent = 6
	}
	return &ResultsController{
		api:     api,
		view:    view,
		tracker: newTracker(opts.Dispatcher, logger, view.SetProgress),
		logger:  logger,
		now:     now,
		recent:  recent,
	}
}

// Activate recomputes the session list from the clock, selects the current
// session and loads it. It reports whether a load was started.
func (c *ResultsController) Activate() bool {
	current := session.Current(c.now())
	sessions := session.Recent(c.recent, current)

	c.mu.Lock()
	c.sessions = sessions
	c.selected = current
	c.mu.Unlock()

	c.view.ShowSessions(sessions, current)
	return c.Load()
}

// Load fetches the selected session. It is a no-op while a load is in flight.
func (c *ResultsController) Load() bool {
	return c.start(c.Selected(), false)
}

// SelectSession switches the screen to id. Selecting the session already on
// screen does nothing.
func (c *ResultsController) SelectSession(id session.ID) bool {
	c.mu.Lock()
	same := id == c.loaded
	c.mu.Unlock()
	if same {
		return false
	}
	return c.start(id, false)
}

// Refresh asks the server to crawl, then reloads the selected session whether
// or not the crawl request succeeded.
func (c *ResultsController) Refresh() bool {
	return c.start(c.Selected(), true)
}

// Close cancels the load in flight. The controller can be activated again.
func (c *ResultsController) Close() {
	c.tracker.abort()
}

func (c *ResultsController) start(id session.ID, refresh bool) bool {
	if id == "" {
		return false
	}
	tk, ok := c.tracker.begin()
	if !ok {
		return false
	}

	c.mu.Lock()
	c.selected = id
	c.mu.Unlock()

	fetch := func(ctx context.Context) (*models.Results, error) {
		if refresh {
			if err := c.api.Refresh(ctx); err != nil {
				c.logger.Warn("refresh request failed, reloading anyway", zap.Error(err))
			}
		}
		return c.api.GetResults(ctx, id)
	}
	apply := func(results *models.Results) {
		c.mu.Lock()
		c.results = results
		c.loaded = id
		c.mu.Unlock()
		c.view.ShowResults(id, results)
	}

	name := "results"
	if refresh {
		name = "refresh"
	}
	launch(c.tracker, tk, name, fetch, apply)
	return true
}

// State reports whether a load is in flight.
func (c *ResultsController) State() State {
	return c.tracker.State()
}

// Selected returns the session chosen in the picker.
func (c *ResultsController) Selected() session.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Sessions returns the picker entries computed by the last Activate.
func (c *ResultsController) Sessions() []session.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]session.ID(nil), c.sessions...)
}

// Results returns the last successfully loaded results, or nil.
func (c *ResultsController) Results() *models.Results {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}
