package main

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/screen"
	"github.com/noah-isme/results-app/internal/session"
)

const loadTimeout = time.Minute

var errLoadFailed = errors.New("request failed, see the log above")

// idleSignal reports each return to Idle of a controller.
type idleSignal chan struct{}

func newIdleSignal() idleSignal { return make(idleSignal, 4) }

func (s idleSignal) SetProgress(loading bool) {
	if !loading {
		select {
		case s <- struct{}{}:
		default:
		}
	}
}

func (s idleSignal) wait(ctx context.Context, started bool) error {
	if !started {
		return errors.New("a load is already running")
	}
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	select {
	case <-s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resultsSink keeps what the results controller shows.
type resultsSink struct {
	idleSignal
	results *models.Results
	shown   session.ID
}

func (v *resultsSink) ShowSessions([]session.ID, session.ID) {}

func (v *resultsSink) ShowResults(id session.ID, results *models.Results) {
	v.shown, v.results = id, results
}

// setupSink keeps what the setup controller shows.
type setupSink struct {
	idleSignal
	config  *models.CrawlerConfig
	classes []models.CrawlerClass
	saveErr error
}

func (v *setupSink) ShowConfig(cfg models.CrawlerConfig) { v.config = &cfg }

func (v *setupSink) ShowClasses(classes []models.CrawlerClass) { v.classes = classes }

func (v *setupSink) SaveFinished(_ models.CrawlerConfig, err error) { v.saveErr = err }

// controllers runs screen controllers on a dispatch loop for one command.
type controllers struct {
	loop *screen.Loop
	opts screen.Options
}

func (e *env) controllers(ctx context.Context) *controllers {
	loop := screen.NewLoop(0, e.logger)
	loop.Start(ctx)
	return &controllers{loop: loop, opts: screen.Options{
		Dispatcher:     loop,
		Logger:         e.logger,
		Now:            e.now,
		RecentSessions: e.cfg.Client.RecentSessions,
	}}
}

func (c *controllers) stop() { c.loop.Stop() }

// flush waits until every callback dispatched so far has run.
func (c *controllers) flush() {
	done := make(chan struct{})
	c.loop.Dispatch(func() { close(done) })
	<-done
}

// loadResults fetches one session, or the current one when id is empty.
func (e *env) loadResults(ctx context.Context, id session.ID, refresh bool) (*resultsSink, error) {
	c := e.controllers(ctx)
	defer c.stop()

	view := &resultsSink{idleSignal: newIdleSignal()}
	ctrl := screen.NewResultsController(e.api, view, c.opts)
	defer ctrl.Close()

	var started bool
	if id == "" {
		started = ctrl.Activate()
	} else {
		started = ctrl.SelectSession(id)
	}
	if err := view.wait(ctx, started); err != nil {
		return nil, err
	}
	if refresh {
		if err := view.wait(ctx, ctrl.Refresh()); err != nil {
			return nil, err
		}
	}
	if view.results == nil {
		return nil, errLoadFailed
	}
	return view, nil
}

// setupSession is a loaded setup screen kept open for saves.
type setupSession struct {
	*setupSink
	ctrl *screen.SetupController
	c    *controllers
}

// openSetup fetches the crawler config and classes.
func (e *env) openSetup(ctx context.Context) (*setupSession, error) {
	c := e.controllers(ctx)
	view := &setupSink{idleSignal: newIdleSignal()}
	s := &setupSession{setupSink: view, ctrl: screen.NewSetupController(e.api, view, c.opts), c: c}
	if err := view.wait(ctx, s.ctrl.Activate()); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// save sends cfg and waits for the outcome.
func (s *setupSession) save(cfg models.CrawlerConfig) error {
	s.ctrl.Save(cfg)
	s.ctrl.WaitSaves()
	s.c.flush()
	return s.saveErr
}

func (s *setupSession) close() {
	s.ctrl.Close()
	s.ctrl.WaitSaves()
	s.c.stop()
}
