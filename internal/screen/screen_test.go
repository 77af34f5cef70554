package screen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/session"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

type stubAPI struct {
	mu           sync.Mutex
	gate         chan struct{}
	resultCalls  []session.ID
	refreshCalls int
	refreshErr   error
	resultsErr   error
	configErr    error
	classesErr   error
	config       models.CrawlerConfig
	classes      []models.CrawlerClass
	saves        []models.CrawlerConfig
	saveGate     chan struct{}
}

func (s *stubAPI) wait(ctx context.Context) error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubAPI) GetResults(ctx context.Context, id session.ID) (*models.Results, error) {
	s.mu.Lock()
	s.resultCalls = append(s.resultCalls, id)
	err := s.resultsErr
	s.mu.Unlock()
	if werr := s.wait(ctx); werr != nil {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	return &models.Results{Classes: []models.ClassResult{{ID: "c1", Name: "INF1120", Year: string(id)}}}, nil
}

func (s *stubAPI) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.refreshCalls++
	err := s.refreshErr
	s.mu.Unlock()
	return err
}

func (s *stubAPI) GetCrawlerConfig(ctx context.Context) (*models.CrawlerConfig, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configErr != nil {
		return nil, s.configErr
	}
	cfg := s.config
	return &cfg, nil
}

func (s *stubAPI) GetConfigClasses(ctx context.Context) ([]models.CrawlerClass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.classesErr != nil {
		return nil, s.classesErr
	}
	return s.classes, nil
}

func (s *stubAPI) SaveCrawlerConfig(ctx context.Context, cfg models.CrawlerConfig) error {
	s.mu.Lock()
	s.saves = append(s.saves, cfg)
	gate := s.saveGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return nil
}

func (s *stubAPI) calls() []session.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]session.ID(nil), s.resultCalls...)
}

func (s *stubAPI) saved() []models.CrawlerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CrawlerConfig(nil), s.saves...)
}

type recordingView struct {
	mu       sync.Mutex
	progress []bool
	sessions []session.ID
	shown    map[session.ID]*models.Results
	config   *models.CrawlerConfig
	classes  []models.CrawlerClass
	finished []models.CrawlerConfig
}

func newRecordingView() *recordingView {
	return &recordingView{shown: map[session.ID]*models.Results{}}
}

func (v *recordingView) SetProgress(loading bool) {
	v.mu.Lock()
	v.progress = append(v.progress, loading)
	v.mu.Unlock()
}

func (v *recordingView) ShowSessions(sessions []session.ID, selected session.ID) {
	v.mu.Lock()
	v.sessions = sessions
	v.mu.Unlock()
}

func (v *recordingView) ShowResults(id session.ID, results *models.Results) {
	v.mu.Lock()
	v.shown[id] = results
	v.mu.Unlock()
}

func (v *recordingView) ShowConfig(cfg models.CrawlerConfig) {
	v.mu.Lock()
	v.config = &cfg
	v.mu.Unlock()
}

func (v *recordingView) ShowClasses(classes []models.CrawlerClass) {
	v.mu.Lock()
	v.classes = classes
	v.mu.Unlock()
}

func (v *recordingView) SaveFinished(cfg models.CrawlerConfig, err error) {
	v.mu.Lock()
	v.finished = append(v.finished, cfg)
	v.mu.Unlock()
}

func (v *recordingView) progressLog() []bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]bool(nil), v.progress...)
}

func (v *recordingView) hasResults(id session.ID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.shown[id]
	return ok
}

func waitProgress(t *testing.T, view *recordingView, want ...bool) {
	t.Helper()
	assert.Eventually(t, func() bool { return assert.ObjectsAreEqual(want, view.progressLog()) }, waitFor, tick)
}

func fixedClock() time.Time {
	return time.Date(2015, time.July, 1, 9, 0, 0, 0, time.UTC)
}

func newResults(api *stubAPI, view *recordingView) *ResultsController {
	return NewResultsController(api, view, Options{Now: fixedClock})
}

func TestActivateComputesSessionsAndLoadsCurrent(t *testing.T) {
	api := &stubAPI{}
	view := newRecordingView()
	c := newResults(api, view)

	require.True(t, c.Activate())
	assert.Equal(t, []session.ID{"20152", "20151", "20143", "20142", "20141", "20133"}, c.Sessions())
	assert.Equal(t, session.ID("20152"), c.Selected())

	require.Eventually(t, func() bool { return c.State() == Idle }, waitFor, tick)
	assert.True(t, view.hasResults("20152"))
	waitProgress(t, view, true, false)
	require.NotNil(t, c.Results())
}

func TestSecondLoadWhileLoadingIsIgnored(t *testing.T) {
	api := &stubAPI{gate: make(chan struct{})}
	view := newRecordingView()
	c := newResults(api, view)

	require.True(t, c.Activate())
	assert.Equal(t, Loading, c.State())
	assert.False(t, c.Load())
	assert.False(t, c.Refresh())
	assert.False(t, c.SelectSession("20151"))
	assert.Equal(t, session.ID("20152"), c.Selected())

	close(api.gate)
	require.Eventually(t, func() bool { return c.State() == Idle }, waitFor, tick)
	assert.Len(t, api.calls(), 1)
	waitProgress(t, view, true, false)
}

func TestRefreshFailureStillReloads(t *testing.T) {
	api := &stubAPI{refreshErr: errors.New("crawler down")}
	view := newRecordingView()
	c := newResults(api, view)

	require.True(t, c.Activate())
	require.Eventually(t, func() bool { return c.State() == Idle }, waitFor, tick)

	require.True(t, c.Refresh())
	require.Eventually(t, func() bool { return len(api.calls()) == 2 && c.State() == Idle }, waitFor, tick)
	assert.Equal(t, 1, api.refreshCalls)
	waitProgress(t, view, true, false, true, false)
}

func TestSelectSameSessionShortCircuits(t *testing.T) {
	api := &stubAPI{}
	view := newRecordingView()
	c := newResults(api, view)

	require.True(t, c.Activate())
	require.Eventually(t, func() bool { return c.State() == Idle }, waitFor, tick)

	assert.False(t, c.SelectSession("20152"))
	assert.True(t, c.SelectSession("20143"))
	require.Eventually(t, func() bool { return view.hasResults("20143") }, waitFor, tick)
	assert.Equal(t, []session.ID{"20152", "20143"}, api.calls())
}

func TestFailedLoadKeepsPreviousResults(t *testing.T) {
	api := &stubAPI{}
	view := newRecordingView()
	c := newResults(api, view)

	require.True(t, c.Activate())
	require.Eventually(t, func() bool { return c.State() == Idle }, waitFor, tick)
	before := c.Results()

	api.mu.Lock()
	api.resultsErr = errors.New("boom")
	api.mu.Unlock()

	require.True(t, c.SelectSession("20151"))
	require.Eventually(t, func() bool { return len(api.calls()) == 2 && c.State() == Idle }, waitFor, tick)
	assert.Same(t, before, c.Results())
	assert.False(t, view.hasResults("20151"))
}

func TestCloseDropsResultAndFreesSlot(t *testing.T) {
	api := &stubAPI{gate: make(chan struct{})}
	view := newRecordingView()
	c := newResults(api, view)

	require.True(t, c.Activate())
	c.Close()
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, []bool{true, false}, view.progressLog())

	// The cancelled fetch returns on its own; nothing of it reaches the view.
	time.Sleep(20 * time.Millisecond)
	assert.False(t, view.hasResults("20152"))

	close(api.gate)
	require.True(t, c.Activate())
	require.Eventually(t, func() bool { return view.hasResults("20152") }, waitFor, tick)
	waitProgress(t, view, true, false, true, false)
}

func TestCloseWithoutLoadReportsNothing(t *testing.T) {
	view := newRecordingView()
	c := newResults(&stubAPI{}, view)
	c.Close()
	assert.Empty(t, view.progressLog())
}

func TestProgressEndsIdleAfterRapidLoads(t *testing.T) {
	api := &stubAPI{}
	view := newRecordingView()
	c := newResults(api, view)

	require.True(t, c.Activate())
	waitProgress(t, view, true, false)

	deadline := time.Now().Add(waitFor)
	for started := 0; started < 200 && time.Now().Before(deadline); {
		if c.Load() {
			started++
		}
	}

	require.Eventually(t, func() bool {
		log := view.progressLog()
		return c.State() == Idle && len(log) > 0 && !log[len(log)-1]
	}, waitFor, tick)

	log := view.progressLog()
	for i := 1; i < len(log); i++ {
		require.NotEqual(t, log[i-1], log[i], "report %d repeats the previous flag", i)
	}
}

func TestLoopRunsCallbacksInOrder(t *testing.T) {
	loop := NewLoop(4, nil)
	loop.Start(context.Background())
	defer loop.Stop()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 10; i++ {
		i := i
		loop.Dispatch(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 10
	}, waitFor, tick)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestControllerOnLoop(t *testing.T) {
	loop := NewLoop(0, nil)
	loop.Start(context.Background())
	defer loop.Stop()

	api := &stubAPI{}
	view := newRecordingView()
	c := NewResultsController(api, view, Options{Dispatcher: loop, Now: fixedClock, RecentSessions: 3})

	require.True(t, c.Activate())
	assert.Len(t, c.Sessions(), 3)
	require.Eventually(t, func() bool { return view.hasResults("20152") }, waitFor, tick)
}

func TestSetupAppliesEachPartThatLoaded(t *testing.T) {
	api := &stubAPI{
		config:     models.CrawlerConfig{Status: true, Code: "ABCD", Nip: "1", NotificationEmail: "a@b.c"},
		classesErr: errors.New("classes unavailable"),
	}
	view := newRecordingView()
	c := NewSetupController(api, view, Options{})

	require.True(t, c.Activate())
	require.Eventually(t, func() bool { return c.State() == Idle }, waitFor, tick)
	require.NotNil(t, c.Config())
	assert.Equal(t, "ABCD", c.Config().Code)
	view.mu.Lock()
	assert.Nil(t, view.classes)
	view.mu.Unlock()

	api.mu.Lock()
	api.classesErr = nil
	api.configErr = errors.New("config unavailable")
	api.classes = []models.CrawlerClass{{ID: "1", Name: "INF1120", Group: "30", Year: "20151"}}
	api.mu.Unlock()

	require.True(t, c.Load())
	require.Eventually(t, func() bool { return c.State() == Idle }, waitFor, tick)
	assert.Len(t, c.Classes(), 1)
	assert.Equal(t, "ABCD", c.Config().Code)
}

func TestSetupLoadGuard(t *testing.T) {
	api := &stubAPI{gate: make(chan struct{})}
	view := newRecordingView()
	c := NewSetupController(api, view, Options{})

	require.True(t, c.Load())
	assert.False(t, c.Load())
	close(api.gate)
	require.Eventually(t, func() bool { return c.State() == Idle }, waitFor, tick)
	waitProgress(t, view, true, false)
}

func TestSavesDoNotOverlapAndLastWriteWins(t *testing.T) {
	api := &stubAPI{saveGate: make(chan struct{})}
	view := newRecordingView()
	c := NewSetupController(api, view, Options{})

	c.Save(models.CrawlerConfig{Code: "first"})
	require.Eventually(t, func() bool { return len(api.saved()) == 1 }, waitFor, tick)

	c.Save(models.CrawlerConfig{Code: "second"})
	c.Save(models.CrawlerConfig{Code: "third"})
	assert.Len(t, api.saved(), 1)

	close(api.saveGate)
	c.WaitSaves()

	saves := api.saved()
	require.Len(t, saves, 2)
	assert.Equal(t, "first", saves[0].Code)
	assert.Equal(t, "third", saves[1].Code)
	assert.Equal(t, "third", c.Config().Code)
	assert.Len(t, view.finished, 2)
}
