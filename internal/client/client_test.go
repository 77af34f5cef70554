package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/results-app/internal/models"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
)

type recordedRequest struct {
	Method    string
	Path      string
	RawPath   string
	Header    http.Header
	HasToken  bool
	Body      []byte
	RequestID string
}

type apiStub struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (s *apiStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, hasToken := r.Header[http.CanonicalHeaderKey(AccessTokenHeader)]
		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			RawPath:   r.URL.EscapedPath(),
			Header:    r.Header.Clone(),
			HasToken:  hasToken,
			Body:      body,
			RequestID: r.Header.Get("X-Request-ID"),
		})
		status, payload := s.status, s.body
		s.mu.Unlock()

		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}
}

func (s *apiStub) respond(status int, body string) {
	s.mu.Lock()
	s.status, s.body = status, body
	s.mu.Unlock()
}

func (s *apiStub) last(t *testing.T) recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

func newTestClient(t *testing.T, stub *apiStub) *Client {
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/api/v1", Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "api/v1/"})
	require.Error(t, err)
	_, err = New(Config{})
	require.Error(t, err)
}

func TestCallWithoutTokenOmitsHeader(t *testing.T) {
	stub := &apiStub{body: `{"lastUpdate":"2015-02-22T10:00:00Z","classes":[]}`}
	c := newTestClient(t, stub)

	_, err := c.GetResults(context.Background(), "20151")
	require.NoError(t, err)

	req := stub.last(t)
	assert.False(t, req.HasToken, "auth header must be absent, not empty")
	assert.Equal(t, "/api/v1/results/20151", req.Path)
	assert.NotEmpty(t, req.RequestID)
}

func TestAuthenticatedCallsCarryToken(t *testing.T) {
	stub := &apiStub{body: `{}`}
	c := newTestClient(t, stub)
	c.SetAuthToken("secret-token")

	_, err := c.GetCrawlerConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret-token", stub.last(t).Header.Get(AccessTokenHeader))

	c.SetAuthToken("")
	_, err = c.GetCrawlerConfig(context.Background())
	require.NoError(t, err)
	assert.False(t, stub.last(t).HasToken)
}

func TestLoginIsUnauthenticated(t *testing.T) {
	stub := &apiStub{body: `{"status":0,"authToken":"abc","user":{"email":"a@b.c","firstName":"Jan","lastName":"D"}}`}
	c := newTestClient(t, stub)
	c.SetAuthToken("stale")

	res, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "abc", res.AuthToken)
	require.NotNil(t, res.User)
	assert.Equal(t, "Jan", res.User.FirstName)

	req := stub.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v1/auth/login", req.Path)
	assert.False(t, req.HasToken)
	assert.JSONEq(t, `{"email":"a@b.c","password":"pw"}`, string(req.Body))
}

func TestRegisterSendsAllFields(t *testing.T) {
	stub := &apiStub{body: `{"status":3,"user":null}`}
	c := newTestClient(t, stub)

	res, err := c.Register(context.Background(), models.RegisterRequest{Email: "a@b.c", Password: "password", FirstName: "Jan", LastName: "D"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusEmailInUse, res.Status)
	assert.Nil(t, res.User)

	req := stub.last(t)
	assert.Equal(t, "/api/v1/auth/register", req.Path)
	assert.JSONEq(t, `{"email":"a@b.c","password":"password","firstName":"Jan","lastName":"D"}`, string(req.Body))
}

func TestGetResultsDecodesFinalGrade(t *testing.T) {
	stub := &apiStub{body: `{
		"lastUpdate": "2015-02-22T10:00:00Z",
		"classes": [{
			"id": "c1", "name": "INF1120", "group": "30", "year": "20151",
			"results": [{"name": "Intra", "normal": {"result": "18/20", "average": "14", "standardDev": "2.1"}, "weighted": {"result": "27", "average": "21", "standardDev": "3"}}],
			"total": {"result": "27", "average": "21", "standardDev": "3"},
			"final": "A-"
		}, {"id": "c2", "name": "MAT1000", "group": "10", "year": "20151", "results": [], "total": {}}]
	}`}
	c := newTestClient(t, stub)
	c.SetAuthToken("tok")

	res, err := c.GetResults(context.Background(), "20151")
	require.NoError(t, err)
	require.Len(t, res.Classes, 2)
	assert.Equal(t, time.Date(2015, 2, 22, 10, 0, 0, 0, time.UTC), res.LastUpdate.UTC())
	assert.Equal(t, "A-", res.Classes[0].FinalGrade)
	assert.True(t, res.Classes[0].HasFinalGrade())
	assert.Equal(t, "18/20", res.Classes[0].Results[0].Normal.Result)
	assert.Equal(t, "3", res.Classes[0].Results[0].Weighted.StandardDev)
	assert.False(t, res.Classes[1].HasFinalGrade())
}

func TestRefreshPostsEmptyBody(t *testing.T) {
	stub := &apiStub{body: `{}`}
	c := newTestClient(t, stub)
	c.SetAuthToken("tok")

	require.NoError(t, c.Refresh(context.Background()))
	req := stub.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v1/crawler/refresh", req.Path)
	assert.Empty(t, req.Body)
	assert.Equal(t, "tok", req.Header.Get(AccessTokenHeader))
}

func TestSaveCrawlerConfigSendsFullBody(t *testing.T) {
	stub := &apiStub{}
	c := newTestClient(t, stub)

	err := c.SaveCrawlerConfig(context.Background(), models.CrawlerConfig{Status: true, Code: "ABCD12345678", Nip: "12345", NotificationEmail: "me@x.org"})
	require.NoError(t, err)
	req := stub.last(t)
	assert.Equal(t, "/api/v1/crawler/config", req.Path)
	assert.JSONEq(t, `{"status":true,"code":"ABCD12345678","nip":"12345","notificationEmail":"me@x.org"}`, string(req.Body))
}

func TestConfigClassOperations(t *testing.T) {
	stub := &apiStub{body: `[{"id":"1","name":"INF1120","group":"30","year":"20151"}]`}
	c := newTestClient(t, stub)

	classes, err := c.GetConfigClasses(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "INF1120", classes[0].Name)
	assert.Equal(t, "/api/v1/crawler/class", stub.last(t).Path)

	stub.respond(http.StatusOK, `{"id":"7","name":"INF2120","group":"20","year":"20152"}`)
	updated, err := c.UpdateConfigClass(context.Background(), models.CrawlerClass{ID: "7", Name: "INF2120", Group: "20", Year: "20152"})
	require.NoError(t, err)
	assert.Equal(t, "7", updated.ID)
	assert.Equal(t, http.MethodPut, stub.last(t).Method)
	assert.Equal(t, "/api/v1/crawler/class/7", stub.last(t).Path)

	stub.respond(http.StatusOK, "")
	require.NoError(t, c.DeleteConfigClass(context.Background(), "7"))
	assert.Equal(t, http.MethodDelete, stub.last(t).Method)
}

func TestServerErrorIsSurfacedVerbatim(t *testing.T) {
	stub := &apiStub{status: http.StatusUnauthorized, body: `{"error":{"code":"UNAUTHORIZED","message":"missing access token","status":401}}`}
	c := newTestClient(t, stub)

	_, err := c.GetResults(context.Background(), "20151")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "missing access token", appErr.Message)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestPlainTextErrorBody(t *testing.T) {
	stub := &apiStub{status: http.StatusInternalServerError, body: "boom"}
	c := newTestClient(t, stub)

	err := c.Refresh(context.Background())
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "boom", appErr.Message)
	assert.True(t, errors.Is(err, appErrors.ErrUpstream))
}

func TestDecodeAndTransportErrors(t *testing.T) {
	stub := &apiStub{body: `not json`}
	c := newTestClient(t, stub)
	_, err := c.GetCrawlerConfig(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrDecode))

	dead, err := New(Config{BaseURL: "http://127.0.0.1:1/api/v1/", Timeout: 200 * time.Millisecond})
	require.NoError(t, err)
	_, err = dead.GetConfigClasses(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrTransport))
}

func TestTokenVisibleAcrossGoroutines(t *testing.T) {
	stub := &apiStub{body: `{}`}
	c := newTestClient(t, stub)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SetAuthToken("shared")
			_ = c.AuthToken()
		}()
	}
	wg.Wait()

	_, err := c.GetCrawlerConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shared", stub.last(t).Header.Get(AccessTokenHeader))
}

func TestPathSegmentsAreEscapedOnce(t *testing.T) {
	stub := &apiStub{}
	c := newTestClient(t, stub)
	ctx := context.Background()

	require.NoError(t, c.DeleteConfigClass(ctx, "a b"))
	req := stub.last(t)
	assert.Equal(t, "/api/v1/crawler/class/a b", req.Path)
	assert.Equal(t, "/api/v1/crawler/class/a%20b", req.RawPath)

	require.NoError(t, c.DeleteConfigClass(ctx, "a/b?c"))
	req = stub.last(t)
	assert.Equal(t, "/api/v1/crawler/class/a%2Fb%3Fc", req.RawPath)

	stub.respond(http.StatusOK, `{"id":"x%y","name":"INF1120","group":"30","year":"20151"}`)
	_, err := c.UpdateConfigClass(ctx, models.CrawlerClass{ID: "x%y", Name: "INF1120"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/crawler/class/x%25y", stub.last(t).RawPath)
	assert.Equal(t, "/api/v1/crawler/class/x%y", stub.last(t).Path)
}
