package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/results-app/internal/client"
	"github.com/noah-isme/results-app/internal/middleware"
	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/repository"
	"github.com/noah-isme/results-app/internal/service"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
	"github.com/noah-isme/results-app/pkg/jobs"
)

func newTestAPI(t *testing.T) *client.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	metrics := service.NewMetricsService()
	authSvc := service.NewAuthService(store.Accounts(), store.Crawler(), store.Results(), nil, nil, service.AuthConfig{Secret: "integration"})
	crawlerSvc := service.NewCrawlerService(store.Crawler(), store.Results(), nil, metrics, nil, nil)
	resultsSvc := service.NewResultsService(store.Results(), nil, nil)

	queue := jobs.NewQueue("crawl", crawlerSvc.HandleCrawl, jobs.QueueConfig{Done: crawlerSvc.CrawlDone})
	queue.Start(context.Background())
	t.Cleanup(queue.Stop)
	crawlerSvc.SetQueue(queue)

	r := gin.New()
	r.Use(middleware.Metrics(metrics))
	Register(r.Group("/api/v1"), Handlers{
		Auth:    NewAuthHandler(authSvc),
		Results: NewResultsHandler(resultsSvc),
		Crawler: NewCrawlerHandler(crawlerSvc),
	}, middleware.AccessToken(authSvc))

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	api, err := client.New(client.Config{BaseURL: server.URL + "/api/v1/", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return api
}

func TestAPIRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	_, err := api.GetResults(ctx, "20151")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "missing access token", appErr.Message)

	res, err := api.Register(ctx, models.RegisterRequest{Email: "jan@example.com", Password: "password", FirstName: "Jan", LastName: "D"})
	require.NoError(t, err)
	require.Equal(t, models.StatusOK, res.Status)
	api.SetAuthToken(res.AuthToken)

	cfg, err := api.GetCrawlerConfig(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Status)
	assert.Equal(t, "jan@example.com", cfg.NotificationEmail)

	cfg.Status = true
	cfg.Code = "DUPJ"
	require.NoError(t, api.SaveCrawlerConfig(ctx, *cfg))

	created, err := api.CreateConfigClass(ctx, models.CrawlerClass{Name: "INF1120", Group: "30", Year: "20151"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	classes, err := api.GetConfigClasses(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 1)

	require.NoError(t, api.Refresh(ctx))
	assert.Eventually(t, func() bool {
		results, err := api.GetResults(ctx, "20151")
		return err == nil && len(results.Classes) == 1 && results.Classes[0].ID == created.ID
	}, 2*time.Second, 10*time.Millisecond)

	other, err := api.GetResults(ctx, "20152")
	require.NoError(t, err)
	assert.Empty(t, other.Classes)

	_, err = api.GetResults(ctx, "20159")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)

	require.NoError(t, api.DeleteConfigClass(ctx, created.ID))
	err = api.DeleteConfigClass(ctx, created.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestAPILoginStatuses(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	res, err := api.Login(ctx, "nobody@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInvalidLogin, res.Status)

	_, err = api.Register(ctx, models.RegisterRequest{Email: "jan@example.com", Password: "password", FirstName: "Jan", LastName: "D"})
	require.NoError(t, err)
	res, err = api.Register(ctx, models.RegisterRequest{Email: "jan@example.com", Password: "password", FirstName: "Jan", LastName: "D"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusEmailInUse, res.Status)

	res, err = api.Login(ctx, "jan@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOK, res.Status)
	assert.Equal(t, "Jan", res.User.FirstName)
}
