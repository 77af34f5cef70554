package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/service"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
)

type validatorFunc func(string) (*models.AccessClaims, error)

func (f validatorFunc) ValidateToken(token string) (*models.AccessClaims, error) { return f(token) }

func newTokenRouter(v TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secret", AccessToken(v), func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, claims.UserID)
	})
	return r
}

func TestAccessTokenRequiresHeader(t *testing.T) {
	r := newTokenRouter(validatorFunc(func(string) (*models.AccessClaims, error) {
		t.Fatal("validator must not run without a token")
		return nil, nil
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secret", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
}

func TestAccessTokenRejectsInvalidToken(t *testing.T) {
	r := newTokenRouter(validatorFunc(func(string) (*models.AccessClaims, error) {
		return nil, appErrors.Wrap(errors.New("bad signature"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid access token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set(AccessTokenHeader, "garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid access token")
}

func TestAccessTokenStoresClaims(t *testing.T) {
	r := newTokenRouter(validatorFunc(func(token string) (*models.AccessClaims, error) {
		require.Equal(t, "good", token)
		return &models.AccessClaims{UserID: "u1"}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set(AccessTokenHeader, "good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/results/:session", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/results/20151", nil))
	require.Equal(t, http.StatusOK, w.Code)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" && label.GetValue() == "/results/:session" {
					found = true
				}
			}
		}
	}
	assert.True(t, found)
}

func TestMetricsSkipsScrapeAndFoldsUnknownPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/metrics", "/nope/1", "/nope/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"unmatched": 2}, paths)
}
