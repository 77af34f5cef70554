package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/results-app/internal/models"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
)

type accountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

type crawlerConfigWriter interface {
	SaveConfig(ctx context.Context, cfg *models.StoredCrawlerConfig) error
}

type resultsWriter interface {
	Save(ctx context.Context, stored *models.StoredResults) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
	// MaxAttempts failed logins within AttemptWindow lock an email out.
	MaxAttempts   int
	AttemptWindow time.Duration
}

// AuthService implements login and registration for the dev server.
type AuthService struct {
	accounts  accountRepository
	configs   crawlerConfigWriter
	results   resultsWriter
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
	throttle  *loginThrottle
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(accounts accountRepository, configs crawlerConfigWriter, results resultsWriter, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 30 * 24 * time.Hour
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.AttemptWindow <= 0 {
		config.AttemptWindow = 15 * time.Minute
	}
	return &AuthService{
		accounts:  accounts,
		configs:   configs,
		results:   results,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
		throttle:  newLoginThrottle(config.MaxAttempts, config.AttemptWindow),
	}
}

// Login checks credentials. Rejections are reported through the status, not
// as errors.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return &models.LoginResponse{Status: models.StatusInvalidLogin}, nil
	}

	now := s.now()
	if s.throttle.blocked(req.Email, now) {
		s.logger.Warn("login throttled", zap.String("email", req.Email))
		return &models.LoginResponse{Status: models.StatusTooManyAttempts}, nil
	}

	account, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.throttle.fail(req.Email, now)
			s.logger.Info("invalid login attempt", zap.String("email", req.Email))
			return &models.LoginResponse{Status: models.StatusInvalidLogin}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		s.throttle.fail(req.Email, now)
		s.logger.Info("invalid password", zap.String("email", req.Email))
		return &models.LoginResponse{Status: models.StatusInvalidLogin}, nil
	}
	s.throttle.reset(req.Email)

	token, err := s.generateAccessToken(account)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.logger.Info("login succeeded", zap.String("user_id", account.ID))
	return &models.LoginResponse{Status: models.StatusOK, AuthToken: token, User: account.Public()}, nil
}

// Register creates an account with a disabled crawler and no results yet.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return &models.LoginResponse{Status: models.StatusInvalidInfo}, nil
	}

	if _, err := s.accounts.FindByEmail(ctx, req.Email); err == nil {
		return &models.LoginResponse{Status: models.StatusEmailInUse}, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	now := s.now().UTC()
	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, appErrors.ErrConflict) {
			return &models.LoginResponse{Status: models.StatusEmailInUse}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	cfg := &models.StoredCrawlerConfig{
		UserID:        account.ID,
		CrawlerConfig: models.CrawlerConfig{Status: false, NotificationEmail: account.Email},
		UpdatedAt:     now,
	}
	if err := s.configs.SaveConfig(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create crawler config")
	}
	if err := s.results.Save(ctx, &models.StoredResults{UserID: account.ID, LastUpdate: now}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create results")
	}

	token, err := s.generateAccessToken(account)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.logger.Info("registration succeeded", zap.String("user_id", account.ID))
	return &models.LoginResponse{Status: models.StatusOK, AuthToken: token, User: account.Public()}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid access token")
	}
	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid access token")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(account *models.Account) (string, error) {
	now := s.now().UTC()
	claims := models.AccessClaims{
		UserID: account.ID,
		Email:  account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

// loginThrottle counts failed logins per email over a sliding window.
type loginThrottle struct {
	max    int
	window time.Duration

	mu       sync.Mutex
	failures map[string][]time.Time
}

func newLoginThrottle(max int, window time.Duration) *loginThrottle {
	return &loginThrottle{max: max, window: window, failures: map[string][]time.Time{}}
}

func (t *loginThrottle) blocked(email string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.prune(strings.ToLower(email), now)) >= t.max
}

func (t *loginThrottle) fail(email string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := strings.ToLower(email)
	t.failures[key] = append(t.prune(key, now), now)
}

func (t *loginThrottle) reset(email string) {
	t.mu.Lock()
	delete(t.failures, strings.ToLower(email))
	t.mu.Unlock()
}

// prune drops failures older than the window. Callers hold mu.
func (t *loginThrottle) prune(key string, now time.Time) []time.Time {
	kept := t.failures[key][:0]
	for _, at := range t.failures[key] {
		if now.Sub(at) < t.window {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(t.failures, key)
		return nil
	}
	t.failures[key] = kept
	return kept
}
