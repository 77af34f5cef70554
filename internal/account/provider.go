package account

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/results-app/internal/models"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
)

// Authenticator is the part of the API client used to sign in.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error)
	SetAuthToken(token string)
}

// Provider signs users in and out and keeps the client's token in step with
// the account file.
type Provider struct {
	api       Authenticator
	store     *Store
	validator *validator.Validate
	logger    *zap.Logger
	apiBase   string
	now       func() time.Time
}

// NewProvider constructs a Provider. apiBase is recorded in the account file
// so a token is not replayed against another server.
func NewProvider(api Authenticator, store *Store, validate *validator.Validate, logger *zap.Logger, apiBase string) *Provider {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{api: api, store: store, validator: validate, logger: logger, apiBase: apiBase, now: time.Now}
}

// Bootstrap loads the saved account and hands its token to the client. It
// returns ErrNoAccount when nobody is signed in.
func (p *Provider) Bootstrap() (*File, error) {
	f, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	if f.APIBase != "" && p.apiBase != "" && !sameBase(f.APIBase, p.apiBase) {
		p.logger.Warn("saved account belongs to another server",
			zap.String("saved", f.APIBase), zap.String("current", p.apiBase))
		return nil, ErrNoAccount
	}
	p.api.SetAuthToken(f.AuthToken)
	return f, nil
}

// Login authenticates and persists the token.
func (p *Provider) Login(ctx context.Context, email, password string) (*File, error) {
	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := p.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	res, err := p.api.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return p.accept(req.Email, res)
}

// Register creates an account and signs in with it.
func (p *Provider) Register(ctx context.Context, req models.RegisterRequest) (*File, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := p.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	res, err := p.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return p.accept(req.Email, res)
}

// Logout forgets the token locally.
func (p *Provider) Logout() error {
	p.api.SetAuthToken("")
	return p.store.Clear()
}

func (p *Provider) accept(email string, res *models.LoginResponse) (*File, error) {
	if !res.OK() {
		return nil, StatusError(res.Status)
	}
	if res.AuthToken == "" {
		return nil, appErrors.Clone(appErrors.ErrDecode, "server accepted the login without a token")
	}
	f := &File{
		Email:     email,
		AuthToken: res.AuthToken,
		User:      res.User,
		APIBase:   p.apiBase,
		SavedAt:   p.now().UTC(),
	}
	if err := p.store.Save(f); err != nil {
		return nil, err
	}
	p.api.SetAuthToken(f.AuthToken)
	p.logger.Info("signed in", zap.String("email", email))
	return f, nil
}

// StatusError maps a rejected login or register status to a typed error.
func StatusError(status models.LoginStatus) error {
	switch status {
	case models.StatusOK:
		return nil
	case models.StatusInvalidLogin:
		return appErrors.Clone(appErrors.ErrInvalidCredentials, status.String())
	case models.StatusTooManyAttempts:
		return appErrors.Clone(appErrors.ErrTooManyAttempts, status.String())
	case models.StatusEmailInUse:
		return appErrors.Clone(appErrors.ErrConflict, status.String())
	case models.StatusInvalidInfo:
		return appErrors.Clone(appErrors.ErrValidation, status.String())
	default:
		return appErrors.Clone(appErrors.ErrUpstream, status.String())
	}
}

// IsSignedOut reports whether err means the user has to sign in again.
func IsSignedOut(err error) bool {
	if errors.Is(err, ErrNoAccount) {
		return true
	}
	var appErr *appErrors.Error
	return errors.As(err, &appErr) && appErr.Status == http.StatusUnauthorized
}

func sameBase(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
