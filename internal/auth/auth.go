// Package auth talks to the authentication service and owns the local
// session: login, logout, token refresh and the stored user.
package auth

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/eshaffer321/streamly-go/internal/interceptor"
	"github.com/eshaffer321/streamly-go/internal/storage"
	"github.com/eshaffer321/streamly-go/internal/token"
	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const (
	loginEndpoint          = "/api/auth/login"
	logoutEndpoint         = "/api/auth/logout"
	refreshEndpoint        = "/api/auth/refresh"
	registerEndpoint       = "/api/auth/register"
	verifyOTPEndpoint      = "/api/auth/verify-otp"
	forgotPasswordEndpoint = "/api/auth/forgot-password"
	resetPasswordEndpoint  = "/api/auth/reset-password"

	// RefreshCookie is the httpOnly cookie the auth service sets on login
	RefreshCookie = "refreshToken"
)

// Doer sends a request through the interceptor chain
type Doer interface {
	Do(ctx context.Context, req *interceptor.Request, out interface{}) error
}

// Credentials for Login
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResult is the login payload
type LoginResult struct {
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken,omitempty"`
	User         *types.UserProfile `json:"user"`
}

// RegisterRequest starts a registration; the server emails an OTP
type RegisterRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// RegisterResult is returned by Register
type RegisterResult struct {
	UserID       string           `json:"userId"`
	Email        string           `json:"email"`
	OTPExpiresAt *types.Timestamp `json:"otpExpiresAt,omitempty"`
}

// VerifyOTPRequest completes a registration
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest sets a new password with a reset token
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// MessageResult is the {message} payload of the account flows
type MessageResult struct {
	Message string `json:"message"`
}

// Options for the auth service
type Options struct {
	Transport Doer
	Storage   *storage.Adapter
	Inspector *token.Inspector
	// Jar and AuthURL let the service see the refresh cookie
	Jar     http.CookieJar
	AuthURL string
	Logger  types.Logger
}

// Service handles authentication operations
type Service struct {
	transport Doer
	inspector *token.Inspector
	jar       http.CookieJar
	authURL   *url.URL
	logger    types.Logger
	refresh   singleflight.Group

	mu      sync.RWMutex
	storage *storage.Adapter
}

// NewService creates a new auth service
func NewService(opts Options) *Service {
	s := &Service{
		transport: opts.Transport,
		inspector: opts.Inspector,
		jar:       opts.Jar,
		logger:    opts.Logger,
		storage:   opts.Storage,
	}
	if s.inspector == nil {
		s.inspector = token.NewInspector(nil, 0)
	}
	if s.storage == nil {
		s.storage = storage.NewAdapter(nil, nil, storage.PolicySession, opts.Logger)
	}
	if opts.AuthURL != "" {
		if u, err := url.Parse(opts.AuthURL); err == nil {
			s.authURL = u
		}
	}
	return s
}

// Storage returns the adapter writes currently go through
func (s *Service) Storage() *storage.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage
}

func (s *Service) setPolicy(p storage.Policy) *storage.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storage = s.storage.WithPolicy(p)
	return s.storage
}

// Login authenticates and stores the session. With rememberMe the token and
// user go to the persistent tier, otherwise to the session tier only.
func (s *Service) Login(ctx context.Context, identifier, password string, rememberMe bool) (*types.Session, error) {
	var result LoginResult
	err := s.transport.Do(ctx, &interceptor.Request{
		Service: types.ServiceAuth,
		Method:  http.MethodPost,
		URL:     loginEndpoint,
		Body:    Credentials{Identifier: identifier, Password: password},
	}, &result)
	if err != nil {
		return nil, err
	}

	if result.AccessToken == "" {
		return nil, types.ErrEmptyToken
	}
	if result.User == nil {
		return nil, errors.New("login response has no user")
	}

	store := s.setPolicy(storage.PolicyFor(rememberMe))

	// A previous session in the other tier would shadow the new one
	if err := store.ClearAuth(ctx); err != nil {
		return nil, err
	}

	session := &types.Session{Token: result.AccessToken, User: result.User}
	if err := store.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	if result.RefreshToken != "" {
		if err := store.SetRefreshToken(ctx, result.RefreshToken); err != nil {
			return nil, err
		}
	}
	if err := store.SetRememberMe(ctx, rememberMe); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("Logged in", "user", result.User.Username, "storage", store.Policy().String())
	}

	return session, nil
}

// Logout tells the server to end the session and always clears local data.
// A failed server call is only logged.
func (s *Service) Logout(ctx context.Context) error {
	err := s.transport.Do(ctx, &interceptor.Request{
		Service: types.ServiceAuth,
		Method:  http.MethodPost,
		URL:     logoutEndpoint,
		Body:    struct{}{},
	}, nil)
	if err != nil && s.logger != nil {
		s.logger.Warn("Logout request failed", "error", err)
	}

	return s.Storage().ClearAuth(ctx)
}

// Rehydrate restores the session saved by an earlier process. Writes follow
// the recorded remember-me choice. An expired token is refreshed when
// possible; a session that cannot be restored is cleared and nil returned.
func (s *Service) Rehydrate(ctx context.Context) (*types.Session, error) {
	remember, err := s.Storage().GetRememberMe(ctx)
	if err != nil {
		return nil, err
	}
	store := s.setPolicy(storage.PolicyFor(remember))

	session, err := store.LoadSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}

	if !s.inspector.IsExpired(session.Token) {
		return session, nil
	}

	tok, err := s.RefreshIfNeeded(ctx)
	if err != nil || tok == "" || s.inspector.IsExpired(tok) {
		if s.logger != nil {
			s.logger.Info("Stored session expired", "error", err)
		}
		return nil, store.ClearAuth(ctx)
	}

	session.Token = tok
	return session, nil
}

// Current returns the stored session, or nil when logged out
func (s *Service) Current(ctx context.Context) (*types.Session, error) {
	return s.Storage().LoadSession(ctx)
}

// IsAuthenticated reports whether a token and user are stored
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	session, err := s.Current(ctx)
	return err == nil && session.Valid()
}

// HasRole reports whether the stored user has role
func (s *Service) HasRole(ctx context.Context, role types.Role) bool {
	session, err := s.Current(ctx)
	if err != nil || !session.Valid() {
		return false
	}
	return session.User.Role == role
}

// IsAdminOrModerator reports whether the stored user may moderate
func (s *Service) IsAdminOrModerator(ctx context.Context) bool {
	return s.HasRole(ctx, types.RoleAdmin) || s.HasRole(ctx, types.RoleModerator)
}

// UpdateUser replaces the stored user, e.g. after a profile edit
func (s *Service) UpdateUser(ctx context.Context, user *types.UserProfile) error {
	if user == nil {
		return errors.New("user is required")
	}
	store := s.Storage()
	tok, err := store.GetToken(ctx)
	if err != nil {
		return err
	}
	if tok == "" {
		return types.ErrNotAuthenticated
	}
	return store.SetUser(ctx, user)
}

// RefreshIfNeeded returns a usable access token, refreshing it first when it
// is missing or expires soon and a refresh credential exists. Concurrent
// callers share one refresh. A failed refresh clears the session.
func (s *Service) RefreshIfNeeded(ctx context.Context) (string, error) {
	tok, err := s.Storage().GetToken(ctx)
	if err != nil {
		return "", err
	}
	if tok != "" && !s.inspector.IsExpiringSoon(tok) {
		return tok, nil
	}

	ok, err := s.hasRefreshCredential(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return tok, nil
	}

	return s.Refresh(ctx)
}

// Refresh exchanges the refresh credential for a new access token.
// Concurrent callers share one request.
func (s *Service) Refresh(ctx context.Context) (string, error) {
	v, err, _ := s.refresh.Do("refresh", func() (interface{}, error) {
		tok, err := s.doRefresh(ctx)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("Token refresh failed", "error", err)
			}
			if clearErr := s.Storage().ClearAuth(ctx); clearErr != nil && s.logger != nil {
				s.logger.Error("Failed to clear session after refresh failure", "error", clearErr)
			}
			return "", err
		}
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Service) doRefresh(ctx context.Context) (string, error) {
	store := s.Storage()

	// A token is only stored alongside a user; a cleared session stays cleared
	user, err := store.GetUser(ctx)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", types.ErrNotAuthenticated
	}

	req := &interceptor.Request{
		Service: types.ServiceAuth,
		Method:  http.MethodPost,
		URL:     refreshEndpoint,
		Header:  http.Header{},
	}

	// The refresh token travels as a cookie, never in the body
	if !s.hasRefreshCookie() {
		stored, err := store.GetRefreshToken(ctx)
		if err != nil {
			return "", err
		}
		if stored == "" {
			return "", types.ErrNoRefreshToken
		}
		req.Header.Set("Cookie", (&http.Cookie{Name: RefreshCookie, Value: stored}).String())
	}

	var result LoginResult
	if err := s.transport.Do(ctx, req, &result); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", types.ErrEmptyToken
	}

	if err := store.SetToken(ctx, result.AccessToken); err != nil {
		return "", err
	}
	if result.RefreshToken != "" {
		if err := store.SetRefreshToken(ctx, result.RefreshToken); err != nil {
			return "", err
		}
	}
	return result.AccessToken, nil
}

func (s *Service) hasRefreshCredential(ctx context.Context) (bool, error) {
	if s.hasRefreshCookie() {
		return true, nil
	}
	stored, err := s.Storage().GetRefreshToken(ctx)
	return stored != "", err
}

func (s *Service) hasRefreshCookie() bool {
	if s.jar == nil || s.authURL == nil {
		return false
	}
	for _, c := range s.jar.Cookies(s.authURL.ResolveReference(&url.URL{Path: refreshEndpoint})) {
		if c.Name == RefreshCookie && c.Value != "" {
			return true
		}
	}
	return false
}

// Register starts a new account; the server emails a one-time code
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	var result RegisterResult
	if err := s.post(ctx, registerEndpoint, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyOTP completes a registration with the emailed code
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	return s.message(ctx, verifyOTPEndpoint, VerifyOTPRequest{Email: email, OTP: otp})
}

// ForgotPassword asks the server to email a reset code
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	return s.message(ctx, forgotPasswordEndpoint, map[string]string{"email": email})
}

// ResetPassword sets a new password using a reset token
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) (string, error) {
	return s.message(ctx, resetPasswordEndpoint, ResetPasswordRequest{Token: resetToken, NewPassword: newPassword})
}

func (s *Service) message(ctx context.Context, path string, body interface{}) (string, error) {
	var result MessageResult
	if err := s.post(ctx, path, body, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

func (s *Service) post(ctx context.Context, path string, body, out interface{}) error {
	return s.transport.Do(ctx, &interceptor.Request{
		Service: types.ServiceAuth,
		Method:  http.MethodPost,
		URL:     path,
		Body:    body,
	}, out)
}
