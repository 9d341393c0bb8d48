package streamly

import (
	"context"

	"github.com/eshaffer321/streamly-go/internal/auth"
	"github.com/pkg/errors"
)

type (
	// RegisterRequest starts a sign-up
	RegisterRequest = auth.RegisterRequest

	// RegisterResult identifies the pending account
	RegisterResult = auth.RegisterResult
)

// authService implements the AuthService interface
type authService struct {
	client  *Client
	session *auth.Service
}

// Login authenticates with an email or username
func (s *authService) Login(ctx context.Context, identifier, password string, rememberMe bool) (*Session, error) {
	if identifier == "" || password == "" {
		return nil, &Error{Kind: KindValidation, Message: "identifier and password are required"}
	}
	session, err := s.session.Login(ctx, identifier, password, rememberMe)
	if err != nil {
		s.client.capture(ctx, "POST", ServiceAuth, "/api/auth/login", err)
		return nil, err
	}
	return session, nil
}

// Logout ends the session
func (s *authService) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

// Rehydrate restores a stored session
func (s *authService) Rehydrate(ctx context.Context) (*Session, error) {
	return s.session.Rehydrate(ctx)
}

// Current returns the stored session
func (s *authService) Current(ctx context.Context) (*Session, error) {
	return s.session.Current(ctx)
}

func (s *authService) IsAuthenticated(ctx context.Context) bool {
	return s.session.IsAuthenticated(ctx)
}

func (s *authService) HasRole(ctx context.Context, role Role) bool {
	return s.session.HasRole(ctx, role)
}

func (s *authService) IsAdminOrModerator(ctx context.Context) bool {
	return s.session.IsAdminOrModerator(ctx)
}

// UpdateUser replaces the stored user
func (s *authService) UpdateUser(ctx context.Context, user *UserProfile) error {
	return s.session.UpdateUser(ctx, user)
}

// RefreshIfNeeded returns a usable token
func (s *authService) RefreshIfNeeded(ctx context.Context) (string, error) {
	return s.session.RefreshIfNeeded(ctx)
}

// Register starts a sign-up
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {
	if req == nil {
		return nil, errors.New("register request is required")
	}
	return s.session.Register(ctx, *req)
}

// VerifyOTP completes a sign-up
func (s *authService) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	return s.session.VerifyOTP(ctx, email, otp)
}

// ForgotPassword requests a reset code
func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	return s.session.ForgotPassword(ctx, email)
}

// ResetPassword sets a new password
func (s *authService) ResetPassword(ctx context.Context, resetToken, newPassword string) (string, error) {
	return s.session.ResetPassword(ctx, resetToken, newPassword)
}
