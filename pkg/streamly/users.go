package streamly

import (
	"context"

	"github.com/pkg/errors"
)

// userService implements the UserService interface
type userService struct {
	client *Client
}

// Profile fetches the signed-in user's profile
func (s *userService) Profile(ctx context.Context) (*UserProfile, error) {
	var user UserProfile
	if err := s.client.Get(ctx, ServiceUser, "/api/users/profile", nil, &user); err != nil {
		return nil, errors.Wrap(err, "failed to get profile")
	}
	s.syncSession(ctx, &user)
	return &user, nil
}

// UpdateProfile changes profile fields
func (s *userService) UpdateProfile(ctx context.Context, update *ProfileUpdate) (*UserProfile, error) {
	var user UserProfile
	if err := s.client.Put(ctx, ServiceUser, "/api/users/profile", update, nil, &user); err != nil {
		return nil, errors.Wrap(err, "failed to update profile")
	}
	s.syncSession(ctx, &user)
	return &user, nil
}

// ChangePassword changes the account password
func (s *userService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	body := map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}
	if err := s.client.Post(ctx, ServiceUser, "/api/users/change-password", body, nil, nil); err != nil {
		return errors.Wrap(err, "failed to change password")
	}
	return nil
}

// Settings returns the account settings
func (s *userService) Settings(ctx context.Context) (*UserSettings, error) {
	var settings UserSettings
	if err := s.client.Get(ctx, ServiceUser, "/api/users/settings", nil, &settings); err != nil {
		return nil, errors.Wrap(err, "failed to get settings")
	}
	return &settings, nil
}

// UpdateSettings replaces the account settings
func (s *userService) UpdateSettings(ctx context.Context, settings *UserSettings) (*UserSettings, error) {
	var result UserSettings
	if err := s.client.Put(ctx, ServiceUser, "/api/users/settings", settings, nil, &result); err != nil {
		return nil, errors.Wrap(err, "failed to update settings")
	}
	return &result, nil
}

// Wallet returns the balance and transactions
func (s *userService) Wallet(ctx context.Context, page *PageQuery) (*WalletPage, error) {
	var wallet WalletPage
	if err := s.client.Get(ctx, ServiceUser, "/api/users/wallet", &RequestConfig{Params: page.values()}, &wallet); err != nil {
		return nil, errors.Wrap(err, "failed to get wallet")
	}
	return &wallet, nil
}

// ViewHistory returns watched movies
func (s *userService) ViewHistory(ctx context.Context, page *PageQuery) (*ViewHistory, error) {
	var history ViewHistory
	if err := s.client.Get(ctx, ServiceUser, "/api/users/view-history", &RequestConfig{Params: page.values()}, &history); err != nil {
		return nil, errors.Wrap(err, "failed to get view history")
	}
	return &history, nil
}

// ClearViewHistory removes all watch history
func (s *userService) ClearViewHistory(ctx context.Context) error {
	if err := s.client.Delete(ctx, ServiceUser, "/api/users/view-history", nil, nil); err != nil {
		return errors.Wrap(err, "failed to clear view history")
	}
	return nil
}

// UpgradePremium buys premium for duration days
func (s *userService) UpgradePremium(ctx context.Context, duration int, amount float64) (*UserProfile, error) {
	if duration <= 0 {
		return nil, &Error{Kind: KindValidation, Message: "duration must be positive"}
	}
	body := map[string]interface{}{
		"duration": duration,
		"amount":   amount,
	}
	var user UserProfile
	if err := s.client.Post(ctx, ServiceUser, "/api/users/premium/upgrade", body, nil, &user); err != nil {
		return nil, errors.Wrap(err, "failed to upgrade to premium")
	}
	s.syncSession(ctx, &user)
	return &user, nil
}

// syncSession keeps the stored user in step with the server copy. A missing
// session is not an error here; the request itself already succeeded.
func (s *userService) syncSession(ctx context.Context, user *UserProfile) {
	if !s.client.session.IsAuthenticated(ctx) {
		return
	}
	if err := s.client.session.UpdateUser(ctx, user); err != nil && s.client.options.Logger != nil {
		s.client.options.Logger.Warn("Failed to update stored user", "error", err)
	}
}
