package storage

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/pkg/errors"
)

// Keys used in both tiers
const (
	KeyAuthToken    = "auth_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyTheme        = "theme"
	KeyLanguage     = "language"
	KeyRememberMe   = "remember_me"
)

var allKeys = []string{KeyAuthToken, KeyRefreshToken, KeyUser, KeyTheme, KeyLanguage, KeyRememberMe}

// Policy selects which tier session writes go to
type Policy int

const (
	// PolicySession writes to the session-scoped tier
	PolicySession Policy = iota
	// PolicyPersistent writes to the persistent tier ("remember me")
	PolicyPersistent
)

func (p Policy) String() string {
	if p == PolicyPersistent {
		return "persistent"
	}
	return "session"
}

// PolicyFor maps a remember-me choice to a policy
func PolicyFor(rememberMe bool) Policy {
	if rememberMe {
		return PolicyPersistent
	}
	return PolicySession
}

// Adapter reads and writes session data across the two tiers. Writes go to
// the tier picked by the policy given at construction; reads check the
// persistent tier first, then the session tier.
type Adapter struct {
	persistent Store
	session    Store
	policy     Policy
	logger     types.Logger
}

// NewAdapter creates an adapter over the two tiers
func NewAdapter(persistent, session Store, policy Policy, logger types.Logger) *Adapter {
	if persistent == nil {
		persistent = NewMemoryStore()
	}
	if session == nil {
		session = NewMemoryStore()
	}
	return &Adapter{
		persistent: persistent,
		session:    session,
		policy:     policy,
		logger:     logger,
	}
}

// WithPolicy returns an adapter over the same stores writing under p
func (a *Adapter) WithPolicy(p Policy) *Adapter {
	clone := *a
	clone.policy = p
	return &clone
}

// Policy returns the write policy
func (a *Adapter) Policy() Policy {
	return a.policy
}

func (a *Adapter) target() Store {
	if a.policy == PolicyPersistent {
		return a.persistent
	}
	return a.session
}

// lookup returns the first hit, persistent tier first
func (a *Adapter) lookup(ctx context.Context, key string) (string, bool, error) {
	for _, s := range []Store{a.persistent, a.session} {
		v, ok, err := s.Get(ctx, key)
		if err != nil {
			return "", false, errors.Wrapf(err, "failed to read %s", key)
		}
		if ok && v != "" {
			return v, true, nil
		}
	}
	return "", false, nil
}

func (a *Adapter) removeEverywhere(ctx context.Context, keys ...string) error {
	if err := a.persistent.Delete(ctx, keys...); err != nil {
		return errors.Wrap(err, "failed to delete from persistent store")
	}
	if err := a.session.Delete(ctx, keys...); err != nil {
		return errors.Wrap(err, "failed to delete from session store")
	}
	return nil
}

// SetToken stores the access token
func (a *Adapter) SetToken(ctx context.Context, token string) error {
	return errors.Wrap(a.target().Set(ctx, KeyAuthToken, token), "failed to store token")
}

// GetToken returns the access token, or "" when there is none
func (a *Adapter) GetToken(ctx context.Context) (string, error) {
	v, _, err := a.lookup(ctx, KeyAuthToken)
	return v, err
}

// RemoveToken deletes the access token from both tiers
func (a *Adapter) RemoveToken(ctx context.Context) error {
	return a.removeEverywhere(ctx, KeyAuthToken)
}

// SetRefreshToken stores the refresh token. It always goes to the persistent tier.
func (a *Adapter) SetRefreshToken(ctx context.Context, token string) error {
	return errors.Wrap(a.persistent.Set(ctx, KeyRefreshToken, token), "failed to store refresh token")
}

// GetRefreshToken returns the refresh token, or ""
func (a *Adapter) GetRefreshToken(ctx context.Context) (string, error) {
	v, _, err := a.lookup(ctx, KeyRefreshToken)
	return v, err
}

// SetUser stores the user profile as JSON
func (a *Adapter) SetUser(ctx context.Context, user *types.UserProfile) error {
	if user == nil {
		return a.RemoveUser(ctx)
	}
	encoded, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "failed to encode user")
	}
	return errors.Wrap(a.target().Set(ctx, KeyUser, string(encoded)), "failed to store user")
}

// GetUser returns the stored profile. Corrupted data is purged and reported
// as absent rather than as an error.
func (a *Adapter) GetUser(ctx context.Context) (*types.UserProfile, error) {
	raw, ok, err := a.lookup(ctx, KeyUser)
	if err != nil || !ok {
		return nil, err
	}
	if raw == "undefined" || raw == "null" {
		return nil, nil
	}

	var user types.UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		if a.logger != nil {
			a.logger.Warn("Purging corrupted user entry", "error", err)
		}
		if rmErr := a.RemoveUser(ctx); rmErr != nil {
			return nil, rmErr
		}
		return nil, nil
	}
	return &user, nil
}

// RemoveUser deletes the user from both tiers
func (a *Adapter) RemoveUser(ctx context.Context) error {
	return a.removeEverywhere(ctx, KeyUser)
}

// SaveSession writes token and user together
func (a *Adapter) SaveSession(ctx context.Context, s *types.Session) error {
	if !s.Valid() {
		return errors.New("session needs both token and user")
	}
	if err := a.SetToken(ctx, s.Token); err != nil {
		return err
	}
	if err := a.SetUser(ctx, s.User); err != nil {
		_ = a.RemoveToken(ctx)
		return err
	}
	return nil
}

// LoadSession returns the stored session, or nil unless both token and user are present
func (a *Adapter) LoadSession(ctx context.Context) (*types.Session, error) {
	tok, err := a.GetToken(ctx)
	if err != nil {
		return nil, err
	}
	user, err := a.GetUser(ctx)
	if err != nil {
		return nil, err
	}

	s := &types.Session{Token: tok, User: user}
	if !s.Valid() {
		return nil, nil
	}
	return s, nil
}

// ClearAuth removes token, refresh token and user from both tiers and
// empties the session tier. Safe to call repeatedly.
func (a *Adapter) ClearAuth(ctx context.Context) error {
	if err := a.removeEverywhere(ctx, KeyAuthToken, KeyRefreshToken, KeyUser); err != nil {
		return err
	}
	return errors.Wrap(a.session.Clear(ctx), "failed to clear session store")
}

// SetRememberMe records the remember-me preference in the persistent tier
func (a *Adapter) SetRememberMe(ctx context.Context, remember bool) error {
	return errors.Wrap(a.persistent.Set(ctx, KeyRememberMe, strconv.FormatBool(remember)), "failed to store remember-me")
}

// GetRememberMe returns the recorded preference, false when unset
func (a *Adapter) GetRememberMe(ctx context.Context) (bool, error) {
	v, ok, err := a.persistent.Get(ctx, KeyRememberMe)
	if err != nil || !ok {
		return false, err
	}
	return v == "true", nil
}

// SetTheme stores the UI theme ("light" or "dark")
func (a *Adapter) SetTheme(ctx context.Context, theme string) error {
	return a.persistent.Set(ctx, KeyTheme, theme)
}

// GetTheme returns the stored theme or ""
func (a *Adapter) GetTheme(ctx context.Context) (string, error) {
	v, _, err := a.persistent.Get(ctx, KeyTheme)
	return v, err
}

// SetLanguage stores the preferred language
func (a *Adapter) SetLanguage(ctx context.Context, lang string) error {
	return a.persistent.Set(ctx, KeyLanguage, lang)
}

// GetLanguage returns the preferred language or ""
func (a *Adapter) GetLanguage(ctx context.Context) (string, error) {
	v, _, err := a.persistent.Get(ctx, KeyLanguage)
	return v, err
}

// ClearAll removes every known key from the persistent tier
func (a *Adapter) ClearAll(ctx context.Context) error {
	return a.persistent.Delete(ctx, allKeys...)
}

// RecordedPolicy reads the remember-me preference once, for use at process
// start when building the adapter
func RecordedPolicy(ctx context.Context, persistent Store) Policy {
	v, ok, err := persistent.Get(ctx, KeyRememberMe)
	if err != nil || !ok {
		return PolicySession
	}
	return PolicyFor(v == "true")
}
