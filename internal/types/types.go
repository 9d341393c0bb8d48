package types

import (
	"context"
	"net/http"
	"time"
)

// Role is a user's platform role
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Wallet is the balance block some endpoints embed in the profile
type Wallet struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency,omitempty"`
}

// UserProfile is the user record owned by the session
type UserProfile struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	FullName         string     `json:"fullName,omitempty"`
	DisplayName      string     `json:"displayName,omitempty"`
	Avatar           string     `json:"avatar,omitempty"`
	Role             Role       `json:"role"`
	IsPremium        bool       `json:"isPremium"`
	PremiumExpiresAt *Timestamp `json:"premiumExpiresAt,omitempty"`
	WalletBalance    *float64   `json:"walletBalance,omitempty"`
	Wallet           *Wallet    `json:"wallet,omitempty"`
}

// Balance returns the wallet balance from whichever field the backend filled
func (u *UserProfile) Balance() float64 {
	if u.WalletBalance != nil {
		return *u.WalletBalance
	}
	if u.Wallet != nil {
		return u.Wallet.Balance
	}
	return 0
}

// Session pairs an access token with the user it belongs to.
// Token and User are always set or cleared together.
type Session struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}

// Valid reports whether both halves of the session are present
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User != nil
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RetryConfig configures GetWithRetry
type RetryConfig struct {
	MaxRetries   int           `json:"maxRetries"`
	InitialDelay time.Duration `json:"initialDelay"`
}

// Hooks provides lifecycle hooks for requests
type Hooks struct {
	OnRequest  func(ctx context.Context, req *http.Request)
	OnResponse func(ctx context.Context, resp *http.Response, duration time.Duration)
	OnError    func(ctx context.Context, err error)
}
