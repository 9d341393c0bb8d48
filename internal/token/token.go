// Package token reads claims out of access tokens without verifying them.
// The backends verify signatures; the client only needs the expiry to decide
// when to refresh.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// Inspector answers expiry questions against a clock
type Inspector struct {
	clock     clockwork.Clock
	threshold time.Duration
	parser    *jwt.Parser
}

// NewInspector creates an inspector. A zero threshold uses five minutes.
func NewInspector(clock clockwork.Clock, threshold time.Duration) *Inspector {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if threshold <= 0 {
		threshold = 5 * time.Minute
	}
	return &Inspector{
		clock:     clock,
		threshold: threshold,
		parser:    jwt.NewParser(),
	}
}

// Decode returns the token's claims, or nil for anything that is not a
// well-formed three segment token with a JSON payload
func (i *Inspector) Decode(token string) jwt.MapClaims {
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := i.parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

// Expiry returns the exp claim. ok is false when the claim is missing or unreadable.
func (i *Inspector) Expiry(token string) (time.Time, bool) {
	claims := i.Decode(token)
	if claims == nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsExpired fails closed: no token or no exp claim counts as expired
func (i *Inspector) IsExpired(token string) bool {
	exp, ok := i.Expiry(token)
	if !ok {
		return true
	}
	return exp.Before(i.clock.Now())
}

// IsExpiringSoon reports whether exp falls inside the default lookahead window
func (i *Inspector) IsExpiringSoon(token string) bool {
	return i.IsExpiringWithin(token, i.threshold)
}

// IsExpiringWithin reports whether exp falls before now+threshold
func (i *Inspector) IsExpiringWithin(token string, threshold time.Duration) bool {
	exp, ok := i.Expiry(token)
	if !ok {
		return true
	}
	return exp.Before(i.clock.Now().Add(threshold))
}
