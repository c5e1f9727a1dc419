package model

import "time"

// Subscription tiers stored on users.subscription_type.
const (
	SubscriptionFree    = "free"
	SubscriptionPremium = "premium"
	SubscriptionPro     = "pro"
)

// ValidSubscriptionType reports whether s is one of the known tiers.
func ValidSubscriptionType(s string) bool {
	switch s {
	case SubscriptionFree, SubscriptionPremium, SubscriptionPro:
		return true
	}
	return false
}

// User represents an application user record as stored in the `users`
// table. PasswordHash is never serialized; handlers expose users through
// this struct directly, relying on the `json:"-"` tag.
//
// IsPremium and SubscriptionType are independent columns set by the
// client. They are stored verbatim and can disagree (e.g. is_premium=true
// with subscription_type=free); nothing derives one from the other.
type User struct {
	ID               uint64    `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	IsPremium        bool      `json:"is_premium"`
	SubscriptionType string    `json:"subscription_type"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
