package domain

import "time"

// User is the durable local identity record. The pair (Provider, ProviderID) is
// the sole identity key; email is deliberately not unique because the same
// person may authenticate through more than one provider.
type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Provider   string    `json:"provider"`
	ProviderID string    `json:"provider_id"`
	AvatarURL  string    `json:"avatar_url"`
	FirstLogin time.Time `json:"first_login"`
	LastLogin  time.Time `json:"last_login"`
	LoginCount int       `json:"login_count"`
}

// Draft is a normalized, provider-agnostic identity extracted from a provider
// profile, not yet persisted. Provider and ProviderID are required; every other
// field may legitimately be empty (GitHub private email, for example).
type Draft struct {
	Email      string
	Name       string
	Provider   string
	ProviderID string
	AvatarURL  string
}

// SessionDescriptor is the minimal identity reference stored server-side for a
// browser session. The full user record is re-fetched per request so the cookie
// never serves stale profile data.
type SessionDescriptor struct {
	ID         int64  `json:"id"`
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
}
