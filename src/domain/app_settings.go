package domain

import "time"

// AppSettings is the singleton row carrying the DNS provider
// credentials. The DNS services read it on every provider call so a
// key rotation needs no restart.
type AppSettings struct {
	ID             int       `json:"id"`
	ProviderAPIKey string    `json:"provider_api_key" db:"provider_api_key"`
	ProviderEmail  string    `json:"provider_email" db:"provider_email"`
	Created        time.Time `json:"created"`
	Updated        time.Time `json:"updated"`
}
