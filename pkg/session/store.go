package session

import (
	"context"
	"net/http"
	"time"

	"bank-console/pkg/view"
)

// Record is what survives a console restart: enough to rebuild a session
// and keep talking to the backend on the user's behalf. View state is not
// stored; a restored session reloads it.
type Record struct {
	ID        string            `json:"id"`
	Role      view.Role         `json:"role"`
	Cookies   map[string]string `json:"cookies"`
	CreatedAt time.Time         `json:"created_at"`
}

// HTTPCookies returns the backend cookies to forward.
func (r Record) HTTPCookies() []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(r.Cookies))
	for name, value := range r.Cookies {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}

// Store persists session records with a sliding TTL.
type Store interface {
	Save(ctx context.Context, rec Record, ttl time.Duration) error
	// Load returns ErrSessionNotFound for unknown or expired ids.
	Load(ctx context.Context, id string) (Record, error)
	// Touch extends the record's lifetime by ttl from now.
	Touch(ctx context.Context, id string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Name() string
	Close() error
}
