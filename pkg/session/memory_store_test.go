package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"bank-console/pkg/view"
)

func TestMemoryStore_SaveLoad(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	rec := Record{ID: "abc", Role: view.RoleAdmin, Cookies: map[string]string{"session": "tok"}}
	if err := s.Save(ctx, rec, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Role != view.RoleAdmin || got.Cookies["session"] != "tok" {
		t.Errorf("Unexpected record %+v", got)
	}

	s.Delete(ctx, "abc")
	if _, err := s.Load(ctx, "abc"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	s.Save(ctx, Record{ID: "a"}, time.Minute)
	s.Save(ctx, Record{ID: "b"}, time.Minute)

	now = now.Add(50 * time.Second)
	if err := s.Touch(ctx, "a", time.Minute); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	now = now.Add(30 * time.Second)
	if _, err := s.Load(ctx, "a"); err != nil {
		t.Errorf("Expected touched record alive, got %v", err)
	}
	if _, err := s.Load(ctx, "b"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected untouched record expired, got %v", err)
	}
	if err := s.Touch(ctx, "b", time.Minute); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected Touch of expired record to fail, got %v", err)
	}

	now = now.Add(time.Hour)
	s.removeExpired()
	if s.Len() != 0 {
		t.Errorf("Expected cleanup to remove expired records, %d left", s.Len())
	}
}

func TestRecord_HTTPCookies(t *testing.T) {
	rec := Record{Cookies: map[string]string{"session": "tok"}}
	cookies := rec.HTTPCookies()
	if len(cookies) != 1 || cookies[0].Name != "session" || cookies[0].Value != "tok" {
		t.Errorf("Unexpected cookies %+v", cookies)
	}
}
