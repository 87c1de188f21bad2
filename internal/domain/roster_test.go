package domain

import (
	"errors"
	"testing"
)

func TestRosterAuthenticate(t *testing.T) {
	roster := NewRoster([]RosterEntry{
		{User: User{ID: "mum", Name: "Mum", IsAdmin: true}, Passcode: "1234"},
		{User: User{ID: "kid", Name: "Kid"}, Passcode: "ignored"},
	})

	if _, err := roster.Authenticate("mum", "1234"); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if _, err := roster.Authenticate("mum", "0000"); !errors.Is(err, ErrBadPasscode) {
		t.Fatalf("expected bad passcode, got %v", err)
	}
	if u, err := roster.Authenticate("kid", ""); err != nil || u.Name != "Kid" {
		t.Fatalf("player login: %v", err)
	}
	if _, err := roster.Authenticate("ghost", ""); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected unknown user, got %v", err)
	}
	if len(roster.Users()) != 2 {
		t.Fatalf("expected 2 users")
	}
}
