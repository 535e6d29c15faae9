package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("42", "")
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	if u.DisplayName != "42" {
		t.Fatalf("empty display name should fall back to id, got %q", u.DisplayName)
	}

	if _, err := NewUser("", "x"); !errors.Is(err, ErrUserIDEmpty) {
		t.Fatalf("expected ErrUserIDEmpty, got %v", err)
	}
	if _, err := NewUser(UserID(strings.Repeat("a", MaxUserIDLen+1)), ""); !errors.Is(err, ErrUserIDTooLong) {
		t.Fatalf("expected ErrUserIDTooLong, got %v", err)
	}
	if _, err := NewUser("a", strings.Repeat("é", MaxDisplayNameLen)); err != nil {
		t.Fatalf("length is counted in runes: %v", err)
	}
	if _, err := NewUser("a", strings.Repeat("é", MaxDisplayNameLen+1)); !errors.Is(err, ErrDisplayNameTooLong) {
		t.Fatalf("expected ErrDisplayNameTooLong, got %v", err)
	}
}

func TestCallOther(t *testing.T) {
	c := Call{Initiator: User{ID: "a"}, Recipient: User{ID: "b"}}
	if c.Other("a").ID != "b" || c.Other("b").ID != "a" {
		t.Fatalf("other party mismatch")
	}
	if c.Participant("m") {
		t.Fatalf("m is not a participant")
	}
}
