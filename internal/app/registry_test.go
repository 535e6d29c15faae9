package app

import (
	"testing"

	"github.com/dkeye/Telecall/internal/domain"
)

func TestRegistrySupersedes(t *testing.T) {
	r := NewRegistry()
	u := domain.User{ID: "a", DisplayName: "A"}
	p1, p2 := newPeer("c1"), newPeer("c2")

	if _, replaced := r.Register(u, p1); replaced {
		t.Fatalf("first register must not replace")
	}
	prev, replaced := r.Register(u, p2)
	if !replaced || prev != p1 {
		t.Fatalf("expected p1 superseded, got %v %v", prev, replaced)
	}
	if got, _ := r.Resolve("a"); got != p2 {
		t.Fatalf("resolve should return newest connection")
	}
	if _, ok := r.UserOf("c1"); ok {
		t.Fatalf("superseded connection keeps no identity")
	}
	if _, ok := r.Unregister("a", "c1"); ok {
		t.Fatalf("superseded connection must not unregister the user")
	}
	if r.Len() != 1 {
		t.Fatalf("expected one entry, got %d", r.Len())
	}
	if _, ok := r.Unregister("a", "c2"); !ok {
		t.Fatalf("owner should unregister")
	}
	if _, ok := r.Unregister("a", "c2"); ok {
		t.Fatalf("second unregister must be a no-op")
	}
}

func TestRegistrySameConnectionReRegisters(t *testing.T) {
	r := NewRegistry()
	p := newPeer("c1")
	r.Register(domain.User{ID: "a", DisplayName: "old"}, p)
	if _, replaced := r.Register(domain.User{ID: "a", DisplayName: "new"}, p); replaced {
		t.Fatalf("same connection is not a replacement")
	}
	u, ok := r.UserOf("c1")
	if !ok || u.DisplayName != "new" {
		t.Fatalf("display name should update, got %+v", u)
	}
}

func TestRegistryOthersSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []domain.UserID{"c", "a", "b"} {
		r.Register(domain.User{ID: id, DisplayName: string(id)}, newPeer("conn-"+string(id)))
	}
	others := r.Others("b")
	if len(others) != 2 || others[0].UserID != "a" || others[1].UserID != "c" {
		t.Fatalf("unexpected others: %+v", others)
	}
	if peers := r.Peers("a"); len(peers) != 2 {
		t.Fatalf("expected two peers, got %d", len(peers))
	}
}
