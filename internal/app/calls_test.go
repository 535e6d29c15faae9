package app

import (
	"testing"
	"time"

	"github.com/dkeye/Telecall/internal/domain"
)

func newCall(id, from, to string) *domain.Call {
	return &domain.Call{
		ID:        domain.CallID(id),
		Initiator: domain.User{ID: domain.UserID(from)},
		Recipient: domain.User{ID: domain.UserID(to)},
		State:     domain.CallRinging,
		CreatedAt: time.Now(),
	}
}

func TestCallTableInsertRefusesTakenKeys(t *testing.T) {
	tbl := NewCallTable()
	if !tbl.Insert(newCall("s1", "a", "b")) {
		t.Fatalf("insert failed")
	}
	for _, c := range []*domain.Call{
		newCall("s1", "x", "y"),
		newCall("s2", "a", "y"),
		newCall("s3", "x", "b"),
	} {
		if tbl.Insert(c) {
			t.Fatalf("insert of %s should be refused", c.ID)
		}
	}
	if tbl.Len() != 1 || tbl.Busy("x") || tbl.Busy("y") {
		t.Fatalf("refused inserts must leave the table unchanged")
	}
}

func TestCallTableRemoveIsPaired(t *testing.T) {
	tbl := NewCallTable()
	c := newCall("s1", "a", "b")
	tbl.Insert(c)

	if _, ok := tbl.Lookup("s1", "m"); ok {
		t.Fatalf("lookup by outsider must miss")
	}
	if got, ok := tbl.Lookup("s1", "b"); !ok || got != c {
		t.Fatalf("lookup by participant must hit")
	}

	if !tbl.Remove(c) {
		t.Fatalf("remove failed")
	}
	if tbl.Busy("a") || tbl.Busy("b") || tbl.Exists("s1") {
		t.Fatalf("remove must clear all three entries")
	}
	if tbl.Remove(c) {
		t.Fatalf("second remove must be a no-op")
	}

	// A stale record must not remove its successor.
	next := newCall("s1", "a", "b")
	tbl.Insert(next)
	if tbl.Remove(c) {
		t.Fatalf("stale record removed a live call")
	}
	if !tbl.Exists("s1") {
		t.Fatalf("successor should survive")
	}
}

func TestCallTableSnapshotOrder(t *testing.T) {
	tbl := NewCallTable()
	first := newCall("s2", "a", "b")
	second := newCall("s1", "c", "d")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	tbl.Insert(second)
	tbl.Insert(first)

	snap := tbl.Snapshot()
	if len(snap) != 2 || snap[0].ID != "s2" || snap[1].ID != "s1" {
		t.Fatalf("unexpected order: %+v", snap)
	}
	snap[0].State = domain.CallActive
	if first.State != domain.CallRinging {
		t.Fatalf("snapshot must copy records")
	}
}
