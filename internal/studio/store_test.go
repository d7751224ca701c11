package studio

import (
	"testing"
	"time"

	"decko/internal/content"
)

func TestStoreGet(t *testing.T) {
	created := 0
	store := NewStore(time.Hour, func() *Session {
		created++
		return NewSession(&mockModels{}, nil, content.DefaultImageConfig())
	})

	id, first, isNew := store.Get("")
	if !isNew || id == "" || first == nil {
		t.Fatalf("Get(\"\") = %q, %v, %v", id, first, isNew)
	}

	sameID, again, isNew := store.Get(id)
	if isNew || sameID != id || again != first {
		t.Error("Get() with a known id should return the same session")
	}

	otherID, other, isNew := store.Get("unknown-id")
	if !isNew || otherID == "unknown-id" || other == first {
		t.Error("Get() with an unknown id should create a session under a fresh id")
	}

	if created != 2 {
		t.Errorf("factory called %d times, want 2", created)
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
}

func TestStoreIsolation(t *testing.T) {
	store := NewStore(time.Hour, func() *Session {
		return NewSession(&mockModels{}, nil, content.DefaultImageConfig())
	})

	_, a, _ := store.Get("")
	_, b, _ := store.Get("")
	a.SetImagePrompt("only in a")

	if b.Snapshot().ImagePrompt != "" {
		t.Error("sessions should not share state")
	}
}
