package bubblekit

import (
	"errors"
	"testing"
)

func TestConversationIndexPreservesOrder(t *testing.T) {
	index := NewConversationIndex()
	// Deliberately not sorted by UpdatedAt: the list comes back exactly
	// as set, ordering is the application's choice.
	summaries := []Summary{
		{ID: "c1", Title: "First", UpdatedAt: 100},
		{ID: "c2", Title: "Second", UpdatedAt: 300},
		{ID: "c3", Title: "Third", UpdatedAt: 200},
	}
	if err := index.Set("u1", summaries); err != nil {
		t.Fatalf("set: %v", err)
	}

	list := index.Get("u1")
	if len(list) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(list))
	}
	for i, want := range summaries {
		if list[i] != want {
			t.Errorf("entry %d = %+v, want %+v", i, list[i], want)
		}
	}
}

func TestConversationIndexValidation(t *testing.T) {
	index := NewConversationIndex()

	if err := index.Set("u1", []Summary{{ID: " ", UpdatedAt: 1}}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("blank id: expected ErrInvalidConfig, got %v", err)
	}
	if err := index.Set("u1", []Summary{{ID: "c1", UpdatedAt: -5}}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative updatedAt: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewSummary("", "t", 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewSummary blank id: expected ErrInvalidConfig, got %v", err)
	}
	if s, err := NewSummary("c1", "Chat", 42); err != nil || s.ID != "c1" {
		t.Errorf("NewSummary valid entry: %+v, %v", s, err)
	}
}

func TestConversationIndexSnapshots(t *testing.T) {
	index := NewConversationIndex()
	if err := index.Set("u1", []Summary{{ID: "c1", Title: "Chat", UpdatedAt: 1}}); err != nil {
		t.Fatalf("set: %v", err)
	}

	list := index.Get("u1")
	list[0].Title = "mutated"
	if index.Get("u1")[0].Title != "Chat" {
		t.Fatal("returned slice aliases the stored list")
	}
}

func TestNormalizeUserID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "anonymous"},
		{"   ", "anonymous"},
		{" bob ", "bob"},
		{"alice", "alice"},
	}
	for _, tc := range cases {
		if got := NormalizeUserID(tc.in); got != tc.want {
			t.Errorf("NormalizeUserID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestConversationIndexPerUser(t *testing.T) {
	index := NewConversationIndex()
	if err := index.Set("u1", []Summary{{ID: "c1", UpdatedAt: 1}}); err != nil {
		t.Fatalf("set: %v", err)
	}

	if got := index.Get("u2"); len(got) != 0 {
		t.Fatalf("unknown user should get empty list, got %+v", got)
	}
	// Blank ids share the anonymous bucket.
	if err := index.Set("  ", []Summary{{ID: "c2", UpdatedAt: 1}}); err != nil {
		t.Fatalf("set anonymous: %v", err)
	}
	if got := index.Get(""); len(got) != 1 || got[0].ID != "c2" {
		t.Fatalf("anonymous bucket mismatch: %+v", got)
	}
}
