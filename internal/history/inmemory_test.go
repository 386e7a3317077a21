package history

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	s := NewInMemoryStore()
	got, err := s.Append(context.Background(), Turn{
		ConversationID: "c1",
		UserID:         1,
		Role:           RoleUser,
		Text:           "hello",
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got.ID == "" {
		t.Fatalf("Append() should assign a turn ID")
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("Append() should assign CreatedAt")
	}
}

func TestLoadReturnsChronologicalOrder(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if _, err := s.Append(ctx, Turn{ConversationID: "c1", UserID: 1, Role: role, Text: fmt.Sprintf("turn %d", i+1)}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	turns, err := s.Load(ctx, "c1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(turns) != 5 {
		t.Fatalf("Load() returned %d turns, want 5", len(turns))
	}
	for i, turn := range turns {
		want := fmt.Sprintf("turn %d", i+1)
		if turn.Text != want {
			t.Fatalf("turns[%d].Text = %q, want %q", i, turn.Text, want)
		}
	}
}

func TestLoadIsIdempotentWithoutWrites(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, Turn{ConversationID: "c1", UserID: 1, Role: RoleUser, Text: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	first, err := s.Load(ctx, "c1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, err := s.Load(ctx, "c1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("repeated Load() lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("repeated Load() differs at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLoadUnknownConversationIsEmpty(t *testing.T) {
	s := NewInMemoryStore()
	turns, err := s.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("Load() returned %d turns for unknown conversation, want 0", len(turns))
	}
}

func TestConcurrentAppendsAllRecorded(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := s.Append(ctx, Turn{ConversationID: "c1", UserID: 1, Role: RoleUser, Text: fmt.Sprintf("m%d", n)}); err != nil {
				t.Errorf("Append() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	turns, err := s.Load(ctx, "c1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(turns) != 20 {
		t.Fatalf("Load() returned %d turns, want 20", len(turns))
	}
}

func TestFactorySelectsInMemoryWithoutDatabaseURL(t *testing.T) {
	s, err := NewStore(context.Background(), "  ")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, ok := s.(*InMemoryStore); !ok {
		t.Fatalf("NewStore() = %T, want *InMemoryStore", s)
	}
}
