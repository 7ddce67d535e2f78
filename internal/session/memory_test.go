package session

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"talespin/internal/save"
	"talespin/internal/story"
)

func saveAt(t *testing.T, node string, gold int) []byte {
	t.Helper()
	st := story.NewGameState()
	st.Stats["gold"] = gold
	b, err := save.Marshal(save.Record{
		StoryTitle:  "Test Road",
		CurrentNode: node,
		GameState:   st,
		Timestamp:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Visited:     []string{"start", node},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return b
}

func decodeSlot(t *testing.T, b []byte) save.Record {
	t.Helper()
	rec, err := save.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return rec
}

func TestMemoryStore_SaveSlots(t *testing.T) {
	store := NewMemoryStore[[]byte]()
	ctx := context.Background()
	slot := store.NewID()

	if err := store.Put(ctx, slot, saveAt(t, "forest", 3)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	b, ok, err := store.Get(ctx, slot)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if rec := decodeSlot(t, b); rec.CurrentNode != "forest" || rec.GameState.Stats["gold"] != 3 {
		t.Errorf("Unexpected record %+v", rec)
	}

	if _, ok, err := store.Get(ctx, store.NewID()); err != nil || ok {
		t.Errorf("Expected unknown slot to be missing, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStore_OverwriteSlot(t *testing.T) {
	store := NewMemoryStore[[]byte]()
	ctx := context.Background()

	if err := store.Put(ctx, "quick", saveAt(t, "forest", 1)); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(ctx, "quick", saveAt(t, "bridge", 9)); err != nil {
		t.Fatal(err)
	}
	b, _, _ := store.Get(ctx, "quick")
	if rec := decodeSlot(t, b); rec.CurrentNode != "bridge" || rec.GameState.Stats["gold"] != 9 {
		t.Errorf("Expected the later save to win, got %+v", rec)
	}
}

func TestMemoryStore_NewID(t *testing.T) {
	store := NewMemoryStore[[]byte]()
	seen := map[string]bool{}
	for range 100 {
		id := store.NewID()
		if seen[id] {
			t.Fatalf("Duplicate slot id %s", id)
		}
		seen[id] = true
		if len(id) != 36 {
			t.Errorf("Expected a canonical UUID, got %q", id)
		}
	}
}

func TestMemoryStore_ConcurrentSessions(t *testing.T) {
	store := NewMemoryStore[*story.GameState]()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := story.NewGameState()
			st.Stats["visits"] = i
			if err := store.Put(ctx, fmt.Sprintf("player-%d", i), &st); err != nil {
				t.Errorf("Put: %v", err)
			}
			if _, _, err := store.Get(ctx, "player-0"); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 10 {
		t.Fatalf("Expected 10 sessions, got %v", ids)
	}
	st, ok, _ := store.Get(ctx, "player-7")
	if !ok || st.Stats["visits"] != 7 {
		t.Errorf("Expected player-7 state, got %+v", st)
	}
}

func TestMemoryStore_DeleteList(t *testing.T) {
	store := NewMemoryStore[[]byte]()
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if err := store.Put(ctx, id, saveAt(t, "start", 0)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := store.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Expected deleting a missing slot to succeed, got %v", err)
	}
	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "c"}) {
		t.Errorf("Expected [a c], got %v", ids)
	}
}
