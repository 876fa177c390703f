package runtime_test

import (
	"fmt"
	"sync"
	"testing"

	"lobby-chat/contract"
	"lobby-chat/domain/chat"
	"lobby-chat/runtime"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	sink := newStubSink(chat.Identity{UserID: "user-1", Name: "Alice"})

	evicted := registry.Register("user-1", sink)
	req.Nil(evicted)
	req.Equal(1, registry.Count())

	found, ok := registry.Lookup("user-1")
	req.True(ok)
	req.Same(sink, found.(*stubSink))
}

func TestRegistry_RegisterDisplacesPrevious(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	first := newStubSink(chat.Identity{UserID: "user-1"})
	second := newStubSink(chat.Identity{UserID: "user-1"})

	req.Nil(registry.Register("user-1", first))
	evicted := registry.Register("user-1", second)
	req.Same(first, evicted.(*stubSink))

	// Re-registering the current sink is a no-op, never a self-eviction.
	req.Nil(registry.Register("user-1", second))
	req.Equal(1, registry.Count())
}

func TestRegistry_ConcurrentRegisterKeepsOneWinner(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()

	const contenders = 64
	sinks := make([]*stubSink, contenders)
	for i := range sinks {
		sinks[i] = newStubSink(chat.Identity{UserID: "user-1"})
	}

	var mu sync.Mutex
	evictions := make(map[contract.EventSink]int)

	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(s *stubSink) {
			defer wg.Done()
			if evicted := registry.Register("user-1", s); evicted != nil {
				mu.Lock()
				evictions[evicted]++
				mu.Unlock()
			}
		}(sink)
	}
	wg.Wait()

	// Exactly one connection survives and every loser was evicted exactly once.
	req.Equal(1, registry.Count())
	winner, ok := registry.Lookup("user-1")
	req.True(ok)
	req.NotContains(evictions, winner)

	total := 0
	for _, n := range evictions {
		req.Equal(1, n)
		total += n
	}
	req.Equal(contenders-1, total)
}

func TestRegistry_UnregisterOnlyIfCurrent(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	old := newStubSink(chat.Identity{UserID: "user-1"})
	replacement := newStubSink(chat.Identity{UserID: "user-1"})

	registry.Register("user-1", old)
	registry.Register("user-1", replacement)

	// The evicted connection's late disconnect must not clobber the new one.
	req.False(registry.Unregister("user-1", old))
	req.Equal(1, registry.Count())

	req.True(registry.Unregister("user-1", replacement))
	req.Equal(0, registry.Count())
	req.False(registry.Unregister("user-1", replacement))
}

func TestRegistry_SnapshotIsStableAndCopied(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	for i := 0; i < 5; i++ {
		id := chat.Identity{UserID: fmt.Sprintf("user-%d", i), Name: fmt.Sprintf("Player%d", i)}
		registry.Register(id.UserID, newStubSink(id))
	}

	snapshot := registry.Snapshot()
	req.Len(snapshot, 5)
	for i := 1; i < len(snapshot); i++ {
		req.Less(snapshot[i-1].Identity().UserID, snapshot[i].Identity().UserID)
	}

	// Mutating the registry after the fact must not reach the snapshot.
	registry.Unregister("user-0", snapshot[0])
	req.Len(snapshot, 5)
	req.Equal(4, registry.Count())

	identities := registry.Identities()
	req.Len(identities, 4)
	req.Equal("user-1", identities[0].UserID)
}
