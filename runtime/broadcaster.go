package runtime

import (
	"errors"
	"log/slog"
	"sync"

	"lobby-chat/contract"
	"lobby-chat/domain/chat"
)

// ErrNoBroadcast is returned by a PublishWith prepare step to commit its
// side effects without fanning out an event.
var ErrNoBroadcast = errors.New("nothing to broadcast")

// Broadcaster delivers events to every registered connection, best-effort.
//
// It provides no durability and no retries; a sink that cannot accept an
// event is declared dead and handed to the cleanup callback. Delivery to
// each connection is independent: one dead peer never stalls the others.
//
// The publish lock serializes sequencing, fan-out, and the prepare steps
// of PublishWith. Registry changes and history-store appends run inside
// prepare, which is what keeps replay and live delivery from interleaving:
// for any connection that stays registered across two publishes, events
// land in its outbound queue in publish order. The lock is never held
// across a blocking socket write; Consume only enqueues.
type Broadcaster struct {
	log      *slog.Logger
	registry *Registry

	mu  sync.Mutex
	seq uint64
}

func NewBroadcaster(log *slog.Logger, registry *Registry) *Broadcaster {
	return &Broadcaster{log: log, registry: registry}
}

// Publish stamps the event with the next room sequence and enqueues it to
// every connection in the current registry snapshot.
func (b *Broadcaster) Publish(e chat.Event) chat.Event {
	stamped, _ := b.PublishWith(func() (chat.Event, error) {
		return e, nil
	})
	return stamped
}

// PublishWith runs prepare under the publish lock, then stamps and fans
// out the event it returns. A prepare error aborts the fan-out and is
// returned as-is; ErrNoBroadcast aborts it silently. Dead sinks are
// closed after the lock is released, since closing a sink publishes its
// departure.
func (b *Broadcaster) PublishWith(prepare func() (chat.Event, error)) (chat.Event, error) {
	b.mu.Lock()

	e, err := prepare()
	if err != nil {
		b.mu.Unlock()
		return chat.Event{}, err
	}

	b.seq++
	e.Sequence = b.seq

	var dead []contract.EventSink
	for _, sink := range b.registry.Snapshot() {
		if err := sink.Consume(e); err != nil {
			b.log.Debug("Sink rejected event, scheduling cleanup",
				"user_id", sink.Identity().UserID, "type", e.Type, "err", err)
			dead = append(dead, sink)
		}
	}

	b.mu.Unlock()

	for _, sink := range dead {
		sink.Close()
	}
	return e, nil
}

// Sequence returns the last stamped broadcast sequence.
func (b *Broadcaster) Sequence() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}
