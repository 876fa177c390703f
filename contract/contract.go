//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"lobby-chat/domain/chat"
)

// EventSink is one live connection as seen by the registry and the
// broadcast engine. Implementations must not block in Consume.
type EventSink interface {
	// Bind attaches the permanent identity once admission has resolved it.
	Bind(id chat.Identity)
	Identity() chat.Identity

	// Consume enqueues an event for delivery to the peer. A non-nil error
	// (closed connection, saturated queue) is a disconnect signal: the
	// caller treats the sink as dead and triggers its cleanup.
	Consume(e chat.Event) error

	// Terminate notifies the peer it has been superseded and closes the
	// connection with the forced-termination code. Best-effort: a sink
	// that is already closing swallows the notice.
	Terminate(e chat.Event)

	// Close releases the connection without a notice. Idempotent; the
	// first call triggers the sink's own departure cleanup.
	Close()
}

// IdentityResolver turns a session token into a permanent identity.
type IdentityResolver interface {
	Authenticate(token string) (chat.Identity, error)
}
