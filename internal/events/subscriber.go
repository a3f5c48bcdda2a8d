package events

// Subscriber is the consuming side of the event bus.
type Subscriber interface {
	// Subscribe streams raw payloads for a subject pattern. The returned
	// cancel function unsubscribes and closes the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
