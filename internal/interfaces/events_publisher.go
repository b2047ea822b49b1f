package interfaces

// EventPublisher emits integration events after committed balance
// writes. Publishing is best effort; the ledger never fails a write
// because a publish failed.
type EventPublisher interface {
	Publish(key string, event any) error
}
