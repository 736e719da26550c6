package events

// Recorder appends events to the history.
type Recorder interface {
	Append(event *Event) error
}

// Store provides persistence for the transition history.
type Store interface {
	Recorder

	// LoadAll returns all events in chronological order.
	LoadAll() ([]*Event, error)

	// VerifyIntegrity checks the hash chain and returns the violations found.
	VerifyIntegrity() ([]string, error)
}
