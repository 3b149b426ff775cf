package rstream

// EventKind identifies the state change reported by an [Event].
type EventKind int

const (
	// EventStarted fires once the start callback has returned successfully.
	EventStarted EventKind = iota
	// EventEnqueued fires for every chunk accepted by the controller.
	EventEnqueued
	// EventPull fires each time the pull callback is invoked.
	EventPull
	// EventLocked fires when a reader acquires the stream.
	EventLocked
	// EventReleased fires when a reader releases its lock.
	EventReleased
	// EventClosed fires when the producer closes the stream.
	EventClosed
	// EventErrored fires when the stream moves to [Errored].
	EventErrored
	// EventCanceled fires when a consumer cancels the stream.
	EventCanceled
)

var eventKindNames = [...]string{
	EventStarted:  "started",
	EventEnqueued: "enqueued",
	EventPull:     "pull",
	EventLocked:   "locked",
	EventReleased: "released",
	EventClosed:   "closed",
	EventErrored:  "errored",
	EventCanceled: "canceled",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event describes one state change of a stream. It is passed to the hook
// registered via [WithOnEvent].
type Event struct {
	Kind   EventKind
	Stream string
	// Err is the stored error for EventErrored and the cancellation
	// reason for EventCanceled; nil otherwise.
	Err error
}

// Stats is a point-in-time snapshot of stream activity.
type Stats struct {
	Enqueued  int64 // chunks accepted by the controller
	Delivered int64 // chunks handed to reads
	Pulls     int64 // pull callback invocations
	Buffered  int   // chunks waiting in the queue
	State     State
}

func (s *Stream[T]) emit(kind EventKind, err error) {
	if s.cfg.onEvent == nil {
		return
	}
	s.cfg.onEvent(Event{Kind: kind, Stream: s.cfg.name, Err: err})
}
