package monitor

// The browser pushes four independent event streams at the monitor: console
// API calls, uncaught exceptions, failed requests, and HTTP responses. They
// are modeled as plain structs so the capture pipeline can be driven with
// synthetic events in tests; the rod adapter in rod.go is the production
// source.

// LogEvent is one console API call (console.error, console.warn, ...).
type LogEvent struct {
	Level   string // "error", "warning", "log", ...
	Message string
	Stack   string
}

// ExceptionEvent is an uncaught script exception.
type ExceptionEvent struct {
	Message string
	Stack   string
	URL     string
}

// RequestFailedEvent is a request that died at the network layer before a
// response arrived.
type RequestFailedEvent struct {
	RequestURL string
	ErrorText  string
	Canceled   bool
}

// ResponseEvent is a completed HTTP response.
type ResponseEvent struct {
	URL    string
	Status int
}

// Handlers carries one callback per event channel. Nil callbacks are skipped.
type Handlers struct {
	OnLog           func(LogEvent)
	OnException     func(ExceptionEvent)
	OnRequestFailed func(RequestFailedEvent)
	OnResponse      func(ResponseEvent)
}

// EventSource is a live page the monitor can attach to. Subscribe registers
// the handlers and returns a stop function that detaches them; PageURL
// reports the page's current location so signals can be stamped with the URL
// active at capture time.
type EventSource interface {
	Subscribe(h Handlers) (stop func(), err error)
	PageURL() string
}
