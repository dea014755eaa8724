package model

// FailureKind classifies a failed user-facing operation.
type FailureKind int

const (
	// FailureNone marks a successful outcome.
	FailureNone FailureKind = iota

	// FailureValidation is a local rejection; no request was sent.
	FailureValidation

	// FailureTransport means no response was received.
	FailureTransport

	// FailureServer covers non-2xx responses, malformed bodies and
	// server-level flags reporting failure.
	FailureServer

	// FailureStorage means local state such as the session token could
	// not be written.
	FailureStorage
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureValidation:
		return "validation"
	case FailureTransport:
		return "transport"
	case FailureServer:
		return "server"
	case FailureStorage:
		return "storage"
	}
	return "unknown"
}

// Outcome is what a controller operation reports to the UI.
type Outcome struct {
	OK      bool
	Message string
	Kind    FailureKind
}

// Succeeded builds a successful Outcome.
func Succeeded(msg string) Outcome {
	return Outcome{OK: true, Message: msg}
}

// Failed builds a failed Outcome of the given kind.
func Failed(kind FailureKind, msg string) Outcome {
	return Outcome{Message: msg, Kind: kind}
}
