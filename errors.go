package chiron

import "fmt"

// BackendError reports a failed model round trip: transport, auth, rate
// limiting, or a response the adapter could not decode. The loop never
// retries these; the caller decides.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("model backend: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// ProtocolError reports a response that parsed but violates the exchange
// protocol, such as a tool-call block without an id. The run fails closed
// rather than guessing, since continuing would corrupt the causal history.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Reason)
}

// MaxIterationsError reports that the model kept requesting tools past the
// configured cap. It is a soft failure: Partial carries whatever assistant
// text accumulated before the cap.
type MaxIterationsError struct {
	Limit   int
	Partial string
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("conversation exceeded %d tool iterations", e.Limit)
}
