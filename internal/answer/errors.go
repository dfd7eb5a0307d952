package answer

import "fmt"

// ValidationError rejects a malformed question before any quota is consumed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// QuotaExceededError reports a rejected reservation. Used always equals the
// daily limit at rejection time.
type QuotaExceededError struct {
	Used int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily question quota exceeded (%d used)", e.Used)
}

// UpstreamError wraps any embedding, generation, or storage failure. It
// carries the counters computed at reservation time so the HTTP boundary can
// still report them after a mid-pipeline failure.
type UpstreamError struct {
	Stage     string
	Used      int
	Remaining int
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
