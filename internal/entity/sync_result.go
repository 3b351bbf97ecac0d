package entity

import "fmt"

// SyncSuccess records one assignment accepted by the calendar provider.
type SyncSuccess struct {
	AssignmentID    int64  `json:"assignmentId"`
	ProviderEventID string `json:"providerEventId"`
}

// SyncFailure records one assignment the provider did not accept.
type SyncFailure struct {
	AssignmentID int64  `json:"assignmentId"`
	Error        string `json:"error"`
	Err          error  `json:"-"`
}

// SyncResult is the outcome of one synchronization batch. Every input
// assignment appears in exactly one of Successes or Failures.
type SyncResult struct {
	Attempted int           `json:"attempted"`
	Successes []SyncSuccess `json:"successes"`
	Failures  []SyncFailure `json:"failures"`
}

// Summary renders the result as "N of M added".
func (r SyncResult) Summary() string {
	return fmt.Sprintf("%d of %d added", len(r.Successes), r.Attempted)
}
