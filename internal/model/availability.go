package model

// AvailabilityStatus enumerates the states of a single availability check.
type AvailabilityStatus string

const (
	AvailabilityIdle         AvailabilityStatus = "idle"          // no settled input yet
	AvailabilityChecking     AvailabilityStatus = "checking"      // debounce fired, lookup in flight
	AvailabilityAvailable    AvailabilityStatus = "available"     // number can be reserved
	AvailabilityUnavailable  AvailabilityStatus = "unavailable"   // taken, or the lookup failed
	AvailabilityInvalidRange AvailabilityStatus = "invalid_range" // input does not parse to [1, PoolMax]
)

// AvailabilityCheck is the ephemeral state of the number picker for one
// input session.  Exactly one check is live at a time; a newer input
// supersedes and cancels any older pending check, so a stale lookup can
// never overwrite fresher state.
//
// Fields:
//  Candidate – the sanitized candidate number (0 until input settles and parses).
//  Status    – current check status.
//  Reason    – user-facing message for unavailable/invalid_range statuses.
type AvailabilityCheck struct {
	Candidate int                `json:"candidate"`
	Status    AvailabilityStatus `json:"status"`
	Reason    string             `json:"reason,omitempty"`
}
