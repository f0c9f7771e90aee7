package model

import "time"

// HoldTTL is how long a reservation remains valid after it is taken.  The
// hold is advisory: it drives the countdown shown to the user while they
// complete the purchase, but the server remains authoritative at commit time.
const HoldTTL = 30 * time.Second

// Reservation is a client-local, time-boxed claim on a membership number.
// It lives only in process memory and is never persisted; a hold surviving
// a restart would be meaningless.  Written only by the owning
// reservation.Controller.
//
// Fields:
//  Number    – the held membership number.
//  StartedAt – when the hold was taken (UTC).
type Reservation struct {
	Number    int       `json:"number"`
	StartedAt time.Time `json:"started_at"`
}

// Remaining returns the whole seconds left on the hold at the given instant,
// clamped at zero.
func (r Reservation) Remaining(now time.Time) int {
	left := HoldTTL - now.Sub(r.StartedAt)
	if left <= 0 {
		return 0
	}
	secs := int(left / time.Second)
	if left%time.Second > 0 {
		secs++
	}
	return secs
}

// Expired reports whether the hold's lifetime has elapsed.
func (r Reservation) Expired(now time.Time) bool {
	return now.Sub(r.StartedAt) >= HoldTTL
}
