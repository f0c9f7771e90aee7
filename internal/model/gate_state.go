package model

// GatePhase enumerates the discriminated states of the subscription gate.
// Exactly one phase is active at a time.
type GatePhase string

const (
	GateCheckingAuth    GatePhase = "checking_auth"    // resolving the current user
	GateUnauthenticated GatePhase = "unauthenticated"  // no signed-in user
	GateProvisioning    GatePhase = "provisioning"     // entitlement check in progress
	GateGated           GatePhase = "gated"            // signed in, not subscribed; paywall + number picker
	GateEntitled        GatePhase = "entitled"         // signed in and subscribed
)

// GateState is a point-in-time snapshot of the subscription gate, used by
// the client to decide which screen to show.  Reservation and Remaining are
// populated only while a hold is active in the gated phase.
//
// Fields:
//  Phase       – active gate phase.
//  UserID      – signed-in user id ("" when unauthenticated).
//  Reservation – active hold, if any.
//  Remaining   – whole seconds left on the hold.
type GateState struct {
	Phase       GatePhase    `json:"phase"`
	UserID      string       `json:"user_id,omitempty"`
	Reservation *Reservation `json:"reservation,omitempty"`
	Remaining   int          `json:"remaining"`
}
