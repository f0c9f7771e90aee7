// Package queue defines message payloads exchanged over the message broker.
package queue

// SubscriptionActivatedEvent is published when a purchase completes and the
// entitlement re-check confirms the subscription.  It carries enough for
// downstream consumers to log, notify, or feed analytics without querying
// the remote store.
type SubscriptionActivatedEvent struct {
	UserID       string `json:"user_id"`
	MemberNumber int    `json:"member_number,omitempty"`
	PackageID    string `json:"package_id"`
	ActivatedAt  string `json:"activated_at"`
}
