package model

import "time"

// Profile is a row of the remote profiles table.  It is created once after
// the first sign-in and removed by the delete_user cascade.
//
// Fields:
//  ID                    – opaque user id from the identity provider.
//  Email                 – account email.
//  Name                  – display name (nullable).
//  ProfileImageURL       – avatar URL (nullable).
//  SubscriptionStartedAt – when the paid subscription began (nullable).
//  MemberNumber          – the committed membership number (nullable).
//  CreatedAt             – row creation timestamp.
//  UpdatedAt             – last modification timestamp.
type Profile struct {
	ID                    string     `json:"id"`                      // profiles.id
	Email                 string     `json:"email"`                   // profiles.email
	Name                  *string    `json:"name,omitempty"`          // profiles.name (nullable)
	ProfileImageURL       *string    `json:"profile_image_url,omitempty"` // profiles.profile_image_url (nullable)
	SubscriptionStartedAt *time.Time `json:"subscription_started_at"` // profiles.subscription_started_at (nullable)
	MemberNumber          *int       `json:"member_number"`           // profiles.member_number (nullable)
	CreatedAt             time.Time  `json:"created_at"`              // profiles.created_at
	UpdatedAt             time.Time  `json:"updated_at"`              // profiles.updated_at
}

// MembershipDuration derives the gamified "member for N days" figure shown on
// the profile screen.  It returns zero when the subscription has not started.
func (p *Profile) MembershipDuration(now time.Time) time.Duration {
	if p.SubscriptionStartedAt == nil {
		return 0
	}
	d := now.Sub(p.SubscriptionStartedAt.UTC())
	if d < 0 {
		return 0
	}
	return d
}
