package model

import "time"

// PoolMax is the size of the membership-number pool.  Numbers run from 1 to
// PoolMax inclusive and the remote pool table is expected to be fully seeded
// across that range.
const PoolMax = 10000

// PoolEntry represents one row of the remote member_numbers pool.  The
// server owns these rows; the client only reads them.  Assignment happens
// server-side when a purchase is committed.
//
// Fields:
//  Number      – the membership number, in [1, PoolMax].
//  IsAvailable – whether the number can still be claimed.
//  AssignedTo  – user id the number is assigned to (nullable).
//  AssignedAt  – when the assignment was committed (nullable).
type PoolEntry struct {
	Number      int        `json:"member_number"` // member_numbers.member_number
	IsAvailable bool       `json:"is_available"`  // member_numbers.is_available
	AssignedTo  *string    `json:"assigned_to"`   // member_numbers.assigned_to (nullable)
	AssignedAt  *time.Time `json:"assigned_at"`   // member_numbers.assigned_at (nullable)
}
