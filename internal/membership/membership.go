// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package membership handles membership requests: a member asks to join, an
admin reviews the queue.

A member holds at most one pending request at a time. The queue is read in the
order requests arrived.
*/
package membership

import (
	"context"
	"time"

	"github.com/taibuivan/kkm-registry/pkg/pagination"
)

// Status is the lifecycle state of a membership request.
type Status string

const (
	StatusRequest  Status = "request"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Keyset cursor of the queue listing: the requested_on (RFC 3339) and the
// membership_id of the last entry already seen.
const (
	CursorLastRequestedOn  = "last_requested_on"
	CursorLastMembershipID = "last_membership_id"
)

const msgAlreadyPending = "Membership request already pending"

// Membership is a row of the memberships relation.
type Membership struct {
	MembershipID string    `db:"membership_id"`
	UserID       string    `db:"user_id"`
	Status       Status    `db:"status"`
	RequestedOn  time.Time `db:"requested_on"`
}

// Entry is one line of the admin queue: the request joined with its member.
type Entry struct {
	MembershipID string    `json:"membership_id" db:"membership_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Email        string    `json:"user_email" db:"user_email"`
	Name         string    `json:"user_name" db:"user_name"`
	Status       Status    `json:"status" db:"status"`
	RequestedOn  time.Time `json:"requested_on" db:"requested_on"`
}

// ListFilter narrows the queue. Email, Name and Status match substrings,
// case-insensitively. After and AfterID position the page after the last
// entry already seen; AfterID is only meaningful together with After.
type ListFilter struct {
	Email   string
	Name    string
	Status  string
	After   *time.Time
	AfterID string
	Limit   int
}

// FetchLimit is the number of rows the store fetches for this page.
func (filter ListFilter) FetchLimit() int {
	return pagination.Params{Limit: filter.Limit}.FetchLimit()
}

// Repository defines the persistence contract for membership requests.
type Repository interface {

	/*
		Create stores a pending request. The store sets RequestedOn.

		Returns:
		  - error: apperr.Conflict when the member already has a pending request
	*/
	Create(ctx context.Context, membership *Membership) error

	// List returns up to filter.FetchLimit() entries ordered by requested_on.
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
}
