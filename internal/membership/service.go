// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package membership

import (
	"context"
	"strings"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/pkg/pagination"
	"github.com/taibuivan/kkm-registry/pkg/uuid"
)

// Service implements the membership use cases.
type Service struct {
	memberships Repository
}

// NewService constructs a new membership [Service].
func NewService(memberships Repository) *Service {
	return &Service{memberships: memberships}
}

// Request files a membership request on behalf of the caller.
func (service *Service) Request(ctx context.Context, authorized *authz.Authorized) (*Membership, error) {
	if authorized == nil || authorized.AuthUserID == "" {
		return nil, apperr.NotAuthenticated()
	}

	membership := &Membership{
		MembershipID: uuid.New(),
		UserID:       authorized.AuthUserID,
		Status:       StatusRequest,
	}

	if err := service.memberships.Create(ctx, membership); err != nil {
		return nil, err
	}

	return membership, nil
}

/*
List returns one page of the request queue to an admin.

Returns:
  - []Entry: At most filter.Limit entries, oldest first
  - bool: Whether another page exists
  - error: NotAuthorized for non-admins
*/
func (service *Service) List(ctx context.Context, authorized *authz.Authorized, filter ListFilter) ([]Entry, bool, error) {
	if !authz.IsAdmin(authorized) {
		return nil, false, apperr.NotAuthorized()
	}

	filter.Email = strings.TrimSpace(filter.Email)
	filter.Name = strings.TrimSpace(filter.Name)
	filter.Status = strings.TrimSpace(filter.Status)

	entries, err := service.memberships.List(ctx, filter)
	if err != nil {
		return nil, false, err
	}

	entries, hasMore := pagination.Trim(entries, filter.Limit)
	return entries, hasMore, nil
}
