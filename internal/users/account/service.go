// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"strings"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/sec"
	"github.com/taibuivan/kkm-registry/internal/platform/validate"
	"github.com/taibuivan/kkm-registry/pkg/pagination"
	"github.com/taibuivan/kkm-registry/pkg/uuid"
)

const maxFieldLength = 255

// Service implements the profile use cases. Every method takes the caller's
// authorized context and applies the access policy before any store access.
type Service struct {
	profiles ProfileRepository
}

// NewService constructs a new profile [Service].
func NewService(profiles ProfileRepository) *Service {
	return &Service{profiles: profiles}
}

/*
List returns one page of the member directory.

Returns:
  - []authz.Identity: At most filter.Page.Limit members
  - bool: Whether another page exists
  - error: NotAuthorized for non-admins, whatever the filters
*/
func (service *Service) List(ctx context.Context, authorized *authz.Authorized, filter ListFilter) ([]authz.Identity, bool, error) {
	if !authz.IsAdmin(authorized) {
		return nil, false, apperr.NotAuthorized()
	}

	filter.Email = strings.TrimSpace(filter.Email)
	filter.Name = strings.TrimSpace(filter.Name)

	users, err := service.profiles.List(ctx, filter)
	if err != nil {
		return nil, false, err
	}

	users, hasMore := pagination.Trim(users, filter.Page.Limit)
	return users, hasMore, nil
}

// Get returns a single profile to an admin or to its owner.
func (service *Service) Get(ctx context.Context, authorized *authz.Authorized, userID string) (*authz.Identity, error) {
	userID, _ = uuid.Canonical(userID)

	if !authz.IsAdminOrSelf(authorized, userID) {
		return nil, apperr.NotAuthorized()
	}

	if !uuid.Valid(userID) {
		return nil, apperr.UserNotFound()
	}

	return service.profiles.FindByID(ctx, userID)
}

/*
Update applies a partial profile change.

The checks run in this order: access policy (403), empty body (406), role
change by a non-admin (403), field validation (400).
*/
func (service *Service) Update(ctx context.Context, authorized *authz.Authorized, userID string, update ProfileUpdate) (*authz.Identity, error) {
	userID, _ = uuid.Canonical(userID)

	if !authz.IsAdminOrSelf(authorized, userID) {
		return nil, apperr.NotAuthorized()
	}

	if update.Empty() {
		return nil, apperr.NothingToUpdate()
	}

	if update.Role != nil && !authz.IsAdmin(authorized) {
		return nil, apperr.NotAuthorized()
	}

	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	if !uuid.Valid(userID) {
		return nil, apperr.UserNotFound()
	}

	return service.profiles.Update(ctx, userID, update)
}

func validateUpdate(update ProfileUpdate) error {
	validator := &validate.Validator{}

	if update.Name != nil {
		validator.Required(FieldName, *update.Name).MaxLen(FieldName, *update.Name, maxFieldLength)
	}
	if update.PhoneNo != nil {
		validator.MaxLen(FieldPhoneNo, *update.PhoneNo, maxFieldLength)
	}
	if update.HomeAddress != nil {
		validator.MaxLen(FieldHomeAddress, *update.HomeAddress, maxFieldLength)
	}
	if update.MembershipNo != nil {
		validator.MaxLen(FieldMembershipNo, *update.MembershipNo, maxFieldLength)
	}
	if update.Role != nil {
		validator.OneOf(FieldRole, *update.Role, sec.RoleUser.String(), sec.RoleAdmin.String())
	}

	return validator.Err()
}
