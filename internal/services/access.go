package services

import (
	"context"
	"fmt"

	"eventticketing/internal/domain"
)

type accessGate struct {
	memberships domain.MembershipRepository
}

// NewAccessGate returns an AccessGate backed by community membership. Admins may
// manage and check in; members (volunteers included) may only check in.
func NewAccessGate(memberships domain.MembershipRepository) domain.AccessGate {
	return &accessGate{memberships: memberships}
}

func (g *accessGate) CanManage(ctx context.Context, principalID string, event *domain.Event) (bool, error) {
	role, err := g.role(ctx, principalID, event)
	if err != nil {
		return false, err
	}
	return role == domain.RoleAdmin, nil
}

func (g *accessGate) CanCheckIn(ctx context.Context, principalID string, event *domain.Event) (bool, error) {
	role, err := g.role(ctx, principalID, event)
	if err != nil {
		return false, err
	}
	return role == domain.RoleAdmin || role == domain.RoleMember, nil
}

func (g *accessGate) role(ctx context.Context, principalID string, event *domain.Event) (domain.Role, error) {
	if principalID == "" || event == nil {
		return domain.RoleNone, nil
	}
	role, err := g.memberships.GetRole(ctx, event.CommunityID, principalID)
	if err != nil {
		return domain.RoleNone, fmt.Errorf("get community role: %w", err)
	}
	return role, nil
}

// requireManage returns ErrForbidden unless principalID can manage event.
func requireManage(ctx context.Context, gate domain.AccessGate, principalID string, event *domain.Event) error {
	ok, err := gate.CanManage(ctx, principalID, event)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}
