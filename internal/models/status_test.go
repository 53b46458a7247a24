package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatus_Transitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusAssigned))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusPending.CanTransitionTo(StatusCompleted))

	assert.True(t, StatusAssigned.CanTransitionTo(StatusEnRoute))
	assert.True(t, StatusEnRoute.CanTransitionTo(StatusArrived))
	assert.True(t, StatusPayment.CanTransitionTo(StatusCompleted))

	// Terminal states go nowhere.
	assert.False(t, StatusCompleted.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusAssigned))

	// No skipping back.
	assert.False(t, StatusArrived.CanTransitionTo(StatusEnRoute))
}

func TestRequestStatus_ActiveAndTerminal(t *testing.T) {
	for _, s := range []RequestStatus{StatusAssigned, StatusEnRoute, StatusArrived, StatusPayment} {
		assert.True(t, s.IsActive(), "%s should be active", s)
		assert.False(t, s.IsTerminal())
	}
	for _, s := range []RequestStatus{StatusCompleted, StatusCancelled} {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
		assert.False(t, s.IsActive())
	}
	assert.False(t, StatusPending.IsActive())
	assert.False(t, StatusPending.IsTerminal())
}

func TestNewRequestStatus_RejectsUnknown(t *testing.T) {
	_, err := NewRequestStatus("teleporting")
	assert.Error(t, err)

	s, err := NewRequestStatus("en_route")
	assert.NoError(t, err)
	assert.Equal(t, StatusEnRoute, s)
}

func TestBadgeFor_PendingDependsOnViewer(t *testing.T) {
	customer := BadgeFor(StatusPending, RoleCustomer)
	assert.Equal(t, "amber", customer.Tone)
	assert.Equal(t, "Pending", customer.Label)
	assert.Equal(t, []Action{ActionCancel}, customer.Actions)

	provider := BadgeFor(StatusPending, RoleProvider)
	assert.Equal(t, []Action{ActionAccept, ActionReject}, provider.Actions)

	admin := BadgeFor(StatusPending, RoleAdmin)
	assert.Empty(t, admin.Actions)
}

func TestBadgeFor_ProgressLabels(t *testing.T) {
	assert.Equal(t, "On the way", BadgeFor(StatusEnRoute, RoleCustomer).Label)
	assert.Equal(t, "cyan", BadgeFor(StatusEnRoute, RoleCustomer).Tone)
	assert.Equal(t, "Completed", BadgeFor(StatusCompleted, RoleProvider).Label)
	assert.Equal(t, "emerald", BadgeFor(StatusCompleted, RoleProvider).Tone)
	assert.Equal(t, "red", BadgeFor(StatusCancelled, RoleCustomer).Tone)
}

func TestBadgeFor_TerminalStatesOfferNoActions(t *testing.T) {
	for _, s := range []RequestStatus{StatusCompleted, StatusCancelled} {
		for _, role := range []string{RoleCustomer, RoleProvider, RoleAdmin} {
			assert.Empty(t, BadgeFor(s, role).Actions, "%s/%s", s, role)
		}
	}
}

func TestAllowsAction_MatchesBadge(t *testing.T) {
	assert.True(t, StatusPending.AllowsAction(RoleCustomer, ActionCancel))
	assert.False(t, StatusPending.AllowsAction(RoleCustomer, ActionAccept))
	assert.True(t, StatusPayment.AllowsAction(RoleProvider, ActionComplete))
	assert.False(t, StatusAssigned.AllowsAction(RoleCustomer, ActionComplete))
}

func TestKYCStatus_AllowsOnline(t *testing.T) {
	assert.True(t, KYCApproved.AllowsOnline())
	assert.False(t, KYCPending.AllowsOnline())
	assert.False(t, KYCRejected.AllowsOnline())
	assert.False(t, KYCNotSubmitted.AllowsOnline())
}
