package models

import "github.com/quickserve/quickserve-go/internal/pkg/apperror"

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAssigned  RequestStatus = "assigned"
	StatusEnRoute   RequestStatus = "en_route"
	StatusArrived   RequestStatus = "arrived"
	StatusPayment   RequestStatus = "payment"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusEnRoute, StatusArrived, StatusPayment, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsActive reports whether a provider currently works this request. The
// backend uses the same set to block a second concurrent job.
func (s RequestStatus) IsActive() bool {
	switch s {
	case StatusAssigned, StatusEnRoute, StatusArrived, StatusPayment:
		return true
	}
	return false
}

// CanTransitionTo is the rendering-side legality check: it decides which
// action buttons are offered, nothing more. The backend stays the sole
// transition authority and may disagree.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	transitions := map[RequestStatus][]RequestStatus{
		StatusPending:   {StatusAssigned, StatusCancelled},
		StatusAssigned:  {StatusEnRoute, StatusArrived, StatusPayment, StatusCompleted},
		StatusEnRoute:   {StatusArrived, StatusPayment, StatusCompleted},
		StatusArrived:   {StatusPayment, StatusCompleted},
		StatusPayment:   {StatusCompleted},
		StatusCompleted: {},
		StatusCancelled: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}

func NewRequestStatus(status string) (RequestStatus, error) {
	s := RequestStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid request status")
	}
	return s, nil
}

// Action is something the current viewer may do with a request.
type Action string

const (
	ActionCancel   Action = "cancel"   // customer, pending only
	ActionAccept   Action = "accept"   // provider, pending only
	ActionReject   Action = "reject"   // provider, pending only
	ActionEnRoute  Action = "en_route" // provider progress updates
	ActionArrived  Action = "arrived"
	ActionPayment  Action = "payment"
	ActionComplete Action = "completed"
)

// Badge is the pure status → presentation mapping.
type Badge struct {
	Tone    string
	Label   string
	Actions []Action
}

// BadgeFor maps a status to its badge tone, label and the actions enabled
// for the given viewer role.
func BadgeFor(s RequestStatus, role string) Badge {
	b := Badge{Tone: "slate", Label: string(s)}

	switch s {
	case StatusPending:
		b.Tone, b.Label = "amber", "Pending"
		switch role {
		case RoleCustomer:
			b.Actions = []Action{ActionCancel}
		case RoleProvider:
			b.Actions = []Action{ActionAccept, ActionReject}
		}
	case StatusAssigned:
		b.Tone, b.Label = "purple", "Assigned"
		if role == RoleProvider {
			b.Actions = []Action{ActionEnRoute, ActionArrived, ActionPayment, ActionComplete}
		}
	case StatusEnRoute:
		b.Tone, b.Label = "cyan", "On the way"
		if role == RoleProvider {
			b.Actions = []Action{ActionArrived, ActionPayment, ActionComplete}
		}
	case StatusArrived:
		b.Tone, b.Label = "pink", "Arrived"
		if role == RoleProvider {
			b.Actions = []Action{ActionPayment, ActionComplete}
		}
	case StatusPayment:
		b.Tone, b.Label = "amber", "Payment"
		if role == RoleProvider {
			b.Actions = []Action{ActionComplete}
		}
	case StatusCompleted:
		b.Tone, b.Label = "emerald", "Completed"
	case StatusCancelled:
		b.Tone, b.Label = "red", "Cancelled"
	}
	return b
}

// AllowsAction reports whether the action is offered for the status/role
// pair, matching what BadgeFor renders.
func (s RequestStatus) AllowsAction(role string, action Action) bool {
	for _, a := range BadgeFor(s, role).Actions {
		if a == action {
			return true
		}
	}
	return false
}

type KYCStatus string

const (
	KYCNotSubmitted KYCStatus = "not_submitted"
	KYCPending      KYCStatus = "pending"
	KYCApproved     KYCStatus = "approved"
	KYCRejected     KYCStatus = "rejected"
)

func (s KYCStatus) IsValid() bool {
	switch s {
	case KYCNotSubmitted, KYCPending, KYCApproved, KYCRejected:
		return true
	}
	return false
}

// AllowsOnline reports whether the provider may go online: approval gates
// the availability toggle and location broadcasting.
func (s KYCStatus) AllowsOnline() bool {
	return s == KYCApproved
}
