package orders

type Status string

const (
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPending         Status = "pending"
	StatusPaid            Status = "paid"
	StatusCancelled       Status = "cancelled"
	StatusExpired         Status = "expired"
	StatusDenied          Status = "denied"
	StatusChallenge       Status = "challenge"
)

// IsValid checks if the order status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusAwaitingPayment, StatusPending, StatusPaid, StatusCancelled,
		StatusExpired, StatusDenied, StatusChallenge:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further gateway-driven transition is expected.
// Administrative cancellation can still apply to paid orders.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusCancelled, StatusExpired, StatusDenied:
		return true
	}
	return false
}

// HoldsInventory reports whether an order in this status still holds its
// stock reservation. Stock is held from creation and only cancellation
// releases it.
func (s Status) HoldsInventory() bool {
	return s != StatusCancelled
}

// CanTransitionTo reports whether a transition from s to target is legal.
// Same-state transitions are legal and treated as no-ops by the callers.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return true
	}

	switch target {
	case StatusPaid:
		// A cancelled order released its stock; paying it again would
		// commit inventory that was never re-reserved.
		return s != StatusCancelled
	case StatusCancelled:
		return true
	case StatusPending, StatusDenied, StatusExpired, StatusChallenge:
		// Gateway relabels only make sense while the order is still in
		// flight or suspended in challenge.
		switch s {
		case StatusAwaitingPayment, StatusPending, StatusChallenge:
			return true
		}
		return false
	}
	return false
}
