package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsValid(t *testing.T) {
	valid := []Status{
		StatusAwaitingPayment,
		StatusPending,
		StatusPaid,
		StatusCancelled,
		StatusExpired,
		StatusDenied,
		StatusChallenge,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, Status("settled").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"awaiting to paid", StatusAwaitingPayment, StatusPaid, true},
		{"pending to paid", StatusPending, StatusPaid, true},
		{"challenge to paid", StatusChallenge, StatusPaid, true},
		{"denied to paid", StatusDenied, StatusPaid, true},
		{"expired to paid", StatusExpired, StatusPaid, true},
		{"cancelled to paid", StatusCancelled, StatusPaid, false},

		{"awaiting to cancelled", StatusAwaitingPayment, StatusCancelled, true},
		{"paid to cancelled", StatusPaid, StatusCancelled, true},
		{"expired to cancelled", StatusExpired, StatusCancelled, true},

		{"awaiting to pending", StatusAwaitingPayment, StatusPending, true},
		{"awaiting to challenge", StatusAwaitingPayment, StatusChallenge, true},
		{"pending to denied", StatusPending, StatusDenied, true},
		{"pending to expired", StatusPending, StatusExpired, true},
		{"challenge to denied", StatusChallenge, StatusDenied, true},

		{"paid to pending", StatusPaid, StatusPending, false},
		{"paid to expired", StatusPaid, StatusExpired, false},
		{"paid to denied", StatusPaid, StatusDenied, false},
		{"denied to pending", StatusDenied, StatusPending, false},
		{"expired to challenge", StatusExpired, StatusChallenge, false},
		{"cancelled to pending", StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestCanTransitionToSameStatus(t *testing.T) {
	// Re-delivered gateway reports land on the current status; that must
	// always be accepted as a no-op rather than rejected.
	for _, s := range []Status{
		StatusAwaitingPayment, StatusPending, StatusPaid,
		StatusCancelled, StatusExpired, StatusDenied, StatusChallenge,
	} {
		assert.True(t, s.CanTransitionTo(s), "same-status transition for %s", s)
	}
}

func TestHoldsInventory(t *testing.T) {
	assert.True(t, StatusAwaitingPayment.HoldsInventory())
	assert.True(t, StatusPending.HoldsInventory())
	assert.True(t, StatusPaid.HoldsInventory())
	assert.True(t, StatusChallenge.HoldsInventory())
	assert.False(t, StatusCancelled.HoldsInventory())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusPaid.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.True(t, StatusDenied.IsTerminal())
	assert.False(t, StatusAwaitingPayment.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusChallenge.IsTerminal())
}
