package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_Next(t *testing.T) {
	cases := []struct {
		from   BookingStatus
		action BookingAction
		to     BookingStatus
		ok     bool
	}{
		{BookingPending, ActionApprove, BookingConfirmed, true},
		{BookingPending, ActionReject, BookingRejected, true},
		{BookingPending, ActionCancel, BookingCancelled, true},
		{BookingPending, ActionRevoke, BookingCancelled, true},
		{BookingPending, ActionEdit, BookingPending, true},
		{BookingConfirmed, ActionCancel, BookingCancelled, true},
		{BookingConfirmed, ActionRevoke, BookingCancelled, true},
		{BookingConfirmed, ActionApprove, BookingConfirmed, false},
		{BookingConfirmed, ActionReject, BookingConfirmed, false},
		{BookingConfirmed, ActionEdit, BookingConfirmed, false},
		{BookingRejected, ActionApprove, BookingRejected, false},
		{BookingRejected, ActionCancel, BookingRejected, false},
		{BookingCancelled, ActionRevoke, BookingCancelled, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_"+string(tc.action), func(t *testing.T) {
			to, err := tc.from.Next(tc.action)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, to)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tc.from, te.From)
		})
	}
}

func TestBookingStatus_Terminal(t *testing.T) {
	assert.True(t, BookingRejected.IsTerminal())
	assert.True(t, BookingCancelled.IsTerminal())
	assert.False(t, BookingPending.IsTerminal())
	assert.False(t, BookingConfirmed.IsTerminal())
	assert.True(t, BookingConfirmed.HoldsCottage())
	assert.False(t, BookingRejected.HoldsCottage())
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus(" Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, BookingConfirmed, s)

	_, err = ParseBookingStatus("revoked")
	assert.Error(t, err)
}

func TestTransitionError_Message(t *testing.T) {
	_, err := BookingRejected.Next(ActionApprove)
	assert.Equal(t, "Cannot approve a booking that is rejected", err.Error())
}
