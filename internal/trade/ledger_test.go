package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmqc/swapbytes/internal/wire"
)

func proposal(requested string) wire.TradeProposal {
	return wire.TradeProposal{RequestedHash: requested, Nickname: "alice.ab1cd"}
}

func TestProposeOutgoing(t *testing.T) {
	l := NewLedger()

	require.NoError(t, l.ProposeOutgoing("peer-1", proposal("h1")))

	got, ok := l.Outgoing("peer-1")
	require.True(t, ok)
	assert.Equal(t, "h1", got.RequestedHash)
	assert.True(t, l.HasOpen("peer-1"))
}

func TestProposeOutgoingRejectsSecondOpenTrade(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.ProposeOutgoing("peer-1", proposal("h1")))

	// Blocked by the existing outgoing slot.
	assert.ErrorIs(t, l.ProposeOutgoing("peer-1", proposal("h2")), ErrAlreadyNegotiating)

	// Blocked by an incoming slot too.
	l2 := NewLedger()
	l2.RecordIncoming("peer-1", proposal("h1"))
	assert.ErrorIs(t, l2.ProposeOutgoing("peer-1", proposal("h2")), ErrAlreadyNegotiating)

	// A different peer is unaffected.
	assert.NoError(t, l.ProposeOutgoing("peer-2", proposal("h2")))
}

func TestAcceptRemovesIncoming(t *testing.T) {
	l := NewLedger()
	l.RecordIncoming("peer-1", proposal("h1"))

	got, err := l.Accept("peer-1")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.RequestedHash)

	_, err = l.Accept("peer-1")
	assert.ErrorIs(t, err, ErrNoIncomingTrade)
	assert.False(t, l.HasOpen("peer-1"))
}

func TestDecline(t *testing.T) {
	l := NewLedger()

	assert.ErrorIs(t, l.Decline("peer-1"), ErrNoIncomingTrade)

	l.RecordIncoming("peer-1", proposal("h1"))
	require.NoError(t, l.Decline("peer-1"))
	assert.False(t, l.HasOpen("peer-1"))
}

func TestCompleteOrAbortOutgoingAllowsReproposal(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.ProposeOutgoing("peer-1", proposal("h1")))

	l.CompleteOrAbortOutgoing("peer-1")
	_, ok := l.Outgoing("peer-1")
	assert.False(t, ok)

	// The slot is free again.
	assert.NoError(t, l.ProposeOutgoing("peer-1", proposal("h2")))

	// Absent slot is a no-op.
	l.CompleteOrAbortOutgoing("peer-9")
}

func TestAbortIncomingIsIdempotent(t *testing.T) {
	l := NewLedger()
	l.RecordIncoming("peer-1", proposal("h1"))

	// Accept clears the slot; the later response-leg teardown must still hold.
	_, err := l.Accept("peer-1")
	require.NoError(t, err)
	l.AbortIncoming("peer-1")
	l.AbortIncoming("peer-1")

	assert.False(t, l.HasOpen("peer-1"))
}

func TestHasOpenCoversBothDirections(t *testing.T) {
	l := NewLedger()
	assert.False(t, l.HasOpen("peer-1"))

	require.NoError(t, l.ProposeOutgoing("peer-1", proposal("h1")))
	assert.True(t, l.HasOpen("peer-1"))

	l.RecordIncoming("peer-2", proposal("h2"))
	assert.True(t, l.HasOpen("peer-2"))
}
