// Package trade tracks file-trade negotiations. Each remote peer gets at most
// one outgoing and one incoming proposal slot; a proposal lives until the
// negotiation reaches one of its terminal states (accept-and-complete,
// decline, counterparty lacks the file). Proposals have no expiry.
package trade

import (
	"errors"

	"github.com/cosmqc/swapbytes/internal/wire"
)

var (
	// ErrAlreadyNegotiating means a trade with that peer is already open in
	// either direction.
	ErrAlreadyNegotiating = errors.New("a trade with this peer is already in progress")

	// ErrNoIncomingTrade means there is no incoming proposal from that peer
	// to accept or decline.
	ErrNoIncomingTrade = errors.New("no incoming trade from this peer")
)

// Ledger holds the open proposals, keyed by the counterpart's peer id.
// Owned by the event loop; no locking.
type Ledger struct {
	outgoing map[string]wire.TradeProposal
	incoming map[string]wire.TradeProposal
}

func NewLedger() *Ledger {
	return &Ledger{
		outgoing: make(map[string]wire.TradeProposal),
		incoming: make(map[string]wire.TradeProposal),
	}
}

// ProposeOutgoing opens an outgoing negotiation with the counterpart. It
// fails if a proposal already exists with that peer in either direction.
func (l *Ledger) ProposeOutgoing(counterpart string, proposal wire.TradeProposal) error {
	if _, ok := l.outgoing[counterpart]; ok {
		return ErrAlreadyNegotiating
	}
	if _, ok := l.incoming[counterpart]; ok {
		return ErrAlreadyNegotiating
	}
	l.outgoing[counterpart] = proposal
	return nil
}

// RecordIncoming stores a proposal received from the counterpart. The caller
// has already confirmed the requested file exists locally.
func (l *Ledger) RecordIncoming(counterpart string, proposal wire.TradeProposal) {
	l.incoming[counterpart] = proposal
}

// Accept removes and returns the incoming proposal from the counterpart so
// the caller can assemble the file-transfer leg.
func (l *Ledger) Accept(counterpart string) (wire.TradeProposal, error) {
	proposal, ok := l.incoming[counterpart]
	if !ok {
		return wire.TradeProposal{}, ErrNoIncomingTrade
	}
	delete(l.incoming, counterpart)
	return proposal, nil
}

// Decline removes the incoming proposal from the counterpart.
func (l *Ledger) Decline(counterpart string) error {
	if _, ok := l.incoming[counterpart]; !ok {
		return ErrNoIncomingTrade
	}
	delete(l.incoming, counterpart)
	return nil
}

// Outgoing returns the open outgoing proposal to the counterpart, if any.
func (l *Ledger) Outgoing(counterpart string) (wire.TradeProposal, bool) {
	proposal, ok := l.outgoing[counterpart]
	return proposal, ok
}

// Incoming returns the open incoming proposal from the counterpart, if any.
func (l *Ledger) Incoming(counterpart string) (wire.TradeProposal, bool) {
	proposal, ok := l.incoming[counterpart]
	return proposal, ok
}

// CompleteOrAbortOutgoing drops the outgoing proposal to the counterpart.
// Used on successful completion, on a decline, and on a does-not-have-file
// acknowledgement; removing an absent slot is a no-op.
func (l *Ledger) CompleteOrAbortOutgoing(counterpart string) {
	delete(l.outgoing, counterpart)
}

// AbortIncoming drops the incoming proposal from the counterpart, tolerating
// absence. The file-transfer response leg uses this so teardown holds whether
// or not Accept already cleared the slot.
func (l *Ledger) AbortIncoming(counterpart string) {
	delete(l.incoming, counterpart)
}

// HasOpen reports whether any negotiation is open with the counterpart, in
// either direction. Direct messages are gated on this.
func (l *Ledger) HasOpen(counterpart string) bool {
	if _, ok := l.outgoing[counterpart]; ok {
		return true
	}
	_, ok := l.incoming[counterpart]
	return ok
}
