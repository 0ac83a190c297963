package node

import (
	"fmt"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
	"github.com/dar7an/zk-cricket-trader/ledger"
)

// SignedBet is a bet submission authenticated by its sender. The
// signature binds the bet to the root and slot it was built against, so a
// captured submission cannot be replayed into another slot.
type SignedBet struct {
	Bet        ledger.Bet       `json:"bet"`
	Witness    ledger.Witness   `json:"witness"`
	PinnedRoot ledger.Hash      `json:"pinnedRoot"`
	Sender     crypto.PublicKey `json:"sender"`
	Signature  crypto.Signature `json:"signature"`
}

// BetMessage is the vector a sender signs: the bet scalars, the pinned
// root and the witnessed index.
func BetMessage(bet ledger.Bet, pinnedRoot ledger.Hash, index uint64) []field.Scalar {
	msg := bet.Scalars()
	return append(msg, pinnedRoot.Scalar(), field.FromUint64(index))
}

// SignBet builds a SignedBet with signer as the sender.
func SignBet(signer crypto.Signer, bet ledger.Bet, w ledger.Witness, pinnedRoot ledger.Hash) (SignedBet, error) {
	sig, err := crypto.Sign(signer, crypto.DomainBet, BetMessage(bet, pinnedRoot, w.Index()))
	if err != nil {
		return SignedBet{}, err
	}
	return SignedBet{
		Bet:        bet,
		Witness:    w,
		PinnedRoot: pinnedRoot,
		Sender:     signer.Public(),
		Signature:  sig,
	}, nil
}

// Proposal authenticates the sender and returns the PlaceBet to submit.
// Whether the sender owns the bet is left to the contract.
func (sb SignedBet) Proposal(scheme crypto.Scheme) (contract.PlaceBet, error) {
	msg := BetMessage(sb.Bet, sb.PinnedRoot, sb.Witness.Index())
	if !crypto.Verify(scheme, sb.Sender, crypto.DomainBet, msg, sb.Signature) {
		return contract.PlaceBet{}, fmt.Errorf("%w: bet sender", contract.ErrSignature)
	}
	return contract.PlaceBet{
		Bet:        sb.Bet,
		Witness:    sb.Witness,
		PinnedRoot: sb.PinnedRoot,
		Sender:     sb.Sender,
	}, nil
}
