package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"dropvest/core/types"
	"dropvest/crypto"
)

const (
	TypeAirdropClaimed       = "airdrop.claimed"
	TypeAirdropRootRotated   = "airdrop.root_rotated"
	TypeAirdropTokensRescued = "airdrop.tokens_rescued"
)

// AirdropClaimed is emitted after a successful claim, carrying the incremental
// payout and the new cumulative total for the recipient.
type AirdropClaimed struct {
	Recipient     [20]byte
	Token         string
	Amount        *big.Int
	Entitlement   *big.Int
	ClaimedToDate *big.Int
	Timestamp     int64
}

func (AirdropClaimed) EventType() string { return TypeAirdropClaimed }

func (e AirdropClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeAirdropClaimed,
		Attributes: map[string]string{
			"recipient":     crypto.NewAddress(crypto.DropPrefix, e.Recipient[:]).String(),
			"token":         e.Token,
			"amount":        formatAmount(e.Amount),
			"entitlement":   formatAmount(e.Entitlement),
			"claimedToDate": formatAmount(e.ClaimedToDate),
			"timestamp":     strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// AirdropRootRotated is emitted when the owner replaces the merkle root.
type AirdropRootRotated struct {
	OldRoot [32]byte
	NewRoot [32]byte
}

func (AirdropRootRotated) EventType() string { return TypeAirdropRootRotated }

func (e AirdropRootRotated) Event() *types.Event {
	return &types.Event{
		Type: TypeAirdropRootRotated,
		Attributes: map[string]string{
			"oldRoot": hex.EncodeToString(e.OldRoot[:]),
			"newRoot": hex.EncodeToString(e.NewRoot[:]),
		},
	}
}

// AirdropTokensRescued is emitted when the owner withdraws tokens from the
// module vault.
type AirdropTokensRescued struct {
	Owner  [20]byte
	Token  string
	Amount *big.Int
}

func (AirdropTokensRescued) EventType() string { return TypeAirdropTokensRescued }

func (e AirdropTokensRescued) Event() *types.Event {
	return &types.Event{
		Type: TypeAirdropTokensRescued,
		Attributes: map[string]string{
			"owner":  crypto.NewAddress(crypto.DropPrefix, e.Owner[:]).String(),
			"token":  e.Token,
			"amount": formatAmount(e.Amount),
		},
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
