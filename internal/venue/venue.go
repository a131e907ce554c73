// Package venue holds one adapter per supported pool kind. An adapter knows
// its on-ledger record layout and the exact ordered account-reference list the
// venue's program expects after the aggregator's common key prefix.
package venue

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrInvalidRecordVersion indicates a pool record whose version or
	// initialization flag does not match what this engine understands.
	ErrInvalidRecordVersion = errors.New("invalid record version")

	// ErrVenueUnavailable indicates a pool that exists but cannot serve a
	// swap right now (uninitialized or paused).
	ErrVenueUnavailable = errors.New("venue unavailable")
)

// Kind identifies a supported pool type. The set is closed: adding a venue
// means adding a variant and an adapter, not extending a dispatch table.
type Kind uint8

const (
	KindConstantProduct Kind = iota + 1
	KindStableSwap
)

func (k Kind) String() string {
	switch k {
	case KindConstantProduct:
		return "constant-product"
	case KindStableSwap:
		return "stable-swap"
	default:
		return "unknown"
	}
}

// Aggregator program opcodes.
const (
	OpInitializeProtocol uint8 = 0
	OpSwap               uint8 = 1
	OpCreateSwapInfo     uint8 = 2
	OpLinkTokenAccount   uint8 = 3
)

// Adapter produces the venue-specific trailing account keys for a swap
// instruction. Key count and order are a contract of the external program.
type Adapter interface {
	Kind() Kind

	// SwapAccountKeys returns the ordered trailing account metas for a swap
	// whose input asset is sourceMint, ending with the venue program address.
	SwapAccountKeys(sourceMint solana.PublicKey) ([]*solana.AccountMeta, error)
}
