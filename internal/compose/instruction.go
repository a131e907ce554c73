package compose

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/araviel-io/onesol-swap-engine/internal/layout"
	"github.com/araviel-io/onesol-swap-engine/internal/venue"
)

// swapSchema is the wire payload of one aggregator swap instruction. The
// trailing byte carries the venue suffix key count so the program can parse
// variable-length trailing key lists.
var swapSchema = layout.NewSchema(
	layout.U8("instruction"),
	layout.U64("amountIn"),
	layout.U64("expectAmountOut"),
	layout.U64("minimumAmountOut"),
	layout.U8("dexesConfig"),
	layout.U8("venueFlag"),
	layout.U8("venueAccountsLen"),
)

// buildSwapInstruction encodes one hop's swap instruction: payload per
// swapSchema, account list = common prefix + the adapter's venue suffix.
func buildSwapInstruction(
	protocol *venue.Protocol,
	adapter venue.Adapter,
	userTransferAuthority solana.PublicKey,
	userSource solana.PublicKey,
	userDestination solana.PublicKey,
	sourceMint solana.PublicKey,
	amountIn uint64,
	expectAmountOut uint64,
	minimumAmountOut uint64,
) (solana.Instruction, error) {

	venueKeys, err := adapter.SwapAccountKeys(sourceMint)
	if err != nil {
		return nil, fmt.Errorf("%s venue keys: %w", adapter.Kind(), err)
	}

	data, err := swapSchema.Encode(layout.Values{
		"instruction":      venue.OpSwap,
		"amountIn":         new(big.Int).SetUint64(amountIn),
		"expectAmountOut":  new(big.Int).SetUint64(expectAmountOut),
		"minimumAmountOut": new(big.Int).SetUint64(minimumAmountOut),
		"dexesConfig":      uint8(1),
		"venueFlag":        uint8(1),
		"venueAccountsLen": uint8(len(venueKeys)),
	})
	if err != nil {
		return nil, fmt.Errorf("encode swap payload: %w", err)
	}

	// Common prefix, order-significant: protocol account, authority, user
	// transfer authority, protocol token account, user source, user
	// destination, token program.
	keys := []*solana.AccountMeta{
		{PublicKey: protocol.Address, IsSigner: false, IsWritable: false},
		{PublicKey: protocol.Authority, IsSigner: false, IsWritable: false},
		{PublicKey: userTransferAuthority, IsSigner: true, IsWritable: false},
		{PublicKey: protocol.TokenAccount, IsSigner: false, IsWritable: true},
		{PublicKey: userSource, IsSigner: false, IsWritable: true},
		{PublicKey: userDestination, IsSigner: false, IsWritable: true},
		{PublicKey: protocol.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	keys = append(keys, venueKeys...)

	return solana.NewInstruction(protocol.ProgramID, keys, data), nil
}
