package venue

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/araviel-io/onesol-swap-engine/internal/layout"
	"github.com/araviel-io/onesol-swap-engine/internal/ledger"
)

// tokenSwapSchema describes a constant-product pool record.
var tokenSwapSchema = layout.NewSchema(
	layout.U8("version"),
	layout.U8("isInitialized"),
	layout.U8("nonce"),
	layout.PublicKey("tokenProgramId"),
	layout.PublicKey("tokenAccountA"),
	layout.PublicKey("tokenAccountB"),
	layout.PublicKey("poolMint"),
	layout.PublicKey("mintA"),
	layout.PublicKey("mintB"),
	layout.PublicKey("feeAccount"),
	layout.U64("tradeFeeNumerator"),
	layout.U64("tradeFeeDenominator"),
)

// TokenSwapRecord is the decoded on-ledger state of a constant-product pool.
type TokenSwapRecord struct {
	Version        uint8
	IsInitialized  bool
	Nonce          uint8
	TokenProgramID solana.PublicKey
	TokenAccountA  solana.PublicKey
	TokenAccountB  solana.PublicKey
	PoolMint       solana.PublicKey
	MintA          solana.PublicKey
	MintB          solana.PublicKey
	FeeAccount     solana.PublicKey
	FeeNumerator   uint64
	FeeDenominator uint64
}

// TokenSwapRecordSpan is the exact byte length of a constant-product pool record.
func TokenSwapRecordSpan() int { return tokenSwapSchema.Span() }

// DecodeTokenSwapRecord parses a constant-product pool record and validates
// its version and initialization flag.
func DecodeTokenSwapRecord(data []byte) (*TokenSwapRecord, error) {
	values, err := tokenSwapSchema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("token swap record: %w", err)
	}

	version, _ := values.U8("version")
	initialized, _ := values.U8("isInitialized")
	if version != 1 || initialized != 1 {
		return nil, fmt.Errorf("%w: token swap version=%d initialized=%d",
			ErrInvalidRecordVersion, version, initialized)
	}

	nonce, _ := values.U8("nonce")
	tokenProgram, _ := values.PublicKey("tokenProgramId")
	tokenA, _ := values.PublicKey("tokenAccountA")
	tokenB, _ := values.PublicKey("tokenAccountB")
	poolMint, _ := values.PublicKey("poolMint")
	mintA, _ := values.PublicKey("mintA")
	mintB, _ := values.PublicKey("mintB")
	feeAccount, _ := values.PublicKey("feeAccount")
	feeNum, _ := values.U64("tradeFeeNumerator")
	feeDen, _ := values.U64("tradeFeeDenominator")

	return &TokenSwapRecord{
		Version:        version,
		IsInitialized:  true,
		Nonce:          nonce,
		TokenProgramID: tokenProgram,
		TokenAccountA:  tokenA,
		TokenAccountB:  tokenB,
		PoolMint:       poolMint,
		MintA:          mintA,
		MintB:          mintB,
		FeeAccount:     feeAccount,
		FeeNumerator:   feeNum.Uint64(),
		FeeDenominator: feeDen.Uint64(),
	}, nil
}

// TokenSwapInfo is the constant-product pool adapter.
type TokenSwapInfo struct {
	ProgramID     solana.PublicKey
	SwapAccount   solana.PublicKey
	Authority     solana.PublicKey
	TokenAccountA solana.PublicKey
	TokenAccountB solana.PublicKey
	MintA         solana.PublicKey
	MintB         solana.PublicKey
	PoolMint      solana.PublicKey
	FeeAccount    solana.PublicKey

	// HostFeeAccount, when configured, collects a host referral fee and is
	// appended as an extra trailing key.
	HostFeeAccount *solana.PublicKey

	FeeNumerator   uint64
	FeeDenominator uint64
}

func (i *TokenSwapInfo) Kind() Kind { return KindConstantProduct }

// SwapAccountKeys returns the trailing keys for a constant-product swap:
// swap account, authority, pool source, pool destination, pool mint, fee
// account, venue program, then the optional host fee account.
func (i *TokenSwapInfo) SwapAccountKeys(sourceMint solana.PublicKey) ([]*solana.AccountMeta, error) {
	poolSource, poolDestination := i.TokenAccountA, i.TokenAccountB
	switch {
	case sourceMint.Equals(i.MintA):
		// already oriented
	case sourceMint.Equals(i.MintB):
		poolSource, poolDestination = i.TokenAccountB, i.TokenAccountA
	default:
		return nil, fmt.Errorf("source mint %s does not match pool mints", sourceMint)
	}

	keys := []*solana.AccountMeta{
		{PublicKey: i.SwapAccount, IsSigner: false, IsWritable: false},
		{PublicKey: i.Authority, IsSigner: false, IsWritable: false},
		{PublicKey: poolSource, IsSigner: false, IsWritable: true},
		{PublicKey: poolDestination, IsSigner: false, IsWritable: true},
		{PublicKey: i.PoolMint, IsSigner: false, IsWritable: true},
		{PublicKey: i.FeeAccount, IsSigner: false, IsWritable: true},
		{PublicKey: i.ProgramID, IsSigner: false, IsWritable: false},
	}
	if i.HostFeeAccount != nil {
		keys = append(keys, &solana.AccountMeta{
			PublicKey: *i.HostFeeAccount, IsSigner: false, IsWritable: true,
		})
	}
	return keys, nil
}

// LoadTokenSwap fetches a constant-product pool record and builds its adapter.
// hostFeeAccount may be nil.
func LoadTokenSwap(
	ctx context.Context,
	client *ledger.Client,
	address solana.PublicKey,
	programID solana.PublicKey,
	hostFeeAccount *solana.PublicKey,
) (*TokenSwapInfo, error) {

	data, err := client.LoadAccount(ctx, address, programID)
	if err != nil {
		return nil, err
	}

	record, err := DecodeTokenSwapRecord(data)
	if err != nil {
		return nil, err
	}

	authority, _, err := solana.FindProgramAddress(
		[][]byte{address.Bytes()},
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive pool authority: %w", err)
	}

	return &TokenSwapInfo{
		ProgramID:      programID,
		SwapAccount:    address,
		Authority:      authority,
		TokenAccountA:  record.TokenAccountA,
		TokenAccountB:  record.TokenAccountB,
		MintA:          record.MintA,
		MintB:          record.MintB,
		PoolMint:       record.PoolMint,
		FeeAccount:     record.FeeAccount,
		HostFeeAccount: hostFeeAccount,
		FeeNumerator:   record.FeeNumerator,
		FeeDenominator: record.FeeDenominator,
	}, nil
}
