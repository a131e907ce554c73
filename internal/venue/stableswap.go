package venue

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/araviel-io/onesol-swap-engine/internal/layout"
	"github.com/araviel-io/onesol-swap-engine/internal/ledger"
)

// stableSwapSchema describes a stable-swap pool record.
var stableSwapSchema = layout.NewSchema(
	layout.U8("isInitialized"),
	layout.U8("isPaused"),
	layout.U8("nonce"),
	layout.U64("initialAmpFactor"),
	layout.U64("targetAmpFactor"),
	layout.PublicKey("tokenAccountA"),
	layout.PublicKey("tokenAccountB"),
	layout.PublicKey("poolMint"),
	layout.PublicKey("mintA"),
	layout.PublicKey("mintB"),
	layout.PublicKey("adminFeeAccountA"),
	layout.PublicKey("adminFeeAccountB"),
)

// StableSwapRecord is the decoded on-ledger state of a stable-swap pool.
type StableSwapRecord struct {
	IsInitialized    bool
	IsPaused         bool
	Nonce            uint8
	InitialAmpFactor uint64
	TargetAmpFactor  uint64
	TokenAccountA    solana.PublicKey
	TokenAccountB    solana.PublicKey
	PoolMint         solana.PublicKey
	MintA            solana.PublicKey
	MintB            solana.PublicKey
	AdminFeeAccountA solana.PublicKey
	AdminFeeAccountB solana.PublicKey
}

// StableSwapRecordSpan is the exact byte length of a stable-swap pool record.
func StableSwapRecordSpan() int { return stableSwapSchema.Span() }

// DecodeStableSwapRecord parses a stable-swap pool record. A pool that is not
// initialized, or is paused, fails with ErrVenueUnavailable.
func DecodeStableSwapRecord(data []byte) (*StableSwapRecord, error) {
	values, err := stableSwapSchema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("stable swap record: %w", err)
	}

	initialized, _ := values.U8("isInitialized")
	paused, _ := values.U8("isPaused")
	if initialized != 1 || paused != 0 {
		return nil, fmt.Errorf("%w: stable swap initialized=%d paused=%d",
			ErrVenueUnavailable, initialized, paused)
	}

	nonce, _ := values.U8("nonce")
	initialAmp, _ := values.U64("initialAmpFactor")
	targetAmp, _ := values.U64("targetAmpFactor")
	tokenA, _ := values.PublicKey("tokenAccountA")
	tokenB, _ := values.PublicKey("tokenAccountB")
	poolMint, _ := values.PublicKey("poolMint")
	mintA, _ := values.PublicKey("mintA")
	mintB, _ := values.PublicKey("mintB")
	adminFeeA, _ := values.PublicKey("adminFeeAccountA")
	adminFeeB, _ := values.PublicKey("adminFeeAccountB")

	return &StableSwapRecord{
		IsInitialized:    true,
		IsPaused:         false,
		Nonce:            nonce,
		InitialAmpFactor: initialAmp.Uint64(),
		TargetAmpFactor:  targetAmp.Uint64(),
		TokenAccountA:    tokenA,
		TokenAccountB:    tokenB,
		PoolMint:         poolMint,
		MintA:            mintA,
		MintB:            mintB,
		AdminFeeAccountA: adminFeeA,
		AdminFeeAccountB: adminFeeB,
	}, nil
}

// StableSwapInfo is the stable-swap pool adapter.
type StableSwapInfo struct {
	ProgramID        solana.PublicKey
	SwapAccount      solana.PublicKey
	Authority        solana.PublicKey
	TokenAccountA    solana.PublicKey
	TokenAccountB    solana.PublicKey
	MintA            solana.PublicKey
	MintB            solana.PublicKey
	AdminFeeAccountA solana.PublicKey
	AdminFeeAccountB solana.PublicKey
}

func (i *StableSwapInfo) Kind() Kind { return KindStableSwap }

// SwapAccountKeys returns the trailing keys for a stable swap: swap account,
// authority, pool source, pool destination, then the admin-fee account of the
// side opposite the source (fees accrue against the side receiving the
// trade), the clock sysvar, and the venue program.
func (i *StableSwapInfo) SwapAccountKeys(sourceMint solana.PublicKey) ([]*solana.AccountMeta, error) {
	var poolSource, poolDestination, adminFee solana.PublicKey
	switch {
	case sourceMint.Equals(i.MintA):
		poolSource, poolDestination = i.TokenAccountA, i.TokenAccountB
		adminFee = i.AdminFeeAccountB
	case sourceMint.Equals(i.MintB):
		poolSource, poolDestination = i.TokenAccountB, i.TokenAccountA
		adminFee = i.AdminFeeAccountA
	default:
		return nil, fmt.Errorf("source mint %s does not match pool mints", sourceMint)
	}

	return []*solana.AccountMeta{
		{PublicKey: i.SwapAccount, IsSigner: false, IsWritable: false},
		{PublicKey: i.Authority, IsSigner: false, IsWritable: false},
		{PublicKey: poolSource, IsSigner: false, IsWritable: true},
		{PublicKey: poolDestination, IsSigner: false, IsWritable: true},
		{PublicKey: adminFee, IsSigner: false, IsWritable: true},
		{PublicKey: solana.SysVarClockPubkey, IsSigner: false, IsWritable: false},
		{PublicKey: i.ProgramID, IsSigner: false, IsWritable: false},
	}, nil
}

// LoadStableSwap fetches a stable-swap pool record and builds its adapter.
func LoadStableSwap(
	ctx context.Context,
	client *ledger.Client,
	address solana.PublicKey,
	programID solana.PublicKey,
) (*StableSwapInfo, error) {

	data, err := client.LoadAccount(ctx, address, programID)
	if err != nil {
		return nil, err
	}

	record, err := DecodeStableSwapRecord(data)
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

	return &StableSwapInfo{
		ProgramID:        programID,
		SwapAccount:      address,
		Authority:        authority,
		TokenAccountA:    record.TokenAccountA,
		TokenAccountB:    record.TokenAccountB,
		MintA:            record.MintA,
		MintB:            record.MintB,
		AdminFeeAccountA: record.AdminFeeAccountA,
		AdminFeeAccountB: record.AdminFeeAccountB,
	}, nil
}
