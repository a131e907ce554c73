// Package session manages the per-user swap-info account that the aggregator
// program uses to carry intermediate amounts between hops of a route.
package session

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/araviel-io/onesol-swap-engine/internal/layout"
	"github.com/araviel-io/onesol-swap-engine/internal/ledger"
	"github.com/araviel-io/onesol-swap-engine/internal/venue"
)

// Swap-info status values as stored in the record.
const (
	StatusFresh   uint8 = 0
	StatusActive  uint8 = 1
	StatusSettled uint8 = 2
)

var swapInfoSchema = layout.NewSchema(
	layout.U8("isInitialized"),
	layout.U8("status"),
	layout.U64("tokenAmount"),
	layout.PublicKey("owner"),
	layout.PublicKey("tokenAccount"),
)

// Span is the byte size of a swap-info account record.
func Span() uint64 { return uint64(swapInfoSchema.Span()) }

// SwapInfo is a decoded swap-info account.
type SwapInfo struct {
	Address      solana.PublicKey
	Status       uint8
	TokenAmount  *big.Int
	Owner        solana.PublicKey
	TokenAccount solana.PublicKey
}

// DecodeSwapInfo parses a swap-info record. Uninitialized records are
// rejected.
func DecodeSwapInfo(address solana.PublicKey, data []byte) (*SwapInfo, error) {
	values, err := swapInfoSchema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("swap info record: %w", err)
	}

	initialized, _ := values.U8("isInitialized")
	if initialized != 1 {
		return nil, fmt.Errorf("%w: swap info not initialized", venue.ErrInvalidRecordVersion)
	}

	status, _ := values.U8("status")
	amount, _ := values.U64("tokenAmount")
	owner, _ := values.PublicKey("owner")
	tokenAccount, _ := values.PublicKey("tokenAccount")

	return &SwapInfo{
		Address:      address,
		Status:       status,
		TokenAmount:  amount,
		Owner:        owner,
		TokenAccount: tokenAccount,
	}, nil
}

// Find locates an existing active swap-info account for owner by scanning the
// program's accounts. Returns (nil, nil) when the owner has none.
func Find(
	ctx context.Context,
	client *ledger.Client,
	programID solana.PublicKey,
	owner solana.PublicKey,
) (*SwapInfo, error) {

	filters := []ledger.MemcmpFilter{
		{Offset: 0, Bytes: []byte{1}},            // isInitialized
		{Offset: 1, Bytes: []byte{StatusActive}}, // status
		{Offset: 10, Bytes: owner.Bytes()},       // owner
	}

	accounts, err := client.GetProgramAccounts(ctx, programID, filters)
	if err != nil {
		return nil, fmt.Errorf("find swap info: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}

	return DecodeSwapInfo(accounts[0].Pubkey, accounts[0].Account.Data)
}

// CreateInstructions builds the instruction pair that allocates and
// initializes a fresh swap-info account. The returned private key must sign
// the transaction that carries the instructions.
func CreateInstructions(
	payer solana.PublicKey,
	programID solana.PublicKey,
	rentExempt uint64,
) ([]solana.Instruction, solana.PrivateKey, error) {

	wallet := solana.NewWallet()
	account := wallet.PublicKey()

	createIx := newCreateSwapInfoAccountIx(payer, account, rentExempt, programID)
	initIx := NewInitializeIx(programID, account, payer)

	return []solana.Instruction{createIx, initIx}, wallet.PrivateKey, nil
}

func newCreateSwapInfoAccountIx(
	payer solana.PublicKey,
	account solana.PublicKey,
	lamports uint64,
	programID solana.PublicKey,
) solana.Instruction {

	data := make([]byte, 4+8+8+32)
	binary.LittleEndian.PutUint32(data[0:4], 0) // SystemProgram CreateAccount
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	binary.LittleEndian.PutUint64(data[12:20], Span())
	copy(data[20:52], programID.Bytes())

	accounts := []*solana.AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: account, IsSigner: true, IsWritable: true},
	}
	return solana.NewInstruction(solana.SystemProgramID, accounts, data)
}

// NewInitializeIx builds the aggregator instruction that initializes an
// allocated swap-info account for owner.
func NewInitializeIx(programID, account, owner solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: account, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: true, IsWritable: false},
	}
	return solana.NewInstruction(programID, accounts, []byte{venue.OpCreateSwapInfo})
}

// NewLinkTokenAccountIx builds the aggregator instruction that points a
// swap-info account at the holding account carrying the intermediate amount.
func NewLinkTokenAccountIx(programID, swapInfo, owner, tokenAccount solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: swapInfo, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: true, IsWritable: false},
		{PublicKey: tokenAccount, IsSigner: false, IsWritable: false},
	}
	return solana.NewInstruction(programID, accounts, []byte{venue.OpLinkTokenAccount})
}
