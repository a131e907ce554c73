package venue

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/araviel-io/onesol-swap-engine/internal/layout"
	"github.com/araviel-io/onesol-swap-engine/internal/ledger"
)

// DefaultProtocolProgramID is the mainnet aggregator program.
const DefaultProtocolProgramID = "26XgL6X46AHxcMkfDNfnfQHrqZGzYEcTLj9SmAV5dLrV"

var protocolSchema = layout.NewSchema(
	layout.U8("version"),
	layout.U8("nonce"),
	layout.PublicKey("tokenProgramId"),
	layout.PublicKey("tokenAccount"),
	layout.PublicKey("mint"),
)

// ProtocolRecord is the decoded on-ledger state of the aggregator program's
// own account.
type ProtocolRecord struct {
	Version        uint8
	Nonce          uint8
	TokenProgramID solana.PublicKey
	TokenAccount   solana.PublicKey
	Mint           solana.PublicKey
}

// DecodeProtocolRecord parses a protocol account record and validates its
// version.
func DecodeProtocolRecord(data []byte) (*ProtocolRecord, error) {
	values, err := protocolSchema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("protocol record: %w", err)
	}

	version, _ := values.U8("version")
	if version != 1 {
		return nil, fmt.Errorf("%w: protocol record version %d", ErrInvalidRecordVersion, version)
	}

	nonce, _ := values.U8("nonce")
	tokenProgram, _ := values.PublicKey("tokenProgramId")
	tokenAccount, _ := values.PublicKey("tokenAccount")
	mint, _ := values.PublicKey("mint")

	return &ProtocolRecord{
		Version:        version,
		Nonce:          nonce,
		TokenProgramID: tokenProgram,
		TokenAccount:   tokenAccount,
		Mint:           mint,
	}, nil
}

// Protocol is a loaded aggregator protocol account ready to anchor swap
// instructions: its address, owning program and derived authority.
type Protocol struct {
	Address        solana.PublicKey
	ProgramID      solana.PublicKey
	TokenProgramID solana.PublicKey
	TokenAccount   solana.PublicKey
	Authority      solana.PublicKey
	Nonce          uint8
}

// LoadProtocol fetches and decodes the protocol account, then derives its
// program-derived authority from the account address. The nonce in the record
// and the address deterministically produce the same authority.
func LoadProtocol(
	ctx context.Context,
	client *ledger.Client,
	address solana.PublicKey,
	programID solana.PublicKey,
) (*Protocol, error) {

	data, err := client.LoadAccount(ctx, address, programID)
	if err != nil {
		return nil, err
	}

	record, err := DecodeProtocolRecord(data)
	if err != nil {
		return nil, err
	}

	authority, _, err := solana.FindProgramAddress(
		[][]byte{address.Bytes()},
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive protocol authority: %w", err)
	}

	return &Protocol{
		Address:        address,
		ProgramID:      programID,
		TokenProgramID: record.TokenProgramID,
		TokenAccount:   record.TokenAccount,
		Authority:      authority,
		Nonce:          record.Nonce,
	}, nil
}
