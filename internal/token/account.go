package token

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/araviel-io/onesol-swap-engine/internal/layout"
)

// accountSchema describes the SPL token account record.
var accountSchema = layout.NewSchema(
	layout.PublicKey("mint"),
	layout.PublicKey("owner"),
	layout.U64("amount"),
	layout.U32("delegateOption"),
	layout.PublicKey("delegate"),
	layout.U8("state"),
	layout.U32("isNativeOption"),
	layout.U64("isNative"),
	layout.U64("delegatedAmount"),
	layout.U32("closeAuthorityOption"),
	layout.PublicKey("closeAuthority"),
)

// Account is the decoded form of an SPL token account record.
type Account struct {
	Mint     solana.PublicKey
	Owner    solana.PublicKey
	Amount   uint64
	IsNative bool
}

// DecodeAccount parses a 165-byte SPL token account record.
func DecodeAccount(data []byte) (*Account, error) {
	values, err := accountSchema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("token account: %w", err)
	}

	mint, _ := values.PublicKey("mint")
	owner, _ := values.PublicKey("owner")
	amount, _ := values.U64("amount")
	nativeOpt, _ := values.U32("isNativeOption")

	return &Account{
		Mint:     mint,
		Owner:    owner,
		Amount:   amount.Uint64(),
		IsNative: nativeOpt != 0,
	}, nil
}
