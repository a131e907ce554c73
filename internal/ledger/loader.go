package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrOwnerMismatch indicates the account is owned by a different program
	// than expected.
	ErrOwnerMismatch = errors.New("account owner mismatch")
)

// LoadAccount fetches the raw record bytes of an account and verifies it is
// owned by the expected program. Retry policy belongs to the Client; this does
// a single fetch and one ownership check.
func (c *Client) LoadAccount(
	ctx context.Context,
	address solana.PublicKey,
	expectedOwner solana.PublicKey,
) ([]byte, error) {

	info, err := c.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if !info.Owner.Equals(expectedOwner) {
		return nil, fmt.Errorf("%w: %s owned by %s, expected %s",
			ErrOwnerMismatch, address, info.Owner, expectedOwner)
	}

	return info.Data, nil
}
