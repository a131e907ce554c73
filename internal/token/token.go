package token

import (
	"github.com/gagliardetto/solana-go"
)

var (
	// WrappedSOLMint is the mint of the wrapped-native-SOL token.
	WrappedSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	// AssociatedTokenProgramID is the SPL Associated Token Account program.
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// AccountSpan is the fixed byte length of an SPL token account record.
const AccountSpan = 165

// FindAssociatedTokenAddress derives the deterministic ATA for (owner, mint).
func FindAssociatedTokenAddress(owner, mint solana.PublicKey) (ata solana.PublicKey, bump uint8, err error) {
	// Seeds: [owner, token_program, mint]
	return solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			solana.TokenProgramID.Bytes(),
			mint.Bytes(),
		},
		AssociatedTokenProgramID,
	)
}
