package compose

import (
	"github.com/gagliardetto/solana-go"
)

// BatchBuilder is the mutable scratch state of one composition: the main
// instruction list, cleanup instructions that must run after every hop, and
// the ephemeral signers created along the way. Nothing leaves the builder
// until Finalize, which preserves the all-or-nothing contract: a failed
// composition is discarded, never partially submitted.
type BatchBuilder struct {
	ixs     []solana.Instruction
	cleanup []solana.Instruction
	signers []solana.PrivateKey
}

func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{}
}

func (b *BatchBuilder) AddInstruction(ix solana.Instruction) {
	b.ixs = append(b.ixs, ix)
}

func (b *BatchBuilder) AddCleanup(ix solana.Instruction) {
	b.cleanup = append(b.cleanup, ix)
}

func (b *BatchBuilder) AddSigner(key solana.PrivateKey) {
	b.signers = append(b.signers, key)
}

// Finalize concatenates the main list with cleanup (cleanup strictly last)
// and returns the finished batch.
func (b *BatchBuilder) Finalize(payer, owner solana.PublicKey) *ComposedBatch {
	instructions := make([]solana.Instruction, 0, len(b.ixs)+len(b.cleanup))
	instructions = append(instructions, b.ixs...)
	instructions = append(instructions, b.cleanup...)

	return &ComposedBatch{
		Instructions:     instructions,
		EphemeralSigners: b.signers,
		Payer:            payer,
		Owner:            owner,
	}
}

// ComposedBatch is a complete, orderable instruction list plus everything the
// submitter needs to sign it. The composer owns this value; it owns no ledger
// accounts and has submitted nothing.
type ComposedBatch struct {
	Instructions []solana.Instruction

	// EphemeralSigners are keypairs generated during composition (wrapped
	// native accounts). The payer and owner sign with externally held keys.
	EphemeralSigners []solana.PrivateKey

	// HoldingAccounts are the resolved token accounts in route order:
	// HoldingAccounts[i] is hop i's source and HoldingAccounts[i+1] its
	// destination, so indexes 1..len-2 carry the intermediate amounts.
	HoldingAccounts []solana.PublicKey

	Payer solana.PublicKey
	Owner solana.PublicKey
}

// SignerKeys returns every public key whose signature the batch requires.
func (c *ComposedBatch) SignerKeys() []solana.PublicKey {
	keys := []solana.PublicKey{c.Payer}
	if !c.Owner.Equals(c.Payer) {
		keys = append(keys, c.Owner)
	}
	for _, s := range c.EphemeralSigners {
		keys = append(keys, s.PublicKey())
	}
	return keys
}
