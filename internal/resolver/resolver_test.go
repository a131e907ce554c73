package resolver

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araviel-io/onesol-swap-engine/internal/token"
)

// recordingBatch captures everything a resolution emits.
type recordingBatch struct {
	ixs     []solana.Instruction
	cleanup []solana.Instruction
	signers []solana.PrivateKey
}

func (b *recordingBatch) AddInstruction(ix solana.Instruction) { b.ixs = append(b.ixs, ix) }
func (b *recordingBatch) AddCleanup(ix solana.Instruction)     { b.cleanup = append(b.cleanup, ix) }
func (b *recordingBatch) AddSigner(key solana.PrivateKey)      { b.signers = append(b.signers, key) }

func TestResolve_WrappedNativeIsAlwaysFresh(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	r := New(nil, owner, 2_039_280, nil)
	batch := &recordingBatch{}

	first, err := r.Resolve(owner, token.WrappedSOLMint, 1_000_000, batch, nil)
	require.NoError(t, err)
	second, err := r.Resolve(owner, token.WrappedSOLMint, 1_000_000, batch, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "wrapped-native accounts are single-use")
	// Two create+init pairs, one close and one signer per resolution.
	assert.Len(t, batch.ixs, 4)
	assert.Len(t, batch.cleanup, 2)
	assert.Len(t, batch.signers, 2)
}

func TestResolve_WrappedNativeFunding(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	const rent = 2_039_280
	const amount = 5_000_000

	r := New(nil, owner, rent, nil)
	batch := &recordingBatch{}

	_, err := r.Resolve(owner, token.WrappedSOLMint, amount, batch, nil)
	require.NoError(t, err)
	require.Len(t, batch.ixs, 2)

	// CreateAccount data: u32 index | u64 lamports | u64 space | owner.
	data, err := batch.ixs[0].Data()
	require.NoError(t, err)
	require.Len(t, data, 52)
	lamports := uint64(data[4]) | uint64(data[5])<<8 | uint64(data[6])<<16 | uint64(data[7])<<24 |
		uint64(data[8])<<32 | uint64(data[9])<<40 | uint64(data[10])<<48 | uint64(data[11])<<56
	assert.Equal(t, uint64(amount+rent), lamports)
}

func TestResolve_WrappedNativeClosesToOwner(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	require.False(t, payer.Equals(owner))

	r := New(nil, payer, 2_039_280, nil)
	batch := &recordingBatch{}

	_, err := r.Resolve(owner, token.WrappedSOLMint, 1_000_000, batch, nil)
	require.NoError(t, err)
	require.Len(t, batch.ixs, 2)
	require.Len(t, batch.cleanup, 1)

	// Init sets the token-account authority to the owner, not the payer.
	initKeys := batch.ixs[1].Accounts()
	require.Len(t, initKeys, 4)
	assert.Equal(t, owner, initKeys[2].PublicKey)

	// Close: account, destination, close authority. Only the account owner may
	// close, and the unwrapped lamports go back to the owner even when a
	// separate payer funded the account.
	closeKeys := batch.cleanup[0].Accounts()
	require.Len(t, closeKeys, 3)
	assert.Equal(t, owner, closeKeys[1].PublicKey)
	assert.Equal(t, owner, closeKeys[2].PublicKey)
	assert.True(t, closeKeys[2].IsSigner)
}

func TestResolve_CacheHit(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	existing := solana.NewWallet().PublicKey()

	cache := NewMemoryCache([]HoldingAccount{
		{Pubkey: existing, Mint: mint, Owner: owner, Amount: 100},
	})

	r := New(cache, owner, 0, nil)
	batch := &recordingBatch{}

	got, err := r.Resolve(owner, mint, 0, batch, nil)
	require.NoError(t, err)
	assert.Equal(t, existing, got)
	assert.Empty(t, batch.ixs, "cache hit must not emit instructions")
}

func TestResolve_ExcludedCacheEntry(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	existing := solana.NewWallet().PublicKey()

	cache := NewMemoryCache([]HoldingAccount{
		{Pubkey: existing, Mint: mint, Owner: owner},
	})

	r := New(cache, owner, 0, nil)
	batch := &recordingBatch{}

	got, err := r.Resolve(owner, mint, 0, batch, map[solana.PublicKey]bool{existing: true})
	require.NoError(t, err)
	assert.NotEqual(t, existing, got, "excluded account must not be reused")
	assert.Len(t, batch.ixs, 1, "falls through to creation")
}

func TestResolve_CreateIsIdempotentPerBatch(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	r := New(NewMemoryCache(nil), owner, 0, nil)
	batch := &recordingBatch{}

	first, err := r.Resolve(owner, mint, 0, batch, nil)
	require.NoError(t, err)
	second, err := r.Resolve(owner, mint, 0, batch, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, batch.ixs, 1, "creation emitted at most once per batch")

	ata, _, err := token.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, ata, first, "address is the deterministic associated account")
}

func TestMemoryCache_Find(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	cache := NewMemoryCache([]HoldingAccount{
		{Pubkey: solana.NewWallet().PublicKey(), Mint: mint, Owner: other},
		{Pubkey: solana.NewWallet().PublicKey(), Mint: other, Owner: owner},
	})

	_, ok := cache.Find(owner, mint, nil)
	assert.False(t, ok, "neither owner+mint pair matches")
}
