// Package resolver finds or creates the holding account a swap needs for one
// (owner, asset) pair. It never talks to the ledger: creation is expressed as
// instructions emitted into the caller's batch, so a returned address is
// usable by later instructions in the same batch even when the account does
// not exist yet.
package resolver

import (
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/araviel-io/onesol-swap-engine/internal/token"
)

// HoldingAccount is a balance-bearing account for one fungible asset.
type HoldingAccount struct {
	Pubkey   solana.PublicKey `json:"pubkey"`
	Mint     solana.PublicKey `json:"mint"`
	Owner    solana.PublicKey `json:"owner"`
	Amount   uint64           `json:"amount"`
	IsNative bool             `json:"is_native"`
}

// HoldingCache is a read-only snapshot of an owner's existing holding
// accounts. Refreshing it is an external collaborator's concern; a stale
// cache only costs an unnecessary creation instruction, never an unsafe one.
type HoldingCache interface {
	Find(owner, mint solana.PublicKey, excluded map[solana.PublicKey]bool) (*HoldingAccount, bool)
}

// Batch receives the setup instructions, cleanup instructions and ephemeral
// signers a resolution produces.
type Batch interface {
	AddInstruction(ix solana.Instruction)
	AddCleanup(ix solana.Instruction)
	AddSigner(key solana.PrivateKey)
}

// Resolver resolves holding accounts for one instruction batch. Create one
// per batch: it remembers which accounts it has already emitted creation
// instructions for, so repeated resolutions of the same non-native mint are
// idempotent.
type Resolver struct {
	cache      HoldingCache
	payer      solana.PublicKey
	rentExempt uint64
	logger     *logrus.Logger

	created map[solana.PublicKey]bool
}

func New(cache HoldingCache, payer solana.PublicKey, rentExempt uint64, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{
		cache:      cache,
		payer:      payer,
		rentExempt: rentExempt,
		logger:     logger,
		created:    make(map[solana.PublicKey]bool),
	}
}

// Resolve returns the holding account to use for (owner, mint), emitting any
// instructions needed to make it exist into batch.
//
// The wrapped-native mint always gets a fresh ephemeral account funded with
// amount plus the rent-exempt minimum; its keypair joins the signer set and a
// close instruction goes into cleanup so the wrapped balance returns to
// native form after the swap. Wrapped-native accounts are single-use per
// batch and never come from the cache.
//
// Any other mint reuses a cached holding account when one exists outside
// excluded, else resolves to the deterministic associated address and emits
// its creation at most once per batch.
func (r *Resolver) Resolve(
	owner solana.PublicKey,
	mint solana.PublicKey,
	amount uint64,
	batch Batch,
	excluded map[solana.PublicKey]bool,
) (solana.PublicKey, error) {

	if mint.Equals(token.WrappedSOLMint) {
		return r.resolveWrappedNative(owner, amount, batch), nil
	}

	if r.cache != nil {
		if acc, ok := r.cache.Find(owner, mint, excluded); ok && !acc.IsNative {
			return acc.Pubkey, nil
		}
	}

	ata, _, err := token.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	if !r.created[ata] {
		batch.AddInstruction(token.NewCreateAssociatedTokenAccountIx(r.payer, ata, owner, mint))
		r.created[ata] = true
		r.logger.WithFields(logrus.Fields{
			"owner": owner.String(),
			"mint":  mint.String(),
			"ata":   ata.String(),
		}).Debug("emitting holding account creation")
	}

	return ata, nil
}

func (r *Resolver) resolveWrappedNative(owner solana.PublicKey, amount uint64, batch Batch) solana.PublicKey {
	wallet := solana.NewWallet()
	account := wallet.PublicKey()

	batch.AddInstruction(token.NewCreateAccountIx(
		r.payer,
		account,
		amount+r.rentExempt,
		token.AccountSpan,
		solana.TokenProgramID,
	))
	batch.AddInstruction(token.NewInitAccountIx(account, token.WrappedSOLMint, owner))
	batch.AddCleanup(token.NewCloseAccountIx(account, owner, owner))
	batch.AddSigner(wallet.PrivateKey)

	return account
}

// MemoryCache is a HoldingCache over an in-memory snapshot, typically loaded
// from the external account store.
type MemoryCache struct {
	accounts []HoldingAccount
}

func NewMemoryCache(accounts []HoldingAccount) *MemoryCache {
	return &MemoryCache{accounts: accounts}
}

func (c *MemoryCache) Find(owner, mint solana.PublicKey, excluded map[solana.PublicKey]bool) (*HoldingAccount, bool) {
	for i := range c.accounts {
		acc := &c.accounts[i]
		if !acc.Owner.Equals(owner) || !acc.Mint.Equals(mint) {
			continue
		}
		if excluded != nil && excluded[acc.Pubkey] {
			continue
		}
		return acc, true
	}
	return nil, false
}
