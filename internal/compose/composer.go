// Package compose builds the complete, orderable instruction batch for a
// swap route: setup (holding account resolution), one swap instruction per
// hop, then cleanup, with the full signer set aggregated along the way.
package compose

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/araviel-io/onesol-swap-engine/internal/ledger"
	"github.com/araviel-io/onesol-swap-engine/internal/resolver"
	"github.com/araviel-io/onesol-swap-engine/internal/token"
	"github.com/araviel-io/onesol-swap-engine/internal/venue"
)

var (
	// ErrNoViableHop indicates an empty route.
	ErrNoViableHop = errors.New("no viable hop")

	// ErrAssetMismatch indicates adjacent hops whose assets do not chain.
	ErrAssetMismatch = errors.New("asset mismatch between hops")
)

// Hop is one leg of a route, executed against exactly one venue.
type Hop struct {
	Kind        venue.Kind
	Address     solana.PublicKey // venue record address
	ProgramID   solana.PublicKey // venue program
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	AmountIn    uint64
	ExpectedOut uint64
}

// Request describes one composition: the user, an already-chosen route, and
// the slippage bound applied to every hop's expected output.
type Request struct {
	Owner    solana.PublicKey
	Route    []Hop
	Slippage float64
}

// VenueLoader loads the adapter for a hop's venue. Loading validates the
// venue record, so ErrVenueUnavailable and ErrInvalidRecordVersion surface
// here.
type VenueLoader interface {
	Load(ctx context.Context, hop Hop) (venue.Adapter, error)
}

// RentProvider supplies the rent-exempt minimum for a record span.
// *ledger.Client satisfies it.
type RentProvider interface {
	GetMinimumBalanceForRentExemption(ctx context.Context, span uint64) (uint64, error)
}

// Composer builds instruction batches for swap routes. It performs no
// retries and submits nothing: any sub-step failure discards the whole batch.
type Composer struct {
	Protocol *venue.Protocol
	Venues   VenueLoader
	Rent     RentProvider
	Cache    resolver.HoldingCache
	Payer    solana.PublicKey
	Logger   *logrus.Logger
}

// Compose runs the full pipeline: resolve endpoint holding accounts, verify
// the route chains, emit one swap instruction per hop in route order, then
// cleanup strictly last. Hop instructions are built concurrently but land in
// pre-allocated positions, so the final ordering is deterministic regardless
// of completion order.
func (c *Composer) Compose(ctx context.Context, req Request) (*ComposedBatch, error) {
	logger := c.Logger
	if logger == nil {
		logger = logrus.New()
	}

	if len(req.Route) == 0 {
		return nil, ErrNoViableHop
	}

	for i := 0; i < len(req.Route)-1; i++ {
		if !req.Route[i].OutputMint.Equals(req.Route[i+1].InputMint) {
			return nil, fmt.Errorf("%w: hop %d outputs %s, hop %d expects %s",
				ErrAssetMismatch, i, req.Route[i].OutputMint, i+1, req.Route[i+1].InputMint)
		}
	}

	rent, err := c.Rent.GetMinimumBalanceForRentExemption(ctx, token.AccountSpan)
	if err != nil {
		return nil, fmt.Errorf("rent-exempt minimum: %w", err)
	}

	batch := NewBatchBuilder()
	res := resolver.New(c.Cache, c.Payer, rent, logger)

	// accounts[i] is hop i's source; accounts[i+1] its destination. For the
	// route start, the wrapped-native path funds the account with the input
	// amount; intermediate and final accounts only receive.
	accounts := make([]solana.PublicKey, len(req.Route)+1)
	accounts[0], err = res.Resolve(req.Owner, req.Route[0].InputMint, req.Route[0].AmountIn, batch, nil)
	if err != nil {
		return nil, err
	}
	for i, hop := range req.Route {
		accounts[i+1], err = res.Resolve(req.Owner, hop.OutputMint, 0, batch, nil)
		if err != nil {
			return nil, err
		}
	}

	ixs := make([]solana.Instruction, len(req.Route))
	errs := make([]error, len(req.Route))

	var wg sync.WaitGroup
	for i := range req.Route {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hop := req.Route[i]

			adapter, err := c.Venues.Load(ctx, hop)
			if err != nil {
				errs[i] = fmt.Errorf("hop %d: %w", i, err)
				return
			}

			minimumOut := applySlippage(hop.ExpectedOut, req.Slippage)
			ix, err := buildSwapInstruction(
				c.Protocol,
				adapter,
				req.Owner,
				accounts[i],
				accounts[i+1],
				hop.InputMint,
				hop.AmountIn,
				hop.ExpectedOut,
				minimumOut,
			)
			if err != nil {
				errs[i] = fmt.Errorf("hop %d: %w", i, err)
				return
			}
			ixs[i] = ix
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	for _, ix := range ixs {
		batch.AddInstruction(ix)
	}

	composed := batch.Finalize(c.Payer, req.Owner)
	composed.HoldingAccounts = accounts

	logger.WithFields(logrus.Fields{
		"hops":         len(req.Route),
		"instructions": len(composed.Instructions),
		"signers":      len(composed.SignerKeys()),
	}).Debug("route composed")

	return composed, nil
}

func applySlippage(expectedOut uint64, slippage float64) uint64 {
	if slippage <= 0 {
		return expectedOut
	}
	if slippage >= 1 {
		return 0
	}
	return uint64(float64(expectedOut) * (1 - slippage))
}

// LedgerVenueLoader loads venue adapters from the ledger.
type LedgerVenueLoader struct {
	Client *ledger.Client

	// HostFeeAccount, when set, is appended to constant-product swaps.
	HostFeeAccount *solana.PublicKey
}

func (l *LedgerVenueLoader) Load(ctx context.Context, hop Hop) (venue.Adapter, error) {
	switch hop.Kind {
	case venue.KindConstantProduct:
		return venue.LoadTokenSwap(ctx, l.Client, hop.Address, hop.ProgramID, l.HostFeeAccount)
	case venue.KindStableSwap:
		return venue.LoadStableSwap(ctx, l.Client, hop.Address, hop.ProgramID)
	default:
		return nil, fmt.Errorf("unsupported venue kind %d", hop.Kind)
	}
}
