// Package engine wires the quote and composition pipeline together behind a
// single facade consumed by the API server and the CLI.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/araviel-io/onesol-swap-engine/internal/cache"
	"github.com/araviel-io/onesol-swap-engine/internal/compose"
	"github.com/araviel-io/onesol-swap-engine/internal/config"
	"github.com/araviel-io/onesol-swap-engine/internal/ledger"
	"github.com/araviel-io/onesol-swap-engine/internal/models"
	"github.com/araviel-io/onesol-swap-engine/internal/quote"
	"github.com/araviel-io/onesol-swap-engine/internal/resolver"
	"github.com/araviel-io/onesol-swap-engine/internal/session"
	"github.com/araviel-io/onesol-swap-engine/internal/storage"
	"github.com/araviel-io/onesol-swap-engine/internal/venue"
	"github.com/araviel-io/onesol-swap-engine/internal/wallet"
)

type Engine struct {
	client   *ledger.Client
	protocol *venue.Protocol
	venues   compose.VenueLoader

	cache     storage.TradeCache
	store     storage.TradeStore
	publisher storage.TradePublisher

	wallet *wallet.Wallet

	defaultSlippage float64
	log             *logrus.Logger
}

// New builds an engine from config: connects the RPC client, loads the
// protocol account, and attaches the cache, journal, and wallet
// collaborators. The journal and publisher are optional; the engine degrades
// to quote-and-compose only.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Engine, error) {
	if log == nil {
		log = logrus.New()
	}

	client := ledger.NewClient(ledger.ClientConfig{
		BaseURL:           cfg.RPCUrl,
		Timeout:           cfg.HTTPTimeout,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            log,
	})

	programID := solana.MustPublicKeyFromBase58(venue.DefaultProtocolProgramID)
	if cfg.ProtocolProgramID != "" {
		var err error
		programID, err = solana.PublicKeyFromBase58(cfg.ProtocolProgramID)
		if err != nil {
			return nil, fmt.Errorf("invalid protocol program id: %w", err)
		}
	}
	if cfg.ProtocolAddress == "" {
		return nil, fmt.Errorf("PROTOCOL_ADDRESS is required")
	}
	protocolAddress, err := solana.PublicKeyFromBase58(cfg.ProtocolAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid protocol address: %w", err)
	}

	protocol, err := venue.LoadProtocol(ctx, client, protocolAddress, programID)
	if err != nil {
		return nil, fmt.Errorf("load protocol: %w", err)
	}
	log.WithFields(logrus.Fields{
		"protocol":  protocol.Address,
		"authority": protocol.Authority,
	}).Info("protocol loaded")

	var hostFee *solana.PublicKey
	if cfg.HostFeeAccount != "" {
		pk, err := solana.PublicKeyFromBase58(cfg.HostFeeAccount)
		if err != nil {
			return nil, fmt.Errorf("invalid host fee account: %w", err)
		}
		hostFee = &pk
	}

	eng := &Engine{
		client:   client,
		protocol: protocol,
		venues: &compose.LedgerVenueLoader{
			Client:         client,
			HostFeeAccount: hostFee,
		},
		cache:           cache.NewRedisCache(cfg.RedisAddr),
		defaultSlippage: cfg.DefaultSlippage,
		log:             log,
	}

	if cfg.ClickHouseAddr != "" {
		store, err := cache.NewClickHouseStore(
			cfg.ClickHouseAddr,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUsername,
			cfg.ClickHousePassword,
			log,
		)
		if err != nil {
			log.WithError(err).Warn("trade journal unavailable, continuing without it")
		} else {
			eng.store = store
		}
	}

	eng.publisher = cache.NewPubSubManager(cfg.RedisAddr, log)

	if cfg.WalletPrivateKey != "" {
		w, err := wallet.New(wallet.Config{
			RPCURL:       cfg.RPCUrl,
			Timeout:      cfg.HTTPTimeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			PrivateKey:   cfg.WalletPrivateKey,
			Logger:       log,
		})
		if err != nil {
			return nil, err
		}
		eng.wallet = w
		log.WithField("address", w.Address()).Info("wallet loaded")
	}

	return eng, nil
}

func (e *Engine) Protocol() *venue.Protocol { return e.protocol }
func (e *Engine) Client() *ledger.Client    { return e.client }
func (e *Engine) Wallet() *wallet.Wallet    { return e.wallet }

func (e *Engine) Close() error {
	if e.store != nil {
		_ = e.store.Close()
	}
	if e.publisher != nil {
		_ = e.publisher.Close()
	}
	return e.cache.Close()
}

// QuoteRequest names a pool and the user's entered amounts. AmountOut of
// zero asks the engine to estimate the output from the pool curve first.
type QuoteRequest struct {
	Kind          venue.Kind
	PoolAddress   solana.PublicKey
	PoolProgramID solana.PublicKey
	InputMint     solana.PublicKey
	OutputMint    solana.PublicKey
	AmountIn      uint64
	AmountOut     uint64
	Slippage      float64
	PricedMint    solana.PublicKey
}

// Quote loads the pool record for the requested venue kind and its live
// reserves, then computes the off-chain estimate. A nil quote with nil error
// means no quote is available for the entered amounts.
func (e *Engine) Quote(ctx context.Context, req QuoteRequest) (*quote.Quote, error) {
	var (
		mintA, mintB       solana.PublicKey
		accountA, accountB solana.PublicKey
		feeNum             uint64
		feeDen             uint64 = 1
	)

	switch req.Kind {
	case venue.KindStableSwap:
		record, err := venue.LoadStableSwap(ctx, e.client, req.PoolAddress, req.PoolProgramID)
		if err != nil {
			return nil, err
		}
		mintA, mintB = record.MintA, record.MintB
		accountA, accountB = record.TokenAccountA, record.TokenAccountB
	default:
		record, err := venue.LoadTokenSwap(ctx, e.client, req.PoolAddress, req.PoolProgramID, nil)
		if err != nil {
			return nil, err
		}
		mintA, mintB = record.MintA, record.MintB
		accountA, accountB = record.TokenAccountA, record.TokenAccountB
		feeNum, feeDen = record.FeeNumerator, record.FeeDenominator
	}

	reserveA, err := e.client.GetTokenAccountBalance(ctx, accountA)
	if err != nil {
		return nil, fmt.Errorf("reserve A: %w", err)
	}
	reserveB, err := e.client.GetTokenAccountBalance(ctx, accountB)
	if err != nil {
		return nil, fmt.Errorf("reserve B: %w", err)
	}

	amountOut := req.AmountOut
	if amountOut == 0 {
		reserveIn, reserveOut := reserveA, reserveB
		if req.InputMint.Equals(mintB) {
			reserveIn, reserveOut = reserveB, reserveA
		}
		amountOut, err = quote.CalculateSwapOutput(
			req.AmountIn, reserveIn, reserveOut, feeNum, feeDen,
		)
		if err != nil {
			return nil, err
		}
	}

	slippage := req.Slippage
	if slippage == 0 {
		slippage = e.defaultSlippage
	}
	pricedMint := req.PricedMint
	if pricedMint.IsZero() {
		pricedMint = req.InputMint
	}

	return quote.Compute(quote.Params{
		MintA:      mintA,
		MintB:      mintB,
		LiquidityA: float64(reserveA),
		LiquidityB: float64(reserveB),
		InputMint:  req.InputMint,
		OutputMint: req.OutputMint,
		AmountIn:   float64(req.AmountIn),
		AmountOut:  float64(amountOut),
		Slippage:   slippage,
		FeeRate:    quote.FeeRate(feeNum, feeDen),
		PricedMint: pricedMint,
	})
}

// ComposeRequest is a route to turn into a submittable batch.
type ComposeRequest struct {
	Owner    solana.PublicKey
	Route    []compose.Hop
	Slippage float64
}

// Compose builds the instruction batch for a route, seeding the account
// resolver with the owner's cached holdings. Multi-hop routes carry a
// swap-info session account; a missing one is created in the same batch.
func (e *Engine) Compose(ctx context.Context, req ComposeRequest) (*compose.ComposedBatch, error) {
	holdings, err := e.cache.LoadHoldings(ctx, req.Owner.String())
	if err != nil {
		e.log.WithError(err).Warn("holdings cache unavailable, resolving fresh")
		holdings = nil
	}

	payer := req.Owner
	if e.wallet != nil {
		payer = e.wallet.PublicKey()
	}

	slippage := req.Slippage
	if slippage == 0 {
		slippage = e.defaultSlippage
	}

	composer := &compose.Composer{
		Protocol: e.protocol,
		Venues:   e.venues,
		Rent:     e.client,
		Cache:    resolver.NewMemoryCache(holdings),
		Payer:    payer,
		Logger:   e.log,
	}

	batch, err := composer.Compose(ctx, compose.Request{
		Owner:    req.Owner,
		Route:    req.Route,
		Slippage: slippage,
	})
	if err != nil {
		return nil, err
	}

	if len(req.Route) > 1 {
		if err := e.ensureSession(ctx, req.Owner, payer, batch); err != nil {
			return nil, err
		}
	}

	return batch, nil
}

// ensureSession prepends swap-info instructions for a route that carries an
// intermediate amount: creation plus a link to the first intermediate holding
// account when the owner has no active record, or a relink alone when the
// existing record points at a different account.
func (e *Engine) ensureSession(
	ctx context.Context,
	owner solana.PublicKey,
	payer solana.PublicKey,
	batch *compose.ComposedBatch,
) error {

	var intermediate solana.PublicKey
	if len(batch.HoldingAccounts) > 2 {
		intermediate = batch.HoldingAccounts[1]
	}

	existing, err := session.Find(ctx, e.client, e.protocol.ProgramID, owner)
	if err != nil {
		return err
	}
	if existing != nil {
		if !intermediate.IsZero() && !existing.TokenAccount.Equals(intermediate) {
			link := session.NewLinkTokenAccountIx(e.protocol.ProgramID, existing.Address, owner, intermediate)
			batch.Instructions = append([]solana.Instruction{link}, batch.Instructions...)
		}
		return nil
	}

	rent, err := e.client.GetMinimumBalanceForRentExemption(ctx, session.Span())
	if err != nil {
		return fmt.Errorf("session rent: %w", err)
	}

	ixs, signer, err := session.CreateInstructions(payer, e.protocol.ProgramID, rent)
	if err != nil {
		return err
	}
	if !intermediate.IsZero() {
		ixs = append(ixs, session.NewLinkTokenAccountIx(e.protocol.ProgramID, signer.PublicKey(), owner, intermediate))
	}

	batch.Instructions = append(ixs, batch.Instructions...)
	batch.EphemeralSigners = append(batch.EphemeralSigners, signer)
	return nil
}

// Submit signs and broadcasts a composed batch, then records the trade.
// Recording is best effort; the signature is returned even when the journal
// or feed is down.
func (e *Engine) Submit(ctx context.Context, batch *compose.ComposedBatch, route []compose.Hop) (string, error) {
	if e.wallet == nil {
		return "", fmt.Errorf("engine: no wallet configured")
	}

	sig, err := e.wallet.SubmitBatch(ctx, batch, nil)
	if err != nil {
		return "", err
	}

	// Accounts may have been created or closed; drop the stale snapshot.
	if err := e.cache.InvalidateHoldings(ctx, batch.Owner.String()); err != nil {
		e.log.WithError(err).Warn("failed to invalidate holdings")
	}

	e.recordTrade(ctx, buildTradeEvent(sig, batch.Owner, route))
	return sig, nil
}

func (e *Engine) recordTrade(ctx context.Context, trade *models.TradeEvent) {
	if trade == nil {
		return
	}
	if err := e.cache.AddRecentTrade(ctx, trade); err != nil {
		e.log.WithError(err).Warn("failed to cache trade")
	}
	if e.store != nil {
		if err := e.store.InsertTrade(ctx, trade); err != nil {
			e.log.WithError(err).Warn("failed to journal trade")
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishTrade(ctx, trade); err != nil {
			e.log.WithError(err).Warn("failed to publish trade")
		}
	}
}

// RecentTrades returns the most recent submitted trades.
func (e *Engine) RecentTrades(ctx context.Context, limit int64) ([]*models.TradeEvent, error) {
	return e.cache.GetRecentTrades(ctx, limit)
}

func buildTradeEvent(sig string, owner solana.PublicKey, route []compose.Hop) *models.TradeEvent {
	if len(route) == 0 {
		return nil
	}

	first := route[0]
	last := route[len(route)-1]

	return &models.TradeEvent{
		Signature:   sig,
		Timestamp:   time.Now().UTC(),
		Owner:       owner.String(),
		Pair:        first.InputMint.String() + "-" + last.OutputMint.String(),
		InputMint:   first.InputMint.String(),
		OutputMint:  last.OutputMint.String(),
		AmountIn:    first.AmountIn,
		ExpectedOut: last.ExpectedOut,
		Hops:        len(route),
		Venue:       first.Kind.String(),
	}
}
