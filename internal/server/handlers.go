package server

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/araviel-io/onesol-swap-engine/internal/compose"
	"github.com/araviel-io/onesol-swap-engine/internal/engine"
	"github.com/araviel-io/onesol-swap-engine/internal/ledger"
	"github.com/araviel-io/onesol-swap-engine/internal/venue"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Engine  *engine.Engine
	DevMode bool
	Logger  *logrus.Logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Quote computes an off-chain estimate for a pool and the entered amounts.
// Required query parameters: pool, inputMint, outputMint, amountIn.
func (h *Handlers) Quote(c echo.Context) error {
	pool, err := parseKeyParam(c, "pool")
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pool", map[string]any{"pool": "must be base58"})
	}
	inputMint, err := parseKeyParam(c, "inputMint")
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid inputMint", map[string]any{"inputMint": "must be base58"})
	}
	outputMint, err := parseKeyParam(c, "outputMint")
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid outputMint", map[string]any{"outputMint": "must be base58"})
	}

	amountIn, err := strconv.ParseUint(strings.TrimSpace(c.QueryParam("amountIn")), 10, 64)
	if err != nil || amountIn == 0 {
		return h.err(c, http.StatusBadRequest, "invalid amountIn", map[string]any{"amountIn": "must be positive uint64"})
	}

	var amountOut uint64
	if v := strings.TrimSpace(c.QueryParam("amountOut")); v != "" {
		amountOut, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid amountOut", map[string]any{"amountOut": "must be uint64"})
		}
	}

	var slippage float64
	if v := strings.TrimSpace(c.QueryParam("slippage")); v != "" {
		slippage, err = strconv.ParseFloat(v, 64)
		if err != nil || slippage < 0 || slippage >= 1 {
			return h.err(c, http.StatusBadRequest, "invalid slippage", map[string]any{"slippage": "must be in [0, 1)"})
		}
	}

	programID := h.Engine.Protocol().ProgramID
	if v := strings.TrimSpace(c.QueryParam("programId")); v != "" {
		programID, err = solana.PublicKeyFromBase58(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid programId", map[string]any{"programId": "must be base58"})
		}
	}

	pricedMint := inputMint
	if v := strings.TrimSpace(c.QueryParam("pricedMint")); v != "" {
		pricedMint, err = solana.PublicKeyFromBase58(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid pricedMint", map[string]any{"pricedMint": "must be base58"})
		}
	}

	kind := venue.KindConstantProduct
	if v := strings.TrimSpace(c.QueryParam("kind")); v != "" {
		kind, err = parseVenueKind(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid kind", map[string]any{"kind": err.Error()})
		}
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	q, err := h.Engine.Quote(ctx, engine.QuoteRequest{
		Kind:          kind,
		PoolAddress:   pool,
		PoolProgramID: programID,
		InputMint:     inputMint,
		OutputMint:    outputMint,
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		Slippage:      slippage,
		PricedMint:    pricedMint,
	})
	if err != nil {
		return h.domainErr(c, err, "quote failed")
	}

	return c.JSON(http.StatusOK, QuoteResponse{Available: q != nil, Quote: q})
}

// Compose builds the instruction batch for a route and optionally submits it.
func (h *Handlers) Compose(c echo.Context) error {
	var req ComposeRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	owner, err := solana.PublicKeyFromBase58(strings.TrimSpace(req.Owner))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid owner", map[string]any{"owner": "must be base58"})
	}

	route, err := parseRoute(req.Route)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid route", map[string]any{"route": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	batch, err := h.Engine.Compose(ctx, engine.ComposeRequest{
		Owner:    owner,
		Route:    route,
		Slippage: req.Slippage,
	})
	if err != nil {
		return h.domainErr(c, err, "compose failed")
	}

	serialized, err := serializeInstructions(batch.Instructions)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "serialize failed", map[string]any{"err": err.Error()})
	}

	resp := ComposeResponse{Instructions: serialized}
	for _, key := range batch.SignerKeys() {
		resp.Signers = append(resp.Signers, key.String())
	}

	if req.Submit {
		sig, err := h.Engine.Submit(ctx, batch, route)
		if err != nil {
			return h.err(c, http.StatusBadGateway, "submit failed", map[string]any{"err": err.Error()})
		}
		resp.Signature = sig
	}

	return c.JSON(http.StatusOK, resp)
}

// RecentTrades returns the most recent submitted trades with optional limit
// parameter (default: 100, range: 1-200)
func (h *Handlers) RecentTrades(c echo.Context) error {
	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Engine.RecentTrades(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get trades", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// domainErr maps engine errors onto HTTP status codes.
func (h *Handlers) domainErr(c echo.Context, err error, msg string) error {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		return h.err(c, http.StatusNotFound, "account not found", map[string]any{"err": err.Error()})
	case errors.Is(err, ledger.ErrOwnerMismatch),
		errors.Is(err, venue.ErrInvalidRecordVersion):
		return h.err(c, http.StatusUnprocessableEntity, "bad pool record", map[string]any{"err": err.Error()})
	case errors.Is(err, venue.ErrVenueUnavailable):
		return h.err(c, http.StatusConflict, "venue unavailable", map[string]any{"err": err.Error()})
	case errors.Is(err, compose.ErrNoViableHop),
		errors.Is(err, compose.ErrAssetMismatch):
		return h.err(c, http.StatusBadRequest, err.Error(), nil)
	default:
		return h.err(c, http.StatusInternalServerError, msg, map[string]any{"err": err.Error()})
	}
}

func parseKeyParam(c echo.Context, name string) (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(strings.TrimSpace(c.QueryParam(name)))
}

// serializeInstructions converts composed instructions into the JSON form a
// non-submitting client signs and sends itself.
func serializeInstructions(ixs []solana.Instruction) ([]SerializedInstruction, error) {
	out := make([]SerializedInstruction, 0, len(ixs))
	for _, ix := range ixs {
		data, err := ix.Data()
		if err != nil {
			return nil, err
		}

		accounts := make([]InstructionAccount, 0, len(ix.Accounts()))
		for _, meta := range ix.Accounts() {
			accounts = append(accounts, InstructionAccount{
				Pubkey:     meta.PublicKey.String(),
				IsSigner:   meta.IsSigner,
				IsWritable: meta.IsWritable,
			})
		}

		out = append(out, SerializedInstruction{
			ProgramID: ix.ProgramID().String(),
			Accounts:  accounts,
			Data:      base64.StdEncoding.EncodeToString(data),
		})
	}
	return out, nil
}

func parseVenueKind(s string) (venue.Kind, error) {
	switch s {
	case "constant-product":
		return venue.KindConstantProduct, nil
	case "stable-swap":
		return venue.KindStableSwap, nil
	default:
		return 0, errors.New("unknown venue kind: " + s)
	}
}

func parseRoute(hops []RouteHop) ([]compose.Hop, error) {
	if len(hops) == 0 {
		return nil, errors.New("route is empty")
	}

	route := make([]compose.Hop, 0, len(hops))
	for _, hop := range hops {
		kind, err := parseVenueKind(hop.Kind)
		if err != nil {
			return nil, err
		}

		address, err := solana.PublicKeyFromBase58(hop.Address)
		if err != nil {
			return nil, errors.New("invalid hop address")
		}
		programID, err := solana.PublicKeyFromBase58(hop.ProgramID)
		if err != nil {
			return nil, errors.New("invalid hop programId")
		}
		inputMint, err := solana.PublicKeyFromBase58(hop.InputMint)
		if err != nil {
			return nil, errors.New("invalid hop inputMint")
		}
		outputMint, err := solana.PublicKeyFromBase58(hop.OutputMint)
		if err != nil {
			return nil, errors.New("invalid hop outputMint")
		}
		if hop.AmountIn == 0 {
			return nil, errors.New("hop amountIn must be positive")
		}

		route = append(route, compose.Hop{
			Kind:        kind,
			Address:     address,
			ProgramID:   programID,
			InputMint:   inputMint,
			OutputMint:  outputMint,
			AmountIn:    hop.AmountIn,
			ExpectedOut: hop.ExpectedOut,
		})
	}
	return route, nil
}
