package server

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araviel-io/onesol-swap-engine/internal/token"
	"github.com/araviel-io/onesol-swap-engine/internal/venue"
)

func TestHealth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &Handlers{}
	require.NoError(t, h.Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func validHop() RouteHop {
	return RouteHop{
		Kind:        "constant-product",
		Address:     solana.NewWallet().PublicKey().String(),
		ProgramID:   solana.NewWallet().PublicKey().String(),
		InputMint:   solana.NewWallet().PublicKey().String(),
		OutputMint:  solana.NewWallet().PublicKey().String(),
		AmountIn:    1000,
		ExpectedOut: 990,
	}
}

func TestParseRoute(t *testing.T) {
	hop := validHop()
	route, err := parseRoute([]RouteHop{hop})
	require.NoError(t, err)
	require.Len(t, route, 1)
	assert.Equal(t, venue.KindConstantProduct, route[0].Kind)
	assert.Equal(t, hop.Address, route[0].Address.String())
	assert.Equal(t, uint64(1000), route[0].AmountIn)

	hop.Kind = "stable-swap"
	route, err = parseRoute([]RouteHop{hop})
	require.NoError(t, err)
	assert.Equal(t, venue.KindStableSwap, route[0].Kind)
}

func TestParseRoute_Invalid(t *testing.T) {
	_, err := parseRoute(nil)
	assert.Error(t, err)

	hop := validHop()
	hop.Kind = "serum"
	_, err = parseRoute([]RouteHop{hop})
	assert.ErrorContains(t, err, "unknown venue kind")

	hop = validHop()
	hop.Address = "not-base58!"
	_, err = parseRoute([]RouteHop{hop})
	assert.ErrorContains(t, err, "address")

	hop = validHop()
	hop.AmountIn = 0
	_, err = parseRoute([]RouteHop{hop})
	assert.ErrorContains(t, err, "amountIn")
}

func TestParseVenueKind(t *testing.T) {
	kind, err := parseVenueKind("constant-product")
	require.NoError(t, err)
	assert.Equal(t, venue.KindConstantProduct, kind)

	kind, err = parseVenueKind("stable-swap")
	require.NoError(t, err)
	assert.Equal(t, venue.KindStableSwap, kind)

	_, err = parseVenueKind("serum")
	assert.ErrorContains(t, err, "unknown venue kind")
}

func TestSerializeInstructions(t *testing.T) {
	account := solana.NewWallet().PublicKey()
	destination := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	out, err := serializeInstructions([]solana.Instruction{
		token.NewCloseAccountIx(account, destination, owner),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	ix := out[0]
	assert.Equal(t, solana.TokenProgramID.String(), ix.ProgramID)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{9}), ix.Data)

	require.Len(t, ix.Accounts, 3)
	assert.Equal(t, account.String(), ix.Accounts[0].Pubkey)
	assert.True(t, ix.Accounts[0].IsWritable)
	assert.Equal(t, owner.String(), ix.Accounts[2].Pubkey)
	assert.True(t, ix.Accounts[2].IsSigner)
	assert.False(t, ix.Accounts[2].IsWritable)
}

func TestNotFoundJSON(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := NotFoundJSON()
	handler(echo.NewHTTPError(http.StatusNotFound), c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":404`)
}
