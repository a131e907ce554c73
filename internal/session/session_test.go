package session

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araviel-io/onesol-swap-engine/internal/layout"
	"github.com/araviel-io/onesol-swap-engine/internal/ledger"
	"github.com/araviel-io/onesol-swap-engine/internal/venue"
)

func encodeSwapInfo(t *testing.T, initialized, status uint8, amount uint64, owner, tokenAccount solana.PublicKey) []byte {
	t.Helper()
	data, err := swapInfoSchema.Encode(layout.Values{
		"isInitialized": initialized,
		"status":        status,
		"tokenAmount":   new(big.Int).SetUint64(amount),
		"owner":         owner,
		"tokenAccount":  tokenAccount,
	})
	require.NoError(t, err)
	return data
}

func TestDecodeSwapInfo(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	tokenAccount := solana.NewWallet().PublicKey()
	address := solana.NewWallet().PublicKey()

	data := encodeSwapInfo(t, 1, StatusActive, 5_000, owner, tokenAccount)
	require.Len(t, data, int(Span()))

	info, err := DecodeSwapInfo(address, data)
	require.NoError(t, err)
	assert.Equal(t, address, info.Address)
	assert.Equal(t, StatusActive, info.Status)
	assert.Equal(t, uint64(5_000), info.TokenAmount.Uint64())
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, tokenAccount, info.TokenAccount)
}

func TestDecodeSwapInfo_Uninitialized(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	data := encodeSwapInfo(t, 0, StatusFresh, 0, owner, owner)

	_, err := DecodeSwapInfo(solana.NewWallet().PublicKey(), data)
	assert.ErrorIs(t, err, venue.ErrInvalidRecordVersion)
}

func TestDecodeSwapInfo_BadLength(t *testing.T) {
	_, err := DecodeSwapInfo(solana.NewWallet().PublicKey(), make([]byte, Span()-1))
	assert.ErrorIs(t, err, layout.ErrMalformedRecord)
}

func TestCreateInstructions(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	programID := solana.MustPublicKeyFromBase58(venue.DefaultProtocolProgramID)

	ixs, signer, err := CreateInstructions(payer, programID, 1_500_000)
	require.NoError(t, err)
	require.Len(t, ixs, 2)

	createIx := ixs[0]
	assert.Equal(t, solana.SystemProgramID, createIx.ProgramID())

	data, err := createIx.Data()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint64(1_500_000), binary.LittleEndian.Uint64(data[4:12]))
	assert.Equal(t, Span(), binary.LittleEndian.Uint64(data[12:20]))
	assert.Equal(t, programID.Bytes(), data[20:52])

	metas := createIx.Accounts()
	require.Len(t, metas, 2)
	assert.Equal(t, payer, metas[0].PublicKey)
	assert.Equal(t, signer.PublicKey(), metas[1].PublicKey)
	assert.True(t, metas[1].IsSigner)

	initIx := ixs[1]
	assert.Equal(t, programID, initIx.ProgramID())
	initData, err := initIx.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{venue.OpCreateSwapInfo}, initData)
	assert.Equal(t, signer.PublicKey(), initIx.Accounts()[0].PublicKey)
}

func TestNewLinkTokenAccountIx(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	swapInfo := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	tokenAccount := solana.NewWallet().PublicKey()

	ix := NewLinkTokenAccountIx(programID, swapInfo, owner, tokenAccount)
	assert.Equal(t, programID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{venue.OpLinkTokenAccount}, data)

	metas := ix.Accounts()
	require.Len(t, metas, 3)
	assert.True(t, metas[0].IsWritable)
	assert.True(t, metas[1].IsSigner)
	assert.Equal(t, tokenAccount, metas[2].PublicKey)
}

func findServer(t *testing.T, accounts []map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "getProgramAccounts", req.Method)
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, mustJSON(t, accounts))
	}))
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestFind(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	tokenAccount := solana.NewWallet().PublicKey()
	address := solana.NewWallet().PublicKey()
	programID := solana.MustPublicKeyFromBase58(venue.DefaultProtocolProgramID)

	data := encodeSwapInfo(t, 1, StatusActive, 250, owner, tokenAccount)
	srv := findServer(t, []map[string]interface{}{
		{
			"pubkey": address.String(),
			"account": map[string]interface{}{
				"owner":    programID.String(),
				"data":     []string{base64.StdEncoding.EncodeToString(data), "base64"},
				"lamports": 1_500_000,
			},
		},
	})
	defer srv.Close()

	client := ledger.NewClient(ledger.ClientConfig{BaseURL: srv.URL})

	info, err := Find(context.Background(), client, programID, owner)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, address, info.Address)
	assert.Equal(t, uint64(250), info.TokenAmount.Uint64())
	assert.Equal(t, owner, info.Owner)
}

func TestFind_None(t *testing.T) {
	srv := findServer(t, []map[string]interface{}{})
	defer srv.Close()

	client := ledger.NewClient(ledger.ClientConfig{BaseURL: srv.URL})
	programID := solana.MustPublicKeyFromBase58(venue.DefaultProtocolProgramID)

	info, err := Find(context.Background(), client, programID, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Nil(t, info)
}
