package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araviel-io/onesol-swap-engine/internal/compose"
	"github.com/araviel-io/onesol-swap-engine/internal/token"
)

func TestParsePrivateKey_Base58(t *testing.T) {
	key := solana.NewWallet().PrivateKey

	parsed, err := parsePrivateKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), parsed.PublicKey())
}

func TestParsePrivateKey_JSONArray(t *testing.T) {
	key := solana.NewWallet().PrivateKey

	ints := make([]int, len(key))
	for i, b := range []byte(key) {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)

	parsed, err := parsePrivateKey(string(raw))
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), parsed.PublicKey())
}

func TestParsePrivateKey_Invalid(t *testing.T) {
	_, err := parsePrivateKey("not-a-key")
	assert.Error(t, err)

	_, err = parsePrivateKey("[1,2,3]")
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{RPCURL: "http://localhost:8899"})
	assert.Error(t, err, "private key is required")
}

func rpcServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		methods = append(methods, req.Method)

		switch req.Method {
		case "getLatestBlockhash":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":{"value":{"blockhash":"%s","lastValidBlockHeight":100}}}`,
				solana.NewWallet().PublicKey().String())
		case "sendTransaction":
			fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":"5igDhdzWEvTLcBz6irvWPRi7Kzyxfh4BRuJ8rQq7HvJW"}`)
		default:
			fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":null}`)
		}
	}))
	return srv, &methods
}

func testWallet(t *testing.T, rpcURL string) *Wallet {
	t.Helper()
	w, err := New(Config{
		RPCURL:     rpcURL,
		PrivateKey: solana.NewWallet().PrivateKey.String(),
	})
	require.NoError(t, err)
	return w
}

func TestSubmitBatch(t *testing.T) {
	srv, methods := rpcServer(t)
	defer srv.Close()

	w := testWallet(t, srv.URL)
	ephemeral := solana.NewWallet()

	// One funding transfer signed by the wallet, one account init that the
	// ephemeral key must co-sign via CreateAccount.
	createIx := token.NewCreateAccountIx(w.PublicKey(), ephemeral.PublicKey(), 1_000, token.AccountSpan, solana.TokenProgramID)

	batch := &compose.ComposedBatch{
		Instructions:     []solana.Instruction{createIx},
		EphemeralSigners: []solana.PrivateKey{ephemeral.PrivateKey},
		Payer:            w.PublicKey(),
		Owner:            w.PublicKey(),
	}

	sig, err := w.SubmitBatch(context.Background(), batch, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
	assert.Equal(t, []string{"getLatestBlockhash", "sendTransaction"}, *methods)
}

func TestSubmitBatch_PayerMismatch(t *testing.T) {
	srv, _ := rpcServer(t)
	defer srv.Close()

	w := testWallet(t, srv.URL)
	batch := &compose.ComposedBatch{
		Instructions: []solana.Instruction{
			token.NewSystemTransferIx(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 1),
		},
		Payer: solana.NewWallet().PublicKey(),
	}

	_, err := w.SubmitBatch(context.Background(), batch, nil)
	assert.ErrorContains(t, err, "payer")
}

func TestSubmitBatch_Empty(t *testing.T) {
	srv, _ := rpcServer(t)
	defer srv.Close()

	w := testWallet(t, srv.URL)
	_, err := w.SubmitBatch(context.Background(), nil, nil)
	assert.Error(t, err)

	_, err = w.SubmitBatch(context.Background(), &compose.ComposedBatch{Payer: w.PublicKey()}, nil)
	assert.Error(t, err)
}
