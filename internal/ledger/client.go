package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client is an HTTP client with retry, pacing and timeout support for Solana RPC
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	logger       *logrus.Logger
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// RequestsPerSecond caps outbound request rate; 0 disables pacing.
	RequestsPerSecond float64

	Logger *logrus.Logger
}

// NewClient creates a new RPC client with retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      cfg.BaseURL,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		limiter:      limiter,
		logger:       cfg.Logger,
	}
}

// Call makes a JSON-RPC call with retry logic
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  method,
			}).Debug("retrying RPC call")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		resp, err := c.doRequest(ctx, data)
		if err != nil {
			lastErr = err
			continue
		}

		if err := json.Unmarshal(resp, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// GetAccountInfo fetches a single account. A nil result with nil error means
// the account does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*AccountInfo, error) {
	params := []interface{}{
		address.String(),
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": "confirmed",
		},
	}

	var resp struct {
		Result struct {
			Value *rawAccount `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	if err := c.Call(ctx, "getAccountInfo", params, &resp); err != nil {
		return nil, fmt.Errorf("getAccountInfo RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getAccountInfo error: %s", resp.Error.Message)
	}
	if resp.Result.Value == nil {
		return nil, nil
	}

	return resp.Result.Value.parse()
}

// GetProgramAccounts fetches all accounts owned by a program that match the
// given byte-offset filters.
func (c *Client) GetProgramAccounts(
	ctx context.Context,
	program solana.PublicKey,
	filters []MemcmpFilter,
) ([]KeyedAccount, error) {

	rpcFilters := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		rpcFilters = append(rpcFilters, map[string]interface{}{
			"memcmp": map[string]interface{}{
				"offset": f.Offset,
				"bytes":  base58.Encode(f.Bytes),
			},
		})
	}

	params := []interface{}{
		program.String(),
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": "confirmed",
			"filters":    rpcFilters,
		},
	}

	var resp struct {
		Result []struct {
			Pubkey  string     `json:"pubkey"`
			Account rawAccount `json:"account"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	if err := c.Call(ctx, "getProgramAccounts", params, &resp); err != nil {
		return nil, fmt.Errorf("getProgramAccounts RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getProgramAccounts error: %s", resp.Error.Message)
	}

	out := make([]KeyedAccount, 0, len(resp.Result))
	for _, entry := range resp.Result {
		pubkey, err := solana.PublicKeyFromBase58(entry.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("invalid pubkey in response: %w", err)
		}
		info, err := entry.Account.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, KeyedAccount{Pubkey: pubkey, Account: *info})
	}

	return out, nil
}

// GetMinimumBalanceForRentExemption returns the lamports needed to make an
// account of the given span rent-exempt.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, span uint64) (uint64, error) {
	var resp struct {
		Result uint64    `json:"result"`
		Error  *RPCError `json:"error"`
	}

	params := []interface{}{span}

	if err := c.Call(ctx, "getMinimumBalanceForRentExemption", params, &resp); err != nil {
		return 0, fmt.Errorf("getMinimumBalanceForRentExemption RPC failed: %w", err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getMinimumBalanceForRentExemption error: %s", resp.Error.Message)
	}

	return resp.Result, nil
}

// GetTokenAccountBalance fetches the raw token balance of a token account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var resp struct {
		Result struct {
			Value struct {
				Amount   string `json:"amount"`
				Decimals uint8  `json:"decimals"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []interface{}{account.String()}

	if err := c.Call(ctx, "getTokenAccountBalance", params, &resp); err != nil {
		return 0, fmt.Errorf("getTokenAccountBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getTokenAccountBalance error: %s", resp.Error.Message)
	}

	var amount uint64
	if _, err := fmt.Sscanf(resp.Result.Value.Amount, "%d", &amount); err != nil {
		return 0, fmt.Errorf("invalid amount format: %w", err)
	}

	return amount, nil
}

// GetLatestBlockhash fetches the most recent blockhash
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var resp struct {
		Result struct {
			Value struct {
				Blockhash            string `json:"blockhash"`
				LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []interface{}{
		map[string]interface{}{"commitment": "processed"},
	}

	if err := c.Call(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}
	if resp.Error != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash error: %s", resp.Error.Message)
	}

	hash, err := solana.HashFromBase58(resp.Result.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}

	return hash, nil
}

// rawAccount is the wire form of account info with base64 data.
type rawAccount struct {
	Owner    string   `json:"owner"`
	Data     []string `json:"data"` // [payload, encoding]
	Lamports uint64   `json:"lamports"`
}

func (r *rawAccount) parse() (*AccountInfo, error) {
	owner, err := solana.PublicKeyFromBase58(r.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner in response: %w", err)
	}

	var data []byte
	if len(r.Data) > 0 && r.Data[0] != "" {
		data, err = base64.StdEncoding.DecodeString(r.Data[0])
		if err != nil {
			return nil, fmt.Errorf("invalid account data encoding: %w", err)
		}
	}

	return &AccountInfo{
		Owner:    owner,
		Data:     data,
		Lamports: r.Lamports,
	}, nil
}
