package server

import "github.com/araviel-io/onesol-swap-engine/internal/quote"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// QuoteResponse wraps a computed quote. Available is false when the entered
// amounts cannot produce a quote yet.
type QuoteResponse struct {
	Available bool         `json:"available"`
	Quote     *quote.Quote `json:"quote,omitempty"`
}

// RouteHop is one hop of a swap route as supplied by the client.
type RouteHop struct {
	Kind        string `json:"kind"` // "constant-product" or "stable-swap"
	Address     string `json:"address"`
	ProgramID   string `json:"programId"`
	InputMint   string `json:"inputMint"`
	OutputMint  string `json:"outputMint"`
	AmountIn    uint64 `json:"amountIn"`
	ExpectedOut uint64 `json:"expectedOut"`
}

// ComposeRequest asks the engine to build (and optionally submit) a batch
// for a route.
type ComposeRequest struct {
	Owner    string     `json:"owner"`
	Route    []RouteHop `json:"route"`
	Slippage float64    `json:"slippage"`
	Submit   bool       `json:"submit"`
}

// InstructionAccount is one account meta of a serialized instruction.
type InstructionAccount struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// SerializedInstruction carries one composed instruction in a form the client
// can assemble and sign itself.
type SerializedInstruction struct {
	ProgramID string               `json:"programId"`
	Accounts  []InstructionAccount `json:"accounts"`
	Data      string               `json:"data"` // base64
}

// ComposeResponse returns the composed batch and, when submitted, the
// transaction signature.
type ComposeResponse struct {
	Instructions []SerializedInstruction `json:"instructions"`
	Signers      []string                `json:"signers"`
	Signature    string                  `json:"signature,omitempty"`
}
