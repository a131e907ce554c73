package ledger

import "github.com/gagliardetto/solana-go"

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// AccountInfo is a decoded ledger account: its owning program, raw record
// bytes and lamport balance.
type AccountInfo struct {
	Owner    solana.PublicKey
	Data     []byte
	Lamports uint64
}

// KeyedAccount pairs an account with its address, as returned by
// getProgramAccounts.
type KeyedAccount struct {
	Pubkey  solana.PublicKey
	Account AccountInfo
}

// MemcmpFilter is an exact-byte-match predicate at a byte offset, used to
// narrow getProgramAccounts results.
type MemcmpFilter struct {
	Offset uint64
	Bytes  []byte
}
