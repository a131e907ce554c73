package venue

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pk(t *testing.T) solana.PublicKey {
	t.Helper()
	return solana.NewWallet().PublicKey()
}

func testTokenSwap(t *testing.T) *TokenSwapInfo {
	return &TokenSwapInfo{
		ProgramID:     pk(t),
		SwapAccount:   pk(t),
		Authority:     pk(t),
		TokenAccountA: pk(t),
		TokenAccountB: pk(t),
		MintA:         pk(t),
		MintB:         pk(t),
		PoolMint:      pk(t),
		FeeAccount:    pk(t),
	}
}

func TestTokenSwap_SwapAccountKeys(t *testing.T) {
	info := testTokenSwap(t)

	keys, err := info.SwapAccountKeys(info.MintA)
	require.NoError(t, err)
	require.Len(t, keys, 7)

	assert.Equal(t, info.SwapAccount, keys[0].PublicKey)
	assert.Equal(t, info.Authority, keys[1].PublicKey)
	assert.Equal(t, info.TokenAccountA, keys[2].PublicKey)
	assert.Equal(t, info.TokenAccountB, keys[3].PublicKey)
	assert.Equal(t, info.PoolMint, keys[4].PublicKey)
	assert.Equal(t, info.FeeAccount, keys[5].PublicKey)
	assert.Equal(t, info.ProgramID, keys[6].PublicKey)

	// Reverse direction swaps the pool source and destination.
	keys, err = info.SwapAccountKeys(info.MintB)
	require.NoError(t, err)
	assert.Equal(t, info.TokenAccountB, keys[2].PublicKey)
	assert.Equal(t, info.TokenAccountA, keys[3].PublicKey)
}

func TestTokenSwap_HostFeeAccountAppended(t *testing.T) {
	info := testTokenSwap(t)
	hostFee := pk(t)
	info.HostFeeAccount = &hostFee

	keys, err := info.SwapAccountKeys(info.MintA)
	require.NoError(t, err)
	require.Len(t, keys, 8)
	assert.Equal(t, hostFee, keys[7].PublicKey)
	assert.True(t, keys[7].IsWritable)
}

func TestTokenSwap_UnknownSourceMint(t *testing.T) {
	info := testTokenSwap(t)

	_, err := info.SwapAccountKeys(pk(t))
	assert.Error(t, err)
}

func testStableSwap(t *testing.T) *StableSwapInfo {
	return &StableSwapInfo{
		ProgramID:        pk(t),
		SwapAccount:      pk(t),
		Authority:        pk(t),
		TokenAccountA:    pk(t),
		TokenAccountB:    pk(t),
		MintA:            pk(t),
		MintB:            pk(t),
		AdminFeeAccountA: pk(t),
		AdminFeeAccountB: pk(t),
	}
}

func TestStableSwap_AdminFeeOppositeSide(t *testing.T) {
	info := testStableSwap(t)

	// Source = A side: fee account must be the B side's.
	keys, err := info.SwapAccountKeys(info.MintA)
	require.NoError(t, err)
	require.Len(t, keys, 7)
	assert.Equal(t, info.TokenAccountA, keys[2].PublicKey)
	assert.Equal(t, info.TokenAccountB, keys[3].PublicKey)
	assert.Equal(t, info.AdminFeeAccountB, keys[4].PublicKey)

	// Source = B side: fee account must be the A side's.
	keys, err = info.SwapAccountKeys(info.MintB)
	require.NoError(t, err)
	assert.Equal(t, info.TokenAccountB, keys[2].PublicKey)
	assert.Equal(t, info.TokenAccountA, keys[3].PublicKey)
	assert.Equal(t, info.AdminFeeAccountA, keys[4].PublicKey)
}

func TestStableSwap_TrailingClockAndProgram(t *testing.T) {
	info := testStableSwap(t)

	keys, err := info.SwapAccountKeys(info.MintA)
	require.NoError(t, err)
	assert.Equal(t, solana.SysVarClockPubkey, keys[5].PublicKey)
	assert.Equal(t, info.ProgramID, keys[6].PublicKey)
}

func TestStableSwap_UnknownSourceMint(t *testing.T) {
	info := testStableSwap(t)

	_, err := info.SwapAccountKeys(pk(t))
	assert.Error(t, err)
}

func TestDecodeStableSwapRecord_Paused(t *testing.T) {
	data := make([]byte, stableSwapSchema.Span())
	data[0] = 1 // initialized
	data[1] = 1 // paused

	_, err := DecodeStableSwapRecord(data)
	assert.ErrorIs(t, err, ErrVenueUnavailable)
}

func TestDecodeStableSwapRecord_Uninitialized(t *testing.T) {
	data := make([]byte, stableSwapSchema.Span())

	_, err := DecodeStableSwapRecord(data)
	assert.ErrorIs(t, err, ErrVenueUnavailable)
}

func TestDecodeTokenSwapRecord_BadVersion(t *testing.T) {
	data := make([]byte, tokenSwapSchema.Span())
	data[0] = 2 // unsupported version
	data[1] = 1 // initialized

	_, err := DecodeTokenSwapRecord(data)
	assert.ErrorIs(t, err, ErrInvalidRecordVersion)
}

func TestDecodeTokenSwapRecord_WrongLength(t *testing.T) {
	_, err := DecodeTokenSwapRecord(make([]byte, 10))
	assert.Error(t, err)
}

func TestDecodeProtocolRecord(t *testing.T) {
	tokenProgram := pk(t)
	tokenAccount := pk(t)
	mint := pk(t)

	data := make([]byte, protocolSchema.Span())
	data[0] = 1 // version
	data[1] = 7 // nonce
	copy(data[2:34], tokenProgram.Bytes())
	copy(data[34:66], tokenAccount.Bytes())
	copy(data[66:98], mint.Bytes())

	record, err := DecodeProtocolRecord(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(7), record.Nonce)
	assert.Equal(t, tokenProgram, record.TokenProgramID)
	assert.Equal(t, tokenAccount, record.TokenAccount)
	assert.Equal(t, mint, record.Mint)
}
