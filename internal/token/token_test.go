package token

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araviel-io/onesol-swap-engine/internal/layout"
)

func TestAccountSpan(t *testing.T) {
	assert.Equal(t, AccountSpan, accountSchema.Span())
}

func TestDecodeAccount(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	data, err := accountSchema.Encode(layout.Values{
		"mint":                 mint,
		"owner":                owner,
		"amount":               new(big.Int).SetUint64(12_345),
		"delegateOption":       uint32(0),
		"delegate":             solana.PublicKey{},
		"state":                uint8(1),
		"isNativeOption":       uint32(1),
		"isNative":             new(big.Int).SetUint64(12_345),
		"delegatedAmount":      new(big.Int),
		"closeAuthorityOption": uint32(0),
		"closeAuthority":       solana.PublicKey{},
	})
	require.NoError(t, err)
	require.Len(t, data, AccountSpan)

	acc, err := DecodeAccount(data)
	require.NoError(t, err)
	assert.Equal(t, mint, acc.Mint)
	assert.Equal(t, owner, acc.Owner)
	assert.Equal(t, uint64(12_345), acc.Amount)
	assert.True(t, acc.IsNative)
}

func TestDecodeAccount_BadLength(t *testing.T) {
	_, err := DecodeAccount(make([]byte, 10))
	assert.ErrorIs(t, err, layout.ErrMalformedRecord)
}

func TestFindAssociatedTokenAddress(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	addr1, _, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	addr2, _, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2, "derivation is deterministic")

	other, _, err := FindAssociatedTokenAddress(owner, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.NotEqual(t, addr1, other)
}

func TestInstructionData(t *testing.T) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	c := solana.NewWallet().PublicKey()

	initData, err := NewInitAccountIx(a, b, c).Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, initData)

	closeData, err := NewCloseAccountIx(a, b, c).Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, closeData)

	syncData, err := NewSyncNativeIx(a).Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{17}, syncData)

	createData, err := NewCreateAccountIx(a, b, 2_039_280, AccountSpan, solana.TokenProgramID).Data()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(createData[0:4]))
	assert.Equal(t, uint64(2_039_280), binary.LittleEndian.Uint64(createData[4:12]))
	assert.Equal(t, uint64(AccountSpan), binary.LittleEndian.Uint64(createData[12:20]))

	ataData, err := NewCreateAssociatedTokenAccountIx(a, b, c, solana.NewWallet().PublicKey()).Data()
	require.NoError(t, err)
	assert.Empty(t, ataData)
}
