package metas

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hook-airdrop-sol/internal/consts"
	"hook-airdrop-sol/internal/logic/resolver"
	"hook-airdrop-sol/internal/types"
)

type fakeRPC struct {
	accounts map[string]client.AccountInfo
	rent     uint64
}

func (f *fakeRPC) GetAccountInfo(_ context.Context, addr string) (client.AccountInfo, error) {
	return f.accounts[addr], nil
}

func (f *fakeRPC) GetMinimumBalanceForRentExemption(_ context.Context, _ uint64) (uint64, error) {
	return f.rent, nil
}

func testKey(b byte) common.PublicKey {
	var raw [32]byte
	raw[0] = b
	return common.PublicKeyFromBytes(raw[:])
}

func testMetas() []types.ExtraAccountMeta {
	return []types.ExtraAccountMeta{
		{Address: types.PubkeyFromCommon(testKey(10)), IsWritable: true},
		{Address: types.PubkeyFromCommon(testKey(11))},
	}
}

func TestBuildInitializeInstruction(t *testing.T) {
	hook, validation, mint, authority := testKey(1), testKey(2), testKey(3), testKey(4)
	ix, err := BuildInitializeInstruction(hook, validation, mint, authority, testMetas())
	require.NoError(t, err)

	assert.Equal(t, hook, ix.ProgramID)
	require.Len(t, ix.Accounts, 4)
	assert.Equal(t, validation, ix.Accounts[0].PubKey)
	assert.True(t, ix.Accounts[0].IsWritable)
	assert.Equal(t, mint, ix.Accounts[1].PubKey)
	assert.Equal(t, authority, ix.Accounts[2].PubKey)
	assert.True(t, ix.Accounts[2].IsSigner)
	assert.Equal(t, consts.SystemProgram, ix.Accounts[3].PubKey)

	assert.Equal(t, initializeDiscriminator[:], ix.Data[:8])
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(ix.Data[8:12]), "指令数据应携带条目数")
}

func TestBuildUpdateInstruction(t *testing.T) {
	hook, validation, mint, authority := testKey(1), testKey(2), testKey(3), testKey(4)
	ix, err := BuildUpdateInstruction(hook, validation, mint, authority, testMetas())
	require.NoError(t, err)

	assert.Equal(t, hook, ix.ProgramID)
	require.Len(t, ix.Accounts, 3, "update 不需要 system program")
	assert.Equal(t, updateDiscriminator[:], ix.Data[:8])
	assert.NotEqual(t, initializeDiscriminator, updateDiscriminator)
}

func TestRentTopUpLamports(t *testing.T) {
	validation := testKey(2)

	t.Run("account missing pays full rent", func(t *testing.T) {
		f := &fakeRPC{rent: 5000}
		topUp, err := RentTopUpLamports(context.Background(), f, validation, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(5000), topUp)
	})

	t.Run("partial balance pays difference", func(t *testing.T) {
		f := &fakeRPC{rent: 5000, accounts: map[string]client.AccountInfo{
			validation.ToBase58(): {Lamports: 1500},
		}}
		topUp, err := RentTopUpLamports(context.Background(), f, validation, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(3500), topUp)
	})

	t.Run("sufficient balance pays nothing", func(t *testing.T) {
		f := &fakeRPC{rent: 5000, accounts: map[string]client.AccountInfo{
			validation.ToBase58(): {Lamports: 9000},
		}}
		topUp, err := RentTopUpLamports(context.Background(), f, validation, 2)
		require.NoError(t, err)
		assert.Zero(t, topUp)
	})
}

func TestBuildRentTransfer(t *testing.T) {
	from, to := testKey(1), testKey(2)
	ix := BuildRentTransfer(from, to, 12345)

	assert.Equal(t, consts.SystemProgram, ix.ProgramID)
	require.Len(t, ix.Accounts, 2)
	assert.Equal(t, from, ix.Accounts[0].PubKey)
	assert.True(t, ix.Accounts[0].IsSigner)
	assert.Equal(t, to, ix.Accounts[1].PubKey)
	assert.True(t, ix.Accounts[1].IsWritable)

	require.Len(t, ix.Data, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(ix.Data[:4]), "SystemInstruction::Transfer")
	assert.Equal(t, uint64(12345), binary.LittleEndian.Uint64(ix.Data[4:]))
}

func TestPrepareCreate(t *testing.T) {
	hook, mint, authority, payer := testKey(1), testKey(3), testKey(4), testKey(5)
	validation, err := resolver.DeriveExtraAccountMetasAddress(mint, hook)
	require.NoError(t, err)

	t.Run("fresh account gets rent transfer plus initialize", func(t *testing.T) {
		f := &fakeRPC{rent: 5000}
		instrs, err := PrepareCreate(context.Background(), f, hook, mint, authority, payer, testMetas())
		require.NoError(t, err)
		require.Len(t, instrs, 2)
		assert.Equal(t, consts.SystemProgram, instrs[0].ProgramID)
		assert.Equal(t, hook, instrs[1].ProgramID)
		assert.Equal(t, initializeDiscriminator[:], instrs[1].Data[:8])
	})

	t.Run("already initialized is an error", func(t *testing.T) {
		f := &fakeRPC{rent: 5000, accounts: map[string]client.AccountInfo{
			validation.ToBase58(): {Owner: hook, Data: []byte{1, 2, 3}, Lamports: 5000},
		}}
		_, err := PrepareCreate(context.Background(), f, hook, mint, authority, payer, testMetas())
		assert.ErrorContains(t, err, "already exists")
	})
}

func TestPrepareUpdate(t *testing.T) {
	hook, mint, authority, payer := testKey(1), testKey(3), testKey(4), testKey(5)
	validation, err := resolver.DeriveExtraAccountMetasAddress(mint, hook)
	require.NoError(t, err)

	t.Run("missing account is an error", func(t *testing.T) {
		f := &fakeRPC{rent: 5000}
		_, err := PrepareUpdate(context.Background(), f, hook, mint, authority, payer, testMetas())
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("existing rent-exempt account updates without transfer", func(t *testing.T) {
		f := &fakeRPC{rent: 5000, accounts: map[string]client.AccountInfo{
			validation.ToBase58(): {Owner: hook, Data: []byte{1, 2, 3}, Lamports: 9000},
		}}
		instrs, err := PrepareUpdate(context.Background(), f, hook, mint, authority, payer, testMetas())
		require.NoError(t, err)
		require.Len(t, instrs, 1)
		assert.Equal(t, updateDiscriminator[:], instrs[0].Data[:8])
	})
}
