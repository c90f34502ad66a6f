package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hook-airdrop-sol/internal/types"
)

type fakeFetcher struct {
	accounts map[string]client.AccountInfo
	errs     map[string]error
	calls    int
}

func (f *fakeFetcher) GetAccountInfo(_ context.Context, addr string) (client.AccountInfo, error) {
	f.calls++
	if err, ok := f.errs[addr]; ok {
		return client.AccountInfo{}, err
	}
	return f.accounts[addr], nil
}

func testKey(b byte) common.PublicKey {
	var raw [32]byte
	raw[0] = b
	return common.PublicKeyFromBytes(raw[:])
}

func sampleMetas() []types.ExtraAccountMeta {
	return []types.ExtraAccountMeta{
		{Address: types.PubkeyFromCommon(testKey(10)), IsSigner: false, IsWritable: true},
		{Address: types.PubkeyFromCommon(testKey(11)), IsSigner: true, IsWritable: false},
		{Address: types.PubkeyFromCommon(testKey(12))},
	}
}

func TestExtraAccountMetaList_Roundtrip(t *testing.T) {
	metas := sampleMetas()
	data, err := EncodeExtraAccountMetaList(metas)
	require.NoError(t, err)
	assert.Len(t, data, SizeOfExtraAccountMetaList(len(metas)))

	decoded, err := DecodeExtraAccountMetaList(data)
	require.NoError(t, err)
	assert.Equal(t, metas, decoded)
}

func TestDecodeExtraAccountMetaList_Malformed(t *testing.T) {
	valid, err := EncodeExtraAccountMetaList(sampleMetas())
	require.NoError(t, err)

	t.Run("data too short", func(t *testing.T) {
		_, err := DecodeExtraAccountMetaList(valid[:10])
		assert.Error(t, err)
	})

	t.Run("wrong discriminator", func(t *testing.T) {
		bad := append([]byte{}, valid...)
		bad[0] ^= 0xFF
		_, err := DecodeExtraAccountMetaList(bad)
		assert.ErrorContains(t, err, "discriminator")
	})

	t.Run("truncated entries", func(t *testing.T) {
		_, err := DecodeExtraAccountMetaList(valid[:len(valid)-7])
		assert.Error(t, err)
	})

	t.Run("dynamic address config unsupported", func(t *testing.T) {
		bad := append([]byte{}, valid...)
		bad[16] = 1 // 首个条目的 address_config 判别字节
		_, err := DecodeExtraAccountMetaList(bad)
		assert.ErrorContains(t, err, "unsupported address config")
	})
}

func TestDeriveExtraAccountMetasAddress(t *testing.T) {
	mint, hook := testKey(1), testKey(2)

	a, err := DeriveExtraAccountMetasAddress(mint, hook)
	require.NoError(t, err)
	b, err := DeriveExtraAccountMetasAddress(mint, hook)
	require.NoError(t, err)
	assert.Equal(t, a, b, "同一 (mint, hook) 派生结果应稳定")

	other, err := DeriveExtraAccountMetasAddress(testKey(3), hook)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestResolve(t *testing.T) {
	mint, hook := testKey(1), testKey(2)
	validation, err := DeriveExtraAccountMetasAddress(mint, hook)
	require.NoError(t, err)

	metas := sampleMetas()
	data, err := EncodeExtraAccountMetaList(metas)
	require.NoError(t, err)

	t.Run("success and idempotent", func(t *testing.T) {
		f := &fakeFetcher{accounts: map[string]client.AccountInfo{
			validation.ToBase58(): {Owner: hook, Data: data, Lamports: 1},
		}}

		got1, err := Resolve(context.Background(), f, mint, hook)
		require.NoError(t, err)
		got2, err := Resolve(context.Background(), f, mint, hook)
		require.NoError(t, err)
		assert.Equal(t, metas, got1)
		assert.Equal(t, got1, got2, "重复解析应得到相同结果")
	})

	t.Run("account missing", func(t *testing.T) {
		f := &fakeFetcher{}
		_, err := Resolve(context.Background(), f, mint, hook)
		var hce *HookConfigError
		require.ErrorAs(t, err, &hce)
		assert.Contains(t, hce.Reason, "does not exist")
	})

	t.Run("wrong owner", func(t *testing.T) {
		f := &fakeFetcher{accounts: map[string]client.AccountInfo{
			validation.ToBase58(): {Owner: testKey(9), Data: data, Lamports: 1},
		}}
		_, err := Resolve(context.Background(), f, mint, hook)
		var hce *HookConfigError
		require.ErrorAs(t, err, &hce)
		assert.Contains(t, hce.Reason, "owned by")
	})

	t.Run("malformed data", func(t *testing.T) {
		bad := append([]byte{}, data...)
		bad[16] = 200
		f := &fakeFetcher{accounts: map[string]client.AccountInfo{
			validation.ToBase58(): {Owner: hook, Data: bad, Lamports: 1},
		}}
		_, err := Resolve(context.Background(), f, mint, hook)
		var hce *HookConfigError
		require.ErrorAs(t, err, &hce)
	})

	t.Run("rpc error", func(t *testing.T) {
		f := &fakeFetcher{errs: map[string]error{
			validation.ToBase58(): errors.New("node unavailable"),
		}}
		_, err := Resolve(context.Background(), f, mint, hook)
		var hce *HookConfigError
		require.ErrorAs(t, err, &hce)
	})
}
