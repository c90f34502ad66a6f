package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"

	"hook-airdrop-sol/internal/consts"
	"hook-airdrop-sol/internal/types"
	"hook-airdrop-sol/pkg/logger"
)

// AccountFetcher 是解析过程需要的最小 RPC 面（*client.Client 天然满足）。
type AccountFetcher interface {
	GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error)
}

// HookConfigError 表示 hook 配置不可用：ExtraAccountMetas 账户缺失、属主不对或数据损坏。
// 该错误是致命的——没有正确的 hook 账户就不能安全转账，整轮空投直接中止。
type HookConfigError struct {
	Mint        common.PublicKey
	HookProgram common.PublicKey
	Reason      string
	Err         error
}

func (e *HookConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hook config invalid (mint=%s program=%s): %s: %v",
			e.Mint.ToBase58(), e.HookProgram.ToBase58(), e.Reason, e.Err)
	}
	return fmt.Sprintf("hook config invalid (mint=%s program=%s): %s",
		e.Mint.ToBase58(), e.HookProgram.ToBase58(), e.Reason)
}

func (e *HookConfigError) Unwrap() error {
	return e.Err
}

// ExtraAccountMetas 账户的 TLV 布局：
// [0:8]   discriminator（execute 指令的 8 字节标识）
// [8:12]  length (u32)
// [12:]   borsh Vec<ExtraAccountMeta>（u32 count + 35 字节 pod 条目）
var executeDiscriminator = [8]byte{105, 37, 101, 197, 75, 251, 102, 26}

const (
	tlvHeaderLen     = 12
	podMetaLen       = 35
	addrConfigPubkey = 0 // address_config 直接携带字面量公钥
)

// podExtraAccountMeta 与链上 spl-tlv-account-resolution 的 pod 布局一一对应。
type podExtraAccountMeta struct {
	Discriminator uint8
	AddressConfig [32]uint8
	IsSigner      bool
	IsWritable    bool
}

type podExtraAccountMetaList struct {
	Metas []podExtraAccountMeta
}

// DeriveExtraAccountMetasAddress 派生 (mint, hook_program) 对应的 ExtraAccountMetas PDA。
func DeriveExtraAccountMetasAddress(mint, hookProgram common.PublicKey) (common.PublicKey, error) {
	seeds := [][]byte{[]byte(consts.ExtraAccountMetasSeed), mint.Bytes()}
	pda, _, err := common.FindProgramAddress(seeds, hookProgram)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("failed to derive extra account metas address: %w", err)
	}
	return pda, nil
}

// Resolve 拉取并解码 (mint, hook_program) 的 ExtraAccountMetas 列表。
// 整轮空投只调用一次：额外账户是 (mint, hook_program) 的属性，与单笔转账无关。
func Resolve(ctx context.Context, rpc AccountFetcher, mint, hookProgram common.PublicKey) ([]types.ExtraAccountMeta, error) {
	address, err := DeriveExtraAccountMetasAddress(mint, hookProgram)
	if err != nil {
		return nil, &HookConfigError{Mint: mint, HookProgram: hookProgram, Reason: "pda derivation failed", Err: err}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	start := time.Now()
	info, err := rpc.GetAccountInfo(fetchCtx, address.ToBase58())
	if err != nil {
		return nil, &HookConfigError{Mint: mint, HookProgram: hookProgram, Reason: "failed to fetch extra account metas account", Err: err}
	}
	logger.Infof("[resolver] ExtraAccountMetas 拉取完成, account=%s, 耗时=%v", address.ToBase58(), time.Since(start))

	if len(info.Data) == 0 {
		return nil, &HookConfigError{Mint: mint, HookProgram: hookProgram,
			Reason: fmt.Sprintf("extra account metas account %s does not exist", address.ToBase58())}
	}
	if info.Owner != hookProgram {
		return nil, &HookConfigError{Mint: mint, HookProgram: hookProgram,
			Reason: fmt.Sprintf("extra account metas account %s owned by %s, want hook program", address.ToBase58(), info.Owner.ToBase58())}
	}

	metas, err := DecodeExtraAccountMetaList(info.Data)
	if err != nil {
		return nil, &HookConfigError{Mint: mint, HookProgram: hookProgram, Reason: "malformed extra account metas data", Err: err}
	}
	logger.Infof("[resolver] hook 额外账户解析成功, count=%d", len(metas))
	return metas, nil
}

// DecodeExtraAccountMetaList 解码账户数据为额外账户列表。
// 仅支持 address_config 为字面量公钥的条目；依赖种子动态派生的条目需要
// 指令上下文才能求值，这里按配置错误处理。
func DecodeExtraAccountMetaList(data []byte) ([]types.ExtraAccountMeta, error) {
	if len(data) < tlvHeaderLen+4 {
		return nil, fmt.Errorf("data too short: %d bytes", len(data))
	}
	var disc [8]byte
	copy(disc[:], data[:8])
	if disc != executeDiscriminator {
		return nil, fmt.Errorf("unexpected tlv discriminator: %x", disc)
	}

	var list podExtraAccountMetaList
	if err := borsh.Deserialize(&list, data[tlvHeaderLen:]); err != nil {
		return nil, fmt.Errorf("borsh decode failed: %w", err)
	}

	metas := make([]types.ExtraAccountMeta, 0, len(list.Metas))
	for i, pod := range list.Metas {
		if pod.Discriminator != addrConfigPubkey {
			return nil, fmt.Errorf("unsupported address config discriminator %d at index %d", pod.Discriminator, i)
		}
		metas = append(metas, types.ExtraAccountMeta{
			Address:    pod.AddressConfig,
			IsSigner:   pod.IsSigner,
			IsWritable: pod.IsWritable,
		})
	}
	return metas, nil
}

// EncodeExtraAccountMetaList 编码完整账户数据布局（测试与本地校验用）。
func EncodeExtraAccountMetaList(metas []types.ExtraAccountMeta) ([]byte, error) {
	body, err := EncodeExtraAccountMetas(metas)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, SizeOfExtraAccountMetaList(len(metas)))
	data = append(data, executeDiscriminator[:]...)
	data = append(data, byte(len(body)), byte(len(body)>>8), byte(len(body)>>16), byte(len(body)>>24))
	data = append(data, body...)
	return data, nil
}

// EncodeExtraAccountMetas 编码条目序列（borsh Vec），供 initialize/update 指令的数据段使用。
func EncodeExtraAccountMetas(metas []types.ExtraAccountMeta) ([]byte, error) {
	list := podExtraAccountMetaList{Metas: make([]podExtraAccountMeta, 0, len(metas))}
	for _, m := range metas {
		list.Metas = append(list.Metas, podExtraAccountMeta{
			Discriminator: addrConfigPubkey,
			AddressConfig: m.Address,
			IsSigner:      m.IsSigner,
			IsWritable:    m.IsWritable,
		})
	}
	data, err := borsh.Serialize(list)
	if err != nil {
		return nil, fmt.Errorf("borsh encode failed: %w", err)
	}
	return data, nil
}

// SizeOfExtraAccountMetaList 返回容纳 n 个条目的账户大小（租金计算用）。
func SizeOfExtraAccountMetaList(n int) int {
	return tlvHeaderLen + 4 + n*podMetaLen
}
