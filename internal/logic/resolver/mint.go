package resolver

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"

	"hook-airdrop-sol/internal/consts"
)

// Token-2022 mint 布局相关偏移。
const (
	mintBaseLen      = 82  // 基础 mint 数据长度
	mintAccountType  = 165 // 扩展账户的 account type 字节偏移（1 = Mint）
	mintExtStart     = 166 // TLV 扩展区起始偏移
	extTransferHook  = 14  // TransferHook 扩展的 type 值
	mintDecimalsOffs = 44
)

// MintInfo 是空投启动时从 mint 账户读到的全部信息。
type MintInfo struct {
	Decimals    uint8
	HookProgram common.PublicKey
	HasHook     bool
}

// ResolveMint 读取 mint 账户，取小数位并从 TransferHook 扩展中解析 hook program id。
// mint 不存在、属主不是 Token-2022、或数据过短均视为配置错误。
func ResolveMint(ctx context.Context, rpc AccountFetcher, mint common.PublicKey) (*MintInfo, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info, err := rpc.GetAccountInfo(fetchCtx, mint.ToBase58())
	if err != nil {
		return nil, &HookConfigError{Mint: mint, Reason: "failed to fetch mint account", Err: err}
	}
	if len(info.Data) == 0 {
		return nil, &HookConfigError{Mint: mint, Reason: "mint account does not exist"}
	}
	if info.Owner != consts.TokenProgram2022 {
		return nil, &HookConfigError{Mint: mint,
			Reason: fmt.Sprintf("mint owned by %s, want token-2022 program", info.Owner.ToBase58())}
	}
	if len(info.Data) < mintBaseLen {
		return nil, &HookConfigError{Mint: mint,
			Reason: fmt.Sprintf("mint data too short: %d bytes", len(info.Data))}
	}

	mi := &MintInfo{Decimals: info.Data[mintDecimalsOffs]}

	// 无扩展区的 mint 不可能带 transfer hook
	if len(info.Data) <= mintExtStart {
		return mi, nil
	}

	// 扫描 TLV 扩展区，定位 TransferHook 扩展
	data := info.Data
	for offs := mintExtStart; offs+4 <= len(data); {
		extType := binary.LittleEndian.Uint16(data[offs : offs+2])
		extLen := int(binary.LittleEndian.Uint16(data[offs+2 : offs+4]))
		body := offs + 4
		if body+extLen > len(data) {
			return nil, &HookConfigError{Mint: mint,
				Reason: fmt.Sprintf("truncated mint extension: type=%d len=%d", extType, extLen)}
		}
		if extType == extTransferHook {
			// 扩展数据：authority(32) + program_id(32)
			if extLen < 64 {
				return nil, &HookConfigError{Mint: mint,
					Reason: fmt.Sprintf("transfer hook extension too short: %d bytes", extLen)}
			}
			program := common.PublicKeyFromBytes(data[body+32 : body+64])
			// program id 全零表示 hook 已被卸载
			if program != (common.PublicKey{}) {
				mi.HookProgram = program
				mi.HasHook = true
			}
			return mi, nil
		}
		offs = body + extLen
	}
	return mi, nil
}
