package metas

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	sdktypes "github.com/blocto/solana-go-sdk/types"

	"hook-airdrop-sol/internal/consts"
	"hook-airdrop-sol/internal/logic/resolver"
	"hook-airdrop-sol/internal/types"
	"hook-airdrop-sol/pkg/logger"
)

// transfer-hook 接口指令的 8 字节标识（namespace 字符串 SHA-256 的前 8 字节）。
var (
	initializeDiscriminator = [8]byte{43, 34, 13, 49, 167, 88, 235, 235}
	updateDiscriminator     = [8]byte{157, 105, 42, 146, 102, 85, 241, 174}
)

// RPC 是 metas 管理需要的节点接口（*client.Client 天然满足）。
type RPC interface {
	GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)
}

// BuildInitializeInstruction 构造 initialize-extra-account-metas 指令。
// 账户顺序：validation(w)、mint、mint authority(s)、system program。
func BuildInitializeInstruction(hookProgram, validation, mint, authority common.PublicKey, extraMetas []types.ExtraAccountMeta) (sdktypes.Instruction, error) {
	data, err := buildListData(initializeDiscriminator, extraMetas)
	if err != nil {
		return sdktypes.Instruction{}, err
	}
	return sdktypes.Instruction{
		ProgramID: hookProgram,
		Accounts: []sdktypes.AccountMeta{
			{PubKey: validation, IsSigner: false, IsWritable: true},
			{PubKey: mint, IsSigner: false, IsWritable: false},
			{PubKey: authority, IsSigner: true, IsWritable: false},
			{PubKey: consts.SystemProgram, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

// BuildUpdateInstruction 构造 update-extra-account-metas 指令。
// 与 initialize 相比不再需要 system program。
func BuildUpdateInstruction(hookProgram, validation, mint, authority common.PublicKey, extraMetas []types.ExtraAccountMeta) (sdktypes.Instruction, error) {
	data, err := buildListData(updateDiscriminator, extraMetas)
	if err != nil {
		return sdktypes.Instruction{}, err
	}
	return sdktypes.Instruction{
		ProgramID: hookProgram,
		Accounts: []sdktypes.AccountMeta{
			{PubKey: validation, IsSigner: false, IsWritable: true},
			{PubKey: mint, IsSigner: false, IsWritable: false},
			{PubKey: authority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}, nil
}

func buildListData(disc [8]byte, extraMetas []types.ExtraAccountMeta) ([]byte, error) {
	body, err := resolver.EncodeExtraAccountMetas(extraMetas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extra account metas: %w", err)
	}
	return append(disc[:], body...), nil
}

// RentTopUpLamports 计算 validation 账户达到免租所需补充的 lamports。
// 账户已有余额时做饱和减法，只补差额。
func RentTopUpLamports(ctx context.Context, rpcClient RPC, validation common.PublicKey, metaCount int) (uint64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	size := resolver.SizeOfExtraAccountMetaList(metaCount)
	required, err := rpcClient.GetMinimumBalanceForRentExemption(queryCtx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rent exemption for %d bytes: %w", size, err)
	}

	info, err := rpcClient.GetAccountInfo(queryCtx, validation.ToBase58())
	current := uint64(0)
	if err == nil {
		current = info.Lamports
	}
	if current >= required {
		return 0, nil
	}
	return required - current, nil
}

// BuildRentTransfer 构造 System 转账指令，为 validation 账户补租金。
func BuildRentTransfer(from, to common.PublicKey, lamports uint64) sdktypes.Instruction {
	data := make([]byte, 0, 12)
	data = binary.LittleEndian.AppendUint32(data, 2) // SystemInstruction::Transfer
	data = binary.LittleEndian.AppendUint64(data, lamports)
	return sdktypes.Instruction{
		ProgramID: consts.SystemProgram,
		Accounts: []sdktypes.AccountMeta{
			{PubKey: from, IsSigner: true, IsWritable: true},
			{PubKey: to, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}
}

// PrepareCreate 产出创建 ExtraAccountMetas 账户所需的全部指令。
// 账户已归属 hook 程序时报错——重复初始化会被链上拒绝。
func PrepareCreate(ctx context.Context, rpcClient RPC, hookProgram, mint, authority, payer common.PublicKey, extraMetas []types.ExtraAccountMeta) ([]sdktypes.Instruction, error) {
	validation, err := resolver.DeriveExtraAccountMetasAddress(mint, hookProgram)
	if err != nil {
		return nil, err
	}

	info, err := rpcClient.GetAccountInfo(ctx, validation.ToBase58())
	if err == nil && len(info.Data) > 0 && info.Owner != consts.SystemProgram {
		return nil, fmt.Errorf("extra account metas for mint %s and program %s already exists",
			mint.ToBase58(), hookProgram.ToBase58())
	}

	return prepareWithRent(ctx, rpcClient, validation, payer, extraMetas, func() (sdktypes.Instruction, error) {
		return BuildInitializeInstruction(hookProgram, validation, mint, authority, extraMetas)
	})
}

// PrepareUpdate 产出更新 ExtraAccountMetas 账户所需的全部指令。
// 账户尚不存在时报错——必须先 create。
func PrepareUpdate(ctx context.Context, rpcClient RPC, hookProgram, mint, authority, payer common.PublicKey, extraMetas []types.ExtraAccountMeta) ([]sdktypes.Instruction, error) {
	validation, err := resolver.DeriveExtraAccountMetasAddress(mint, hookProgram)
	if err != nil {
		return nil, err
	}

	info, err := rpcClient.GetAccountInfo(ctx, validation.ToBase58())
	if err != nil || len(info.Data) == 0 {
		return nil, fmt.Errorf("extra account metas for mint %s and program %s does not exist",
			mint.ToBase58(), hookProgram.ToBase58())
	}

	// 条目变多时账户会扩容，同样需要先补租金
	return prepareWithRent(ctx, rpcClient, validation, payer, extraMetas, func() (sdktypes.Instruction, error) {
		return BuildUpdateInstruction(hookProgram, validation, mint, authority, extraMetas)
	})
}

func prepareWithRent(ctx context.Context, rpcClient RPC, validation, payer common.PublicKey, extraMetas []types.ExtraAccountMeta, buildMain func() (sdktypes.Instruction, error)) ([]sdktypes.Instruction, error) {
	topUp, err := RentTopUpLamports(ctx, rpcClient, validation, len(extraMetas))
	if err != nil {
		return nil, err
	}

	var instrs []sdktypes.Instruction
	if topUp > 0 {
		logger.Infof("[metas] 为 %s 补租金 %d lamports", validation.ToBase58(), topUp)
		instrs = append(instrs, BuildRentTransfer(payer, validation, topUp))
	}
	main, err := buildMain()
	if err != nil {
		return nil, err
	}
	return append(instrs, main), nil
}
