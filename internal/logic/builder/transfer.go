package builder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	sdktoken "github.com/blocto/solana-go-sdk/program/token"
	sdktypes "github.com/blocto/solana-go-sdk/types"

	"hook-airdrop-sol/internal/consts"
	"hook-airdrop-sol/internal/types"
)

// ErrInvalidAmount：0 数量的转账是无意义操作，直接拒绝而不是白白提交上链。
var ErrInvalidAmount = errors.New("transfer amount must be greater than zero")

// TransferParams 是构造单笔 hook 转账指令所需的全部输入。
// 除公钥派生外无任何 I/O，相同输入必然产出字节级相同的指令。
type TransferParams struct {
	Sender      common.PublicKey // 付款钱包（同时是 token 账户 authority 和手续费 payer）
	Recipient   common.PublicKey // 收款钱包（token 账户按 ATA 规则派生）
	Mint        common.PublicKey
	Amount      uint64
	Decimals    uint8
	HookProgram common.PublicKey
	// ValidationAccount 是 (mint, hook_program) 的 ExtraAccountMetas PDA
	ValidationAccount common.PublicKey
	// ExtraMetas 按 resolver 返回的顺序附加；hook 程序按位置读账户，重排即错账。
	ExtraMetas []types.ExtraAccountMeta
}

// DeriveAssociatedTokenAddress 按 Token-2022 的种子派生 ATA。
// SDK 自带的派生固定使用 legacy token program，不适用于带扩展的 mint。
func DeriveAssociatedTokenAddress(owner, mint common.PublicKey) (common.PublicKey, error) {
	seeds := [][]byte{owner.Bytes(), consts.TokenProgram2022.Bytes(), mint.Bytes()}
	ata, _, err := common.FindProgramAddress(seeds, consts.AssociatedTokenProgram)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("failed to derive ata for %s: %w", owner.ToBase58(), err)
	}
	return ata, nil
}

// BuildTransferChecked 产出一条满足 transfer-hook 账户契约的 TransferChecked 指令。
// 账户顺序固定：source、mint、destination、authority，随后依序是 hook 的
// 额外账户，最后补 hook program 与 validation 账户（链上 CPI 调用需要）。
func BuildTransferChecked(p TransferParams) (sdktypes.Instruction, error) {
	if p.Amount == 0 {
		return sdktypes.Instruction{}, ErrInvalidAmount
	}

	source, err := DeriveAssociatedTokenAddress(p.Sender, p.Mint)
	if err != nil {
		return sdktypes.Instruction{}, err
	}
	dest, err := DeriveAssociatedTokenAddress(p.Recipient, p.Mint)
	if err != nil {
		return sdktypes.Instruction{}, err
	}

	// data: [12][amount u64 LE][decimals]
	data := make([]byte, 0, 10)
	data = append(data, byte(sdktoken.InstructionTransferChecked))
	data = binary.LittleEndian.AppendUint64(data, p.Amount)
	data = append(data, p.Decimals)

	accounts := make([]sdktypes.AccountMeta, 0, 6+len(p.ExtraMetas))
	accounts = append(accounts,
		sdktypes.AccountMeta{PubKey: source, IsSigner: false, IsWritable: true},
		sdktypes.AccountMeta{PubKey: p.Mint, IsSigner: false, IsWritable: false},
		sdktypes.AccountMeta{PubKey: dest, IsSigner: false, IsWritable: true},
		sdktypes.AccountMeta{PubKey: p.Sender, IsSigner: true, IsWritable: false},
	)
	for _, m := range p.ExtraMetas {
		accounts = append(accounts, sdktypes.AccountMeta{
			PubKey:     m.Address.ToCommon(),
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		})
	}
	accounts = append(accounts,
		sdktypes.AccountMeta{PubKey: p.HookProgram, IsSigner: false, IsWritable: false},
		sdktypes.AccountMeta{PubKey: p.ValidationAccount, IsSigner: false, IsWritable: false},
	)

	return sdktypes.Instruction{
		ProgramID: consts.TokenProgram2022,
		Accounts:  accounts,
		Data:      data,
	}, nil
}

// BuildCreateATAIdempotent 产出幂等建 ATA 指令（CreateIdempotent，已存在时为 no-op）。
// 收款人未必有 Token-2022 的 token 账户，转账前补建一条可避免整批失败。
func BuildCreateATAIdempotent(payer, owner, mint common.PublicKey) (sdktypes.Instruction, error) {
	ata, err := DeriveAssociatedTokenAddress(owner, mint)
	if err != nil {
		return sdktypes.Instruction{}, err
	}
	return sdktypes.Instruction{
		ProgramID: consts.AssociatedTokenProgram,
		Accounts: []sdktypes.AccountMeta{
			{PubKey: payer, IsSigner: true, IsWritable: true},
			{PubKey: ata, IsSigner: false, IsWritable: true},
			{PubKey: owner, IsSigner: false, IsWritable: false},
			{PubKey: mint, IsSigner: false, IsWritable: false},
			{PubKey: consts.SystemProgram, IsSigner: false, IsWritable: false},
			{PubKey: consts.TokenProgram2022, IsSigner: false, IsWritable: false},
		},
		Data: []byte{1}, // CreateIdempotent
	}, nil
}
