package consts

import "github.com/blocto/solana-go-sdk/common"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	SystemProgramStr          = "11111111111111111111111111111111"
	TokenProgram2022Str       = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	AssociatedTokenProgramStr = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	ComputeBudgetProgramStr   = "ComputeBudget111111111111111111111111111111"
)

// SDK 公钥形式的程序地址，用于指令组装。
var (
	SystemProgram          = common.PublicKeyFromString(SystemProgramStr)
	TokenProgram2022       = common.PublicKeyFromString(TokenProgram2022Str)
	AssociatedTokenProgram = common.PublicKeyFromString(AssociatedTokenProgramStr)
	ComputeBudgetProgram   = common.PublicKeyFromString(ComputeBudgetProgramStr)
)

// ExtraAccountMetasSeed 是 transfer-hook 接口规定的 PDA 派生种子：
// ExtraAccountMetas 地址 = PDA(["extra-account-metas", mint], hook_program)。
const ExtraAccountMetasSeed = "extra-account-metas"
