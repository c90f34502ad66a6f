package types

// Recipient 表示一次空投的单个收款人：钱包地址 + 原始单位数量。
// 从 CSV 读入后不再修改；允许重复地址，各自独立处理。
type Recipient struct {
	Address Pubkey
	Amount  uint64
}

// ExtraAccountMeta 表示 transfer-hook 要求附加到转账指令上的一个账户。
// 由 AccountResolver 解码得到，整轮空投共享同一份（mint 与 hook program 固定）。
type ExtraAccountMeta struct {
	Address    Pubkey
	IsSigner   bool
	IsWritable bool
}

// TransferBatch 表示打进同一笔交易的一组收款人，顺序与输入一致。
type TransferBatch struct {
	Index      int
	Recipients []Recipient
}

// Attempt 记录一次提交尝试的结果，重试会追加新条目，旧条目保留用于审计。
type Attempt struct {
	Seq       int
	Signature string
	Err       error
}

// SubmissionResult 表示某个批次的最终提交结果。
// 交易在链上是原子的：批次成功则所有收款人共享同一签名，失败则共享同一原因。
type SubmissionResult struct {
	Batch     *TransferBatch
	Signature string
	Err       error
	Attempts  []Attempt
}

func (r *SubmissionResult) Succeeded() bool {
	return r.Err == nil && r.Signature != ""
}

// RecipientOutcome 是报告中的一行：每个输入收款人恰好对应一条。
type RecipientOutcome struct {
	Address   string
	Amount    uint64
	Signature string
	Err       error
}

func (o RecipientOutcome) Succeeded() bool {
	return o.Err == nil
}
