package airdrop

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	sdktypes "github.com/blocto/solana-go-sdk/types"

	"hook-airdrop-sol/internal/logic/builder"
	"hook-airdrop-sol/internal/logic/planner"
	"hook-airdrop-sol/internal/logic/resolver"
	"hook-airdrop-sol/internal/logic/submitter"
	"hook-airdrop-sol/internal/types"
	"hook-airdrop-sol/pkg/logger"
)

// State 是编排器的线性状态，无分支：
// Idle → AccountsResolved → BatchesPlanned → Submitting → Reported
type State int

const (
	StateIdle State = iota
	StateAccountsResolved
	StateBatchesPlanned
	StateSubmitting
	StateReported
)

// Params 是一轮空投的固定输入。
type Params struct {
	Mint common.PublicKey
	// HookProgram 可不填，此时从 mint 的 TransferHook 扩展中解析
	HookProgram        common.PublicKey
	MaxTransfersPerTx  int
	CreateRecipientATA bool
}

// Orchestrator 组合 resolver / planner / submitter：账户解析一次、
// 批次规划一次、串行提交、聚合最终报告。
type Orchestrator struct {
	fetcher resolver.AccountFetcher
	engine  *submitter.Engine
	sender  common.PublicKey
	params  Params
	state   State
}

func New(fetcher resolver.AccountFetcher, engine *submitter.Engine, sender common.PublicKey, params Params) *Orchestrator {
	return &Orchestrator{
		fetcher: fetcher,
		engine:  engine,
		sender:  sender,
		params:  params,
		state:   StateIdle,
	}
}

func (o *Orchestrator) State() State {
	return o.state
}

// Run 执行整轮空投并返回报告。
// 只有 hook 配置类错误是致命的（返回 err）；批次级失败会进入报告，
// 一个批次的失败不会阻断后续批次——部分失败是多人空投的正常结局。
func (o *Orchestrator) Run(ctx context.Context, recipientList []types.Recipient) (*Report, error) {
	report := NewReport()

	// 空输入直接完成，不触发 resolver 的失败路径
	if len(recipientList) == 0 {
		o.state = StateReported
		return report, nil
	}

	// Idle → AccountsResolved：每轮只解析一次，额外账户是 (mint, hook) 的属性
	mintInfo, err := resolver.ResolveMint(ctx, o.fetcher, o.params.Mint)
	if err != nil {
		return nil, err
	}
	hookProgram := o.params.HookProgram
	if hookProgram == (common.PublicKey{}) {
		if !mintInfo.HasHook {
			return nil, &resolver.HookConfigError{Mint: o.params.Mint,
				Reason: "mint has no transfer hook extension and no hook program was specified"}
		}
		hookProgram = mintInfo.HookProgram
	}
	validation, err := resolver.DeriveExtraAccountMetasAddress(o.params.Mint, hookProgram)
	if err != nil {
		return nil, &resolver.HookConfigError{Mint: o.params.Mint, HookProgram: hookProgram,
			Reason: "pda derivation failed", Err: err}
	}
	extraMetas, err := resolver.Resolve(ctx, o.fetcher, o.params.Mint, hookProgram)
	if err != nil {
		return nil, err
	}
	o.state = StateAccountsResolved

	// AccountsResolved → BatchesPlanned
	batches := planner.Plan(recipientList, o.params.MaxTransfersPerTx)
	o.state = StateBatchesPlanned
	logger.Infof("[airdrop] 规划完成: %d 人 / %d 批, mint=%s, hook=%s",
		len(recipientList), len(batches), o.params.Mint.ToBase58(), hookProgram.ToBase58())

	buildFn := o.instructionBuilder(mintInfo.Decimals, hookProgram, validation, extraMetas)

	// BatchesPlanned → Submitting：批次互相独立，串行提交
	o.state = StateSubmitting
	for i := range batches {
		batch := &batches[i]
		if ctx.Err() != nil {
			// 取消后剩余批次不再提交，但报告必须覆盖所有输入收款人
			report.addBatch(&types.SubmissionResult{Batch: batch,
				Err: fmt.Errorf("run cancelled before submission: %w", ctx.Err())})
			continue
		}
		res := o.engine.Submit(ctx, batch, buildFn)
		if res.Succeeded() {
			logger.Infof("[airdrop] 批次 %d 确认成功, 收款人=%d, signature=%s",
				batch.Index, len(batch.Recipients), res.Signature)
		} else {
			logger.Warnf("[airdrop] 批次 %d 失败, 收款人=%d: %v", batch.Index, len(batch.Recipients), res.Err)
		}
		report.addBatch(res)
	}

	// Submitting → Reported
	o.state = StateReported
	return report, nil
}

// instructionBuilder 绑定本轮固定参数，产出 per-recipient 的指令构造函数。
func (o *Orchestrator) instructionBuilder(decimals uint8, hookProgram, validation common.PublicKey, extraMetas []types.ExtraAccountMeta) submitter.InstructionBuilder {
	return func(r types.Recipient) ([]sdktypes.Instruction, error) {
		var instrs []sdktypes.Instruction
		if o.params.CreateRecipientATA {
			ix, err := builder.BuildCreateATAIdempotent(o.sender, r.Address.ToCommon(), o.params.Mint)
			if err != nil {
				return nil, err
			}
			instrs = append(instrs, ix)
		}
		transfer, err := builder.BuildTransferChecked(builder.TransferParams{
			Sender:            o.sender,
			Recipient:         r.Address.ToCommon(),
			Mint:              o.params.Mint,
			Amount:            r.Amount,
			Decimals:          decimals,
			HookProgram:       hookProgram,
			ValidationAccount: validation,
			ExtraMetas:        extraMetas,
		})
		if err != nil {
			return nil, err
		}
		return append(instrs, transfer), nil
	}
}
