package submitter

import (
	"context"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
	sdktypes "github.com/blocto/solana-go-sdk/types"

	"hook-airdrop-sol/internal/types"
	"hook-airdrop-sol/pkg/logger"
)

// RPC 是提交引擎需要的最小节点接口，便于测试替身。
type RPC interface {
	GetLatestBlockhash(ctx context.Context) (string, error)
	SendTransaction(ctx context.Context, tx sdktypes.Transaction) (string, error)
	GetSignatureStatus(ctx context.Context, sig string) (*rpc.SignatureStatus, error)
}

// ClientRPC 用 blocto client 适配 RPC 接口。
type ClientRPC struct {
	c *client.Client
}

func NewClientRPC(c *client.Client) *ClientRPC {
	return &ClientRPC{c: c}
}

func (r *ClientRPC) GetLatestBlockhash(ctx context.Context) (string, error) {
	res, err := r.c.GetLatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	return res.Blockhash, nil
}

func (r *ClientRPC) SendTransaction(ctx context.Context, tx sdktypes.Transaction) (string, error) {
	return r.c.SendTransaction(ctx, tx)
}

func (r *ClientRPC) GetSignatureStatus(ctx context.Context, sig string) (*rpc.SignatureStatus, error) {
	return r.c.GetSignatureStatus(ctx, sig)
}

// Options 控制重试预算与确认节奏。
type Options struct {
	MaxAttempts    int           // 最大尝试次数（含首次）
	BaseBackoff    time.Duration // 首次重试退避，之后翻倍
	ConfirmTimeout time.Duration // 单次尝试等待确认的上限
	ConfirmPoll    time.Duration // 确认状态轮询间隔

	// Sleep 可注入以便测试退避时序；为 nil 时用 time.Sleep
	Sleep func(time.Duration)
}

func (o *Options) fillDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 500 * time.Millisecond
	}
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = 30 * time.Second
	}
	if o.ConfirmPoll <= 0 {
		o.ConfirmPoll = 500 * time.Millisecond
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
}

// InstructionBuilder 为单个收款人生成其全部指令（转账，可能外加建 ATA）。
type InstructionBuilder func(types.Recipient) ([]sdktypes.Instruction, error)

// Engine 负责批次交易的签名、发送与确认。批次之间串行使用。
type Engine struct {
	rpc    RPC
	signer sdktypes.Account
	opts   Options
}

func New(rpcClient RPC, signer sdktypes.Account, opts Options) *Engine {
	opts.fillDefaults()
	return &Engine{rpc: rpcClient, signer: signer, opts: opts}
}

// Submit 提交一个批次：逐收款人构造指令，打进一笔交易，带重试地发送并确认。
// 构造失败是本地逻辑错误，不触发任何 RPC 调用。
func (e *Engine) Submit(ctx context.Context, batch *types.TransferBatch, build InstructionBuilder) *types.SubmissionResult {
	result := &types.SubmissionResult{Batch: batch}

	instrs := make([]sdktypes.Instruction, 0, len(batch.Recipients)*2)
	for _, r := range batch.Recipients {
		ins, err := build(r)
		if err != nil {
			result.Err = fmt.Errorf("failed to build instructions for %s: %w", r.Address, err)
			return result
		}
		instrs = append(instrs, ins...)
	}

	sig, attempts, err := e.SubmitInstructions(ctx, instrs)
	result.Signature = sig
	result.Attempts = attempts
	result.Err = err
	return result
}

// 重试状态机的各阶段。显式建模使重试预算与退避时序可独立测试。
type retryPhase int

const (
	phaseAttempting retryPhase = iota
	phaseBackoff
	phaseRetrying
	phaseGivenUp
)

// SubmitInstructions 将一组指令组装成单笔交易并提交。
// 每次尝试都取新 blockhash 重建交易——旧 blockhash 过期是设计内的失败条件。
// 瞬态 RPC 错误指数退避重试；链上程序拒绝立即终止（重试注定再次被拒）。
func (e *Engine) SubmitInstructions(ctx context.Context, instrs []sdktypes.Instruction) (string, []types.Attempt, error) {
	var (
		attempts []types.Attempt
		lastErr  error
		attempt  int
		backoff  = e.opts.BaseBackoff
		phase    = phaseAttempting
	)

	for {
		switch phase {
		case phaseAttempting, phaseRetrying:
			attempt++
			sig, err := e.attemptOnce(ctx, instrs)
			attempts = append(attempts, types.Attempt{Seq: attempt, Signature: sig, Err: err})
			if err == nil {
				logger.Infof("[submitter] 第 %d 次尝试成功, signature=%s", attempt, sig)
				return sig, attempts, nil
			}
			lastErr = err
			if !isTransient(err) {
				logger.Warnf("[submitter] 链上拒绝, 不再重试: %v", err)
				phase = phaseGivenUp
			} else if attempt >= e.opts.MaxAttempts {
				logger.Warnf("[submitter] 重试预算耗尽 (%d 次): %v", attempt, err)
				phase = phaseGivenUp
			} else {
				logger.Warnf("[submitter] 第 %d 次尝试失败, %v 后重试: %v", attempt, backoff, err)
				phase = phaseBackoff
			}
		case phaseBackoff:
			e.opts.Sleep(backoff)
			backoff *= 2
			phase = phaseRetrying
		case phaseGivenUp:
			return "", attempts, lastErr
		}
	}
}

// attemptOnce 执行一次完整的 提交→确认 流程。
func (e *Engine) attemptOnce(ctx context.Context, instrs []sdktypes.Instruction) (string, error) {
	blockhash, err := e.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	// TODO: 接入 ComputeBudget SetComputeUnitPrice，让 priority_fee_micro_lamports 生效
	msg := sdktypes.NewMessage(sdktypes.NewMessageParam{
		FeePayer:        e.signer.PublicKey,
		RecentBlockhash: blockhash,
		Instructions:    instrs,
	})
	tx, err := sdktypes.NewTransaction(sdktypes.NewTransactionParam{
		Message: msg,
		Signers: []sdktypes.Account{e.signer},
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := e.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	if err := e.waitConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// waitConfirmation 轮询签名状态直到 confirmed/finalized，超时按瞬态错误处理。
func (e *Engine) waitConfirmation(ctx context.Context, sig string) error {
	deadline := time.Now().Add(e.opts.ConfirmTimeout)
	for {
		status, err := e.rpc.GetSignatureStatus(ctx, sig)
		if err != nil {
			return fmt.Errorf("failed to query signature status: %w", err)
		}
		if status != nil {
			if status.Err != nil {
				return &OnChainError{Signature: sig, Detail: status.Err}
			}
			if status.ConfirmationStatus != nil &&
				(*status.ConfirmationStatus == rpc.CommitmentConfirmed || *status.ConfirmationStatus == rpc.CommitmentFinalized) {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("confirmation timeout after %v, signature=%s", e.opts.ConfirmTimeout, sig)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.opts.ConfirmPoll):
		}
	}
}
