package config

import (
	"time"

	"hook-airdrop-sol/pkg/logger"
)

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// RpcConfig 表示 Solana JSON-RPC 节点配置
type RpcConfig struct {
	Endpoint string `yaml:"endpoint"` // RPC 地址，例如 https://api.devnet.solana.com
}

// SubmitConfig 表示批量提交相关配置
type SubmitConfig struct {
	MaxTransfersPerTx int `yaml:"max_transfers_per_tx"` // 单笔交易最多装入的转账数（受交易体积上限约束）
	MaxAttempts       int `yaml:"max_attempts"`         // 单批次最大提交尝试次数（含首次）
	RetryBackoffMs    int `yaml:"retry_backoff_ms"`     // 首次重试前的退避时长，之后指数递增
	ConfirmTimeoutSec int `yaml:"confirm_timeout_sec"`  // 等待确认的超时（秒）
	ConfirmPollMs     int `yaml:"confirm_poll_ms"`      // 确认轮询间隔（毫秒）

	// 是否在每笔转账前附带幂等建 ATA 指令（收款人可能尚无 token 账户）
	CreateRecipientATA bool `yaml:"create_recipient_ata"`

	// 每交易 compute-unit 价格（micro-lamports）。预留字段，暂未生效。
	PriorityFeeMicroLamports uint64 `yaml:"priority_fee_micro_lamports"`
}

// AirdropConfig 是主配置结构体，用于驱动空投工具
type AirdropConfig struct {
	LogConf     LogConfig    `yaml:"logger"`       // 日志配置
	RpcConf     RpcConfig    `yaml:"rpc"`          // RPC 节点配置
	SubmitConf  SubmitConfig `yaml:"submit"`       // 提交策略配置
	KeypairPath string       `yaml:"keypair_path"` // 签名密钥文件路径（JSON 数组或 base58）
}

// 各字段的兜底默认值，配置缺省时生效。
const (
	DefaultMaxTransfersPerTx = 5
	DefaultMaxAttempts       = 3
	DefaultRetryBackoffMs    = 500
	DefaultConfirmTimeoutSec = 30
	DefaultConfirmPollMs     = 500
)

// FillDefaults 对未配置的提交参数补默认值，返回自身便于链式使用。
func (c *SubmitConfig) FillDefaults() *SubmitConfig {
	if c.MaxTransfersPerTx <= 0 {
		c.MaxTransfersPerTx = DefaultMaxTransfersPerTx
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryBackoffMs <= 0 {
		c.RetryBackoffMs = DefaultRetryBackoffMs
	}
	if c.ConfirmTimeoutSec <= 0 {
		c.ConfirmTimeoutSec = DefaultConfirmTimeoutSec
	}
	if c.ConfirmPollMs <= 0 {
		c.ConfirmPollMs = DefaultConfirmPollMs
	}
	return c
}

func (c *SubmitConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

func (c *SubmitConfig) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSec) * time.Second
}

func (c *SubmitConfig) ConfirmPoll() time.Duration {
	return time.Duration(c.ConfirmPollMs) * time.Millisecond
}
