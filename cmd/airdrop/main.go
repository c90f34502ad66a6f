package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/zeromicro/go-zero/core/conf"

	"hook-airdrop-sol/internal/config"
	"hook-airdrop-sol/internal/logic/airdrop"
	"hook-airdrop-sol/internal/logic/metas"
	"hook-airdrop-sol/internal/logic/resolver"
	"hook-airdrop-sol/internal/logic/submitter"
	"hook-airdrop-sol/internal/recipients"
	"hook-airdrop-sol/internal/svc"
	"hook-airdrop-sol/internal/types"
	"hook-airdrop-sol/pkg/logger"
)

const usage = `usage: airdrop <command> [flags]

commands:
  airdrop             批量空投 transfer-hook token
  create-extra-metas  初始化 mint 的 ExtraAccountMetas 账户
  update-extra-metas  更新 mint 的 ExtraAccountMetas 账户
`

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			os.Exit(2)
		}
	}()
	defer logger.Sync()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Ctrl-C 时取消进行中的提交；已确认批次留在链上，报告覆盖已处理部分
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "airdrop":
		os.Exit(runAirdrop(ctx, os.Args[2:]))
	case "create-extra-metas":
		os.Exit(runMetas(ctx, os.Args[2:], true))
	case "update-extra-metas":
		os.Exit(runMetas(ctx, os.Args[2:], false))
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func loadContext(configFile string) *svc.AirdropServiceContext {
	var c config.AirdropConfig
	conf.MustLoad(configFile, &c)
	logger.Init(c.LogConf.ToLogOption())

	serviceContext, err := svc.NewAirdropServiceContext(c)
	if err != nil {
		logger.Errorf("启动失败: %v", err)
		os.Exit(2)
	}
	return serviceContext
}

func mustPubkey(name, value string) common.PublicKey {
	if value == "" {
		logger.Errorf("缺少必填参数 -%s", name)
		os.Exit(2)
	}
	pk, err := types.TryPubkeyFromBase58(value)
	if err != nil {
		logger.Errorf("参数 -%s 不是合法地址: %v", name, err)
		os.Exit(2)
	}
	return pk.ToCommon()
}

func runAirdrop(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("airdrop", flag.ExitOnError)
	configFile := fs.String("f", "etc/airdrop.yaml", "the config file")
	mintStr := fs.String("mint", "", "token mint address")
	csvFile := fs.String("csv", "", "recipients csv file (address[,amount] per row)")
	amount := fs.Uint64("amount", 0, "per-recipient amount in raw units (fallback when csv has no amount column)")
	hookStr := fs.String("hook-program", "", "transfer hook program id (default: read from mint extension)")
	_ = fs.Parse(args)

	serviceContext := loadContext(*configFile)
	mint := mustPubkey("mint", *mintStr)

	if *csvFile == "" {
		logger.Errorf("缺少必填参数 -csv")
		return 2
	}
	loaded, err := recipients.Load(*csvFile, *amount)
	if err != nil {
		logger.Errorf("收款人文件不可用: %v", err)
		return 2
	}

	var hookProgram common.PublicKey
	if *hookStr != "" {
		hookProgram = mustPubkey("hook-program", *hookStr)
	}

	engine := submitter.New(
		submitter.NewClientRPC(serviceContext.Client),
		serviceContext.Signer,
		submitter.Options{
			MaxAttempts:    serviceContext.Config.SubmitConf.MaxAttempts,
			BaseBackoff:    serviceContext.Config.SubmitConf.RetryBackoff(),
			ConfirmTimeout: serviceContext.Config.SubmitConf.ConfirmTimeout(),
			ConfirmPoll:    serviceContext.Config.SubmitConf.ConfirmPoll(),
		},
	)
	orchestrator := airdrop.New(
		serviceContext.Client,
		engine,
		serviceContext.Signer.PublicKey,
		airdrop.Params{
			Mint:               mint,
			HookProgram:        hookProgram,
			MaxTransfersPerTx:  serviceContext.Config.SubmitConf.MaxTransfersPerTx,
			CreateRecipientATA: serviceContext.Config.SubmitConf.CreateRecipientATA,
		},
	)

	report, err := orchestrator.Run(ctx, loaded.Valid)
	if err != nil {
		logger.Errorf("空投中止: %v", err)
		return 2
	}

	// 解析失败的行也要进报告：每个输入收款人恰好出现一次
	for _, rejected := range loaded.Rejected {
		report.AddFailure(rejected.Raw, 0, fmt.Errorf("unparsable: %w", rejected.Err))
	}

	report.Render(os.Stdout)
	if report.FailedCount() > 0 {
		return 1
	}
	return 0
}

func runMetas(ctx context.Context, args []string, create bool) int {
	name := "update-extra-metas"
	if create {
		name = "create-extra-metas"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configFile := fs.String("f", "etc/airdrop.yaml", "the config file")
	programStr := fs.String("program", "", "transfer hook program id")
	mintStr := fs.String("mint", "", "token mint address")
	authorityStr := fs.String("authority", "", "mint authority (default: signer)")
	extraStr := fs.String("extra-accounts", "", "comma separated accounts, each address[:w][:s]")
	_ = fs.Parse(args)

	serviceContext := loadContext(*configFile)
	hookProgram := mustPubkey("program", *programStr)
	mint := mustPubkey("mint", *mintStr)

	authority := serviceContext.Signer.PublicKey
	if *authorityStr != "" {
		authority = mustPubkey("authority", *authorityStr)
	}

	extraMetas, err := parseExtraAccounts(*extraStr)
	if err != nil {
		logger.Errorf("参数 -extra-accounts 不合法: %v", err)
		return 2
	}

	prepare := metas.PrepareUpdate
	if create {
		prepare = metas.PrepareCreate
	}
	instrs, err := prepare(ctx, serviceContext.Client, hookProgram, mint, authority, serviceContext.Signer.PublicKey, extraMetas)
	if err != nil {
		logger.Errorf("%s 失败: %v", name, err)
		return 2
	}

	engine := submitter.New(
		submitter.NewClientRPC(serviceContext.Client),
		serviceContext.Signer,
		submitter.Options{
			MaxAttempts:    serviceContext.Config.SubmitConf.MaxAttempts,
			BaseBackoff:    serviceContext.Config.SubmitConf.RetryBackoff(),
			ConfirmTimeout: serviceContext.Config.SubmitConf.ConfirmTimeout(),
			ConfirmPoll:    serviceContext.Config.SubmitConf.ConfirmPoll(),
		},
	)
	sig, _, err := engine.SubmitInstructions(ctx, instrs)
	if err != nil {
		logger.Errorf("%s 提交失败: %v", name, err)
		return 1
	}
	fmt.Printf("Signature: %s\n", sig)

	// 顺手校验一下写入结果可解码
	if _, err := resolver.Resolve(ctx, serviceContext.Client, mint, hookProgram); err != nil {
		logger.Warnf("写入后校验失败（账户可能尚未达到 confirmed）: %v", err)
	}
	return 0
}

// parseExtraAccounts 解析 "addr[:w][:s],addr..." 形式的额外账户描述。
func parseExtraAccounts(s string) ([]types.ExtraAccountMeta, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []types.ExtraAccountMeta
	for _, item := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(item), ":")
		addr, err := types.TryPubkeyFromBase58(parts[0])
		if err != nil {
			return nil, err
		}
		meta := types.ExtraAccountMeta{Address: addr}
		for _, fl := range parts[1:] {
			switch strings.ToLower(fl) {
			case "w":
				meta.IsWritable = true
			case "s":
				meta.IsSigner = true
			default:
				return nil, fmt.Errorf("unknown account flag %q in %q", fl, item)
			}
		}
		out = append(out, meta)
	}
	return out, nil
}
