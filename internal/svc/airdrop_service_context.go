package svc

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/client"
	sdktypes "github.com/blocto/solana-go-sdk/types"

	"hook-airdrop-sol/internal/config"
	"hook-airdrop-sol/internal/wallet"
	"hook-airdrop-sol/pkg/logger"
)

// AirdropServiceContext 持有一次运行期间共享的资源：配置、RPC 客户端、签名密钥。
// 配置不可变，没有进程级单例。
type AirdropServiceContext struct {
	Config config.AirdropConfig
	Client *client.Client
	Signer sdktypes.Account
}

// NewAirdropServiceContext 创建服务上下文。
// 密钥不可读、RPC 地址缺失等启动期配置错误在这里直接失败。
func NewAirdropServiceContext(c config.AirdropConfig) (*AirdropServiceContext, error) {
	if c.RpcConf.Endpoint == "" {
		return nil, errors.New("rpc endpoint is required")
	}
	if c.KeypairPath == "" {
		return nil, errors.New("keypair_path is required")
	}

	signer, err := wallet.Load(c.KeypairPath)
	if err != nil {
		logger.Errorf("密钥加载失败: %v", err)
		return nil, fmt.Errorf("failed to load signer keypair: %w", err)
	}

	c.SubmitConf.FillDefaults()

	ctx := &AirdropServiceContext{
		Config: c,
		Client: client.NewClient(c.RpcConf.Endpoint),
		Signer: signer,
	}
	logger.Infof("服务上下文初始化完成, endpoint=%s, signer=%s", c.RpcConf.Endpoint, signer.PublicKey.ToBase58())
	return ctx, nil
}
