package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

// Load 从文件加载 Ed25519 签名密钥。
// 兼容两种格式：solana-cli 的 JSON 字节数组（id.json），以及 base58 编码的私钥字符串。
func Load(path string) (sdktypes.Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sdktypes.Account{}, fmt.Errorf("failed to read keypair file %s: %w", path, err)
	}

	// 优先按 JSON 数字数组解析（solana-cli id.json 格式）
	var nums []int
	if err := json.Unmarshal(raw, &nums); err == nil {
		bytesKey := make([]byte, len(nums))
		for i, n := range nums {
			if n < 0 || n > 255 {
				return sdktypes.Account{}, fmt.Errorf("keypair file %s contains out-of-range byte %d", path, n)
			}
			bytesKey[i] = byte(n)
		}
		acc, err := sdktypes.AccountFromBytes(bytesKey)
		if err != nil {
			return sdktypes.Account{}, fmt.Errorf("invalid keypair bytes in %s: %w", path, err)
		}
		return acc, nil
	}

	// 兜底：整个文件视为 base58 私钥
	s := strings.TrimSpace(string(raw))
	decoded, err := base58.Decode(s)
	if err != nil {
		return sdktypes.Account{}, fmt.Errorf("keypair file %s is neither JSON array nor base58: %w", path, err)
	}
	acc, err := sdktypes.AccountFromBytes(decoded)
	if err != nil {
		return sdktypes.Account{}, fmt.Errorf("invalid base58 keypair in %s: %w", path, err)
	}
	return acc, nil
}
