package submitter

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// OnChainError 表示交易已上链但执行失败（hook 拒绝、余额不足等）。
// 这种失败重试不可能成功，提交引擎会立即放弃。
type OnChainError struct {
	Signature string
	Detail    any
}

func (e *OnChainError) Error() string {
	return fmt.Sprintf("transaction failed on-chain: %v (signature=%s)", e.Detail, e.Signature)
}

// 节点返回里能识别出"程序级拒绝"的关键字。发送阶段的预检/模拟失败
// 同样是逻辑拒绝，与链上执行失败同等对待。
var programFailureMarkers = []string{
	"custom program error",
	"instructionerror",
	"insufficient funds",
	"invalid account data",
	"account not initialized",
	"incorrect program id",
}

// 明确的瞬态错误关键字，重建交易后值得重试。
var transientMarkers = []string{
	"blockhash not found",
	"block height exceeded",
	"rate limit",
	"429",
	"timeout",
	"timed out",
	"connection",
	"unavailable",
	"temporar",
	"eof",
}

// isTransient 判断一次尝试的失败是否值得重试。
// 未知错误默认按瞬态处理：重试受预算约束，误重试一笔注定失败的
// 交易无副作用（链上原子性保证不会部分生效）。
func isTransient(err error) bool {
	var oce *OnChainError
	if errors.As(err, &oce) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	for _, marker := range programFailureMarkers {
		if strings.Contains(msg, marker) {
			return false
		}
	}
	return true
}
