package recipients

import (
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(b byte) string {
	var raw [32]byte
	raw[0] = b
	return common.PublicKeyFromBytes(raw[:]).ToBase58()
}

func TestParse_HeaderAndDefaults(t *testing.T) {
	input := "address,amount\n" + addr(1) + "\n" + addr(2) + ",250\n"

	res, err := Parse(strings.NewReader(input), 100)
	require.NoError(t, err)
	require.Len(t, res.Valid, 2)
	assert.Empty(t, res.Rejected)

	assert.Equal(t, addr(1), res.Valid[0].Address.String())
	assert.Equal(t, uint64(100), res.Valid[0].Amount, "无 amount 列时应回落到全局默认值")
	assert.Equal(t, uint64(250), res.Valid[1].Amount, "行内 amount 优先于默认值")
}

func TestParse_SkipsBlankLines(t *testing.T) {
	input := addr(1) + "\n\n  \n" + addr(2) + "\n"

	res, err := Parse(strings.NewReader(input), 10)
	require.NoError(t, err)
	assert.Len(t, res.Valid, 2)
	assert.Empty(t, res.Rejected)
}

// 单行坏数据只淘汰该行，其余行照常进入提交流程
func TestParse_RejectsBadRowsIndividually(t *testing.T) {
	input := addr(1) + "\n" +
		"not-a-pubkey\n" +
		addr(2) + ",abc\n" +
		addr(3) + ",0\n" +
		addr(4) + ",7\n"

	res, err := Parse(strings.NewReader(input), 10)
	require.NoError(t, err)
	require.Len(t, res.Valid, 2)
	assert.Equal(t, addr(1), res.Valid[0].Address.String())
	assert.Equal(t, addr(4), res.Valid[1].Address.String())

	require.Len(t, res.Rejected, 3)
	assert.Equal(t, 2, res.Rejected[0].Line)
	assert.Equal(t, 3, res.Rejected[1].Line)
	assert.ErrorContains(t, res.Rejected[1], "invalid amount")
	assert.Equal(t, 4, res.Rejected[2].Line)
	assert.ErrorContains(t, res.Rejected[2], "greater than zero")
}

func TestParse_ZeroDefaultAmountRejected(t *testing.T) {
	res, err := Parse(strings.NewReader(addr(1)+"\n"+addr(2)+",5\n"), 0)
	require.NoError(t, err)
	require.Len(t, res.Valid, 1, "默认值为 0 时无行内 amount 的行应被拒绝")
	assert.Len(t, res.Rejected, 1)
}

// 全部行都坏时是致命错误，而不是"0 个收款人的成功空投"
func TestParse_AllRowsBadIsFatal(t *testing.T) {
	input := "xxx\nyyy\n"
	_, err := Parse(strings.NewReader(input), 10)
	require.Error(t, err)
	assert.ErrorContains(t, err, "all failed")
}

func TestParse_EmptyInput(t *testing.T) {
	res, err := Parse(strings.NewReader(""), 10)
	require.NoError(t, err)
	assert.Empty(t, res.Valid)
	assert.Empty(t, res.Rejected)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/recipients.csv", 10)
	assert.Error(t, err)
}
