package recipients

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"hook-airdrop-sol/internal/types"
	"hook-airdrop-sol/pkg/logger"
)

// ParseError 表示 CSV 中单行解析失败，不影响其余行。
type ParseError struct {
	Line int
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d (%q): %v", e.Line, e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadResult 是一次 CSV 读取的产物：可提交的收款人 + 被拒绝的行。
type LoadResult struct {
	Valid    []types.Recipient
	Rejected []*ParseError
}

// Load 读取收款人 CSV。每行格式为 `address[,amount]`；
// 无 per-row 数量时使用 defaultAmount（全局 --amount）。
// 单行坏数据只淘汰该行；全部行都坏时视为致命错误。
func Load(path string, defaultAmount uint64) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipients file %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f, defaultAmount)
}

// Parse 从任意 reader 解析收款人行，便于测试。
func Parse(r io.Reader, defaultAmount uint64) (*LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // 行内列数允许不一致（amount 列可选）
	reader.TrimLeadingSpace = true

	result := &LoadResult{}
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Rejected = append(result.Rejected, &ParseError{Line: line, Raw: "", Err: err})
			continue
		}

		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue // 跳过空行
		}

		// 首行表头兼容
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "address") {
			continue
		}

		rec, perr := parseRow(line, record, defaultAmount)
		if perr != nil {
			logger.Warnf("[recipients] 第 %d 行解析失败: %v", line, perr.Err)
			result.Rejected = append(result.Rejected, perr)
			continue
		}
		result.Valid = append(result.Valid, rec)
	}

	if len(result.Valid) == 0 && len(result.Rejected) > 0 {
		return nil, fmt.Errorf("no usable recipient rows: %d rows all failed to parse", len(result.Rejected))
	}
	return result, nil
}

func parseRow(line int, record []string, defaultAmount uint64) (types.Recipient, *ParseError) {
	raw := strings.Join(record, ",")

	addr, err := types.TryPubkeyFromBase58(strings.TrimSpace(record[0]))
	if err != nil {
		return types.Recipient{}, &ParseError{Line: line, Raw: raw, Err: err}
	}

	amount := defaultAmount
	if len(record) > 1 && strings.TrimSpace(record[1]) != "" {
		amount, err = strconv.ParseUint(strings.TrimSpace(record[1]), 10, 64)
		if err != nil {
			return types.Recipient{}, &ParseError{Line: line, Raw: raw, Err: fmt.Errorf("invalid amount: %w", err)}
		}
	}
	if amount == 0 {
		return types.Recipient{}, &ParseError{Line: line, Raw: raw, Err: errors.New("amount must be greater than zero")}
	}

	return types.Recipient{Address: addr, Amount: amount}, nil
}
