package airdrop

import (
	"fmt"
	"io"
	"text/tabwriter"

	"hook-airdrop-sol/internal/types"
)

// Report 聚合整轮空投的结果：每个输入收款人恰好一行。
// 批次交易在链上是原子的，批次结果直接展开到批内所有收款人。
type Report struct {
	Entries []types.RecipientOutcome

	// Results 保留批次级结果（含全部尝试记录），用于审计
	Results []*types.SubmissionResult
}

func NewReport() *Report {
	return &Report{}
}

// addBatch 将批次级结果展开为 per-recipient 结果。
func (r *Report) addBatch(res *types.SubmissionResult) {
	r.Results = append(r.Results, res)
	for _, rec := range res.Batch.Recipients {
		r.Entries = append(r.Entries, types.RecipientOutcome{
			Address:   rec.Address.String(),
			Amount:    rec.Amount,
			Signature: res.Signature,
			Err:       res.Err,
		})
	}
}

// AddFailure 追加一条未进入提交流程的失败（如 CSV 行解析失败）。
func (r *Report) AddFailure(address string, amount uint64, err error) {
	r.Entries = append(r.Entries, types.RecipientOutcome{
		Address: address,
		Amount:  amount,
		Err:     err,
	})
}

func (r *Report) FailedCount() int {
	n := 0
	for _, e := range r.Entries {
		if !e.Succeeded() {
			n++
		}
	}
	return n
}

func (r *Report) SucceededCount() int {
	return len(r.Entries) - r.FailedCount()
}

// Render 输出 per-recipient 结果表，供控制台查看或重定向再导出。
func (r *Report) Render(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tAMOUNT\tOUTCOME")
	for _, e := range r.Entries {
		if e.Succeeded() {
			fmt.Fprintf(tw, "%s\t%d\tok %s\n", e.Address, e.Amount, e.Signature)
		} else {
			fmt.Fprintf(tw, "%s\t%d\tfailed: %v\n", e.Address, e.Amount, e.Err)
		}
	}
	tw.Flush()
	fmt.Fprintf(w, "\ntotal=%d success=%d failed=%d\n", len(r.Entries), r.SucceededCount(), r.FailedCount())
}
