package planner

import (
	"hook-airdrop-sol/internal/config"
	"hook-airdrop-sol/internal/types"
)

// Plan 将收款人序列切成连续的、保序的批次，每批最多 maxPerTx 人。
// 纯函数：空输入产出空计划；批次拼接后与输入完全一致（不丢、不重、不乱序）。
func Plan(recipients []types.Recipient, maxPerTx int) []types.TransferBatch {
	if maxPerTx <= 0 {
		maxPerTx = config.DefaultMaxTransfersPerTx
	}
	if len(recipients) == 0 {
		return nil
	}

	batches := make([]types.TransferBatch, 0, (len(recipients)+maxPerTx-1)/maxPerTx)
	for start := 0; start < len(recipients); start += maxPerTx {
		end := start + maxPerTx
		if end > len(recipients) {
			end = len(recipients)
		}
		batches = append(batches, types.TransferBatch{
			Index:      len(batches),
			Recipients: recipients[start:end],
		})
	}
	return batches
}
