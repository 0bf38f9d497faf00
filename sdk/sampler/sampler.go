// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sampler 提供遊戲與模擬器共用的抽樣工具。
//
//   - Distinct：從 [0,n) 取 k 個不重複位置（轉輪 bonus 格的配置）。
//   - AliasTable：O(1) 整數加權抽樣（模擬玩家的押注分佈）。
package sampler

import (
	"math"
	"math/bits"
	"slices"

	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/sdk/core"
)

// Distinct 以部分 Fisher-Yates 從 [0,n) 不放回地取出 k 個位置，回傳遞增排序的結果。
// k > n 時取 n 個；n <= 0 或 k <= 0 回傳空切片。
//
// 每次抽取固定消耗 1 次 IntN，即使亂數來源被固定成常數也一定會結束。
func Distinct(c *core.Core, n, k int) []int {
	if n <= 0 || k <= 0 {
		return []int{}
	}
	k = min(k, n)
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + c.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	out := slices.Clone(pool[:k])
	slices.Sort(out)
	return out
}

// AliasTable 是 Vose Alias Method 的整數版本。
//
//   - Prob: 每個槽位調整後的機率（已乘上 Size 做整數 scaling）。
//   - Aliases: 槽位機率不足時指向的別名索引。
//   - Total: 權重總和，抽樣時作為擲骰上界。
//
// 建表 O(N)，抽樣 O(1) 且固定消耗 2 次 IntN；全程整數運算，不受浮點誤差影響。
type AliasTable struct {
	Prob    []int
	Aliases []int
	Size    int
	Total   int
}

// BuildAliasTable 根據非負整數權重建立 AliasTable。
// 負權重、全部為零或 total*n 溢位時回傳 errs.Fatal。
func BuildAliasTable(weights []int) (*AliasTable, error) {
	n := len(weights)
	if n == 0 {
		return nil, errs.NewFatal("alias table: empty weights")
	}

	total := 0
	for i, w := range weights {
		if w < 0 {
			return nil, errs.Fatalf("alias table: negative weight at %d", i)
		}
		if total > math.MaxInt-w {
			return nil, errs.NewFatal("alias table: total weight overflow")
		}
		total += w
	}
	if total == 0 {
		return nil, errs.NewFatal("alias table: all weights are zero")
	}
	if !isSafeMultiply(total, n) {
		return nil, errs.NewFatal("alias table: weights too large")
	}

	prob := make([]int, n)
	aliases := make([]int, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)

	for i, w := range weights {
		prob[i] = w * n // 整數 scaling
		aliases[i] = i
		if prob[i] < total {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		aliases[s] = l
		prob[l] = prob[l] + prob[s] - total // 維持 sum(prob) = total * n

		if prob[l] < total {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}

	return &AliasTable{Prob: prob, Aliases: aliases, Size: n, Total: total}, nil
}

// isSafeMultiply 檢查 a*b 是否落在 int64 範圍內。
func isSafeMultiply(a, b int) bool {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	return hi == 0 && lo <= math.MaxInt64
}

// Pick 抽出一個索引；空表回傳 -1。
// 先均勻選槽位，再以 IntN(Total) < Prob[idx] 決定取自己或別名。
func (at *AliasTable) Pick(c *core.Core) int {
	if at == nil || at.Size == 0 {
		return -1
	}
	idx := c.IntN(at.Size)
	if c.IntN(at.Total) < at.Prob[idx] {
		return idx
	}
	return at.Aliases[idx]
}
