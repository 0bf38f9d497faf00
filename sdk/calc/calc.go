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

// Package calc 負責結果選擇與賠付計算：加權中獎 rank、未中獎時的停輪圖標、單線判定與賠付金額。
package calc

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/sdk/reel"
	"github.com/zintix-labs/ladderslot/spec"
)

// NoWin 表示加權抽選落在「未中獎」區間。
const NoWin = 0

// ChooseWinningRank 在 [0,100) 擲一次，依宣告順序累加 win rate，
// 回傳第一個累積區間包含擲值的 rank；超過所有 win rate 總和時回傳 NoWin。
//
// 區間為半開 [prev, cursor)，win rate 為 0 的圖標不會被選中。
func ChooseWinningRank(c *core.Core, items []spec.ReelItem) int {
	roll := c.Percent()
	cursor := 0.0
	for i := range items {
		cursor += items[i].Rate()
		if roll < cursor {
			return items[i].Rank
		}
	}
	return NoWin
}

// ChooseNonMatchingStopItems 每軸獨立均勻抽一個停輪圖標；
// 若全部相同，只重抽最後一軸直到不再全同。最後一軸沒有其他圖標可選時直接回傳。
func ChooseNonMatchingStopItems(c *core.Core, reels []*reel.Reel) []string {
	stops := make([]string, len(reels))
	for i, r := range reels {
		stops[i] = uniformStop(c, r)
	}
	if len(reels) < 2 {
		return stops
	}
	last := reels[len(reels)-1]
	if !hasOther(last.Strip, stops[0]) {
		return stops
	}
	for allEqual(stops) {
		stops[len(stops)-1] = uniformStop(c, last)
	}
	return stops
}

// BuildStopItems 決定一次 spin 每軸的停輪圖標。
//
//   - 有任何一軸被 hold：被 hold 的軸保留目前中心圖標，其餘各軸獨立均勻抽。
//   - 沒有 hold：先 ChooseWinningRank；中獎則所有軸停在該 rank 的圖標，否則走 ChooseNonMatchingStopItems。
func BuildStopItems(c *core.Core, ts *spec.ThemeSetting, reels []*reel.Reel, held []bool) []string {
	if anyHeld(held) {
		stops := make([]string, len(reels))
		for i, r := range reels {
			if i < len(held) && held[i] {
				stops[i] = r.CenterItem()
				continue
			}
			stops[i] = uniformStop(c, r)
		}
		return stops
	}

	if rank := ChooseWinningRank(c, ts.ReelItems); rank != NoWin {
		if it := ts.ItemByRank(rank); it != nil {
			stops := make([]string, len(reels))
			for i := range stops {
				stops[i] = it.ID
			}
			return stops
		}
	}
	return ChooseNonMatchingStopItems(c, reels)
}

// GetPayout 回傳 stake * multiplier；沒有中獎圖標時為 0。不做任何捨入。
func GetPayout(matched *spec.ReelItem, stake int) decimal.Decimal {
	if matched == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(stake)).Mul(matched.Mult())
}

// Line 是單線判定結果。
type Line struct {
	Win     bool
	Item    *spec.ReelItem
	Payout  decimal.Decimal
	Centres []string
}

// Rank 回傳中獎 rank；未中獎為 NoWin。
func (l Line) Rank() int {
	if l.Item == nil {
		return NoWin
	}
	return l.Item.Rank
}

// EvaluateLine 所有中心圖標相同即中線，賠付為 GetPayout。
func EvaluateLine(ts *spec.ThemeSetting, reels []*reel.Reel, stake int) Line {
	centres := reel.CenterItems(reels)
	l := Line{Payout: decimal.Zero, Centres: centres}
	if len(centres) == 0 || !allEqual(centres) {
		return l
	}
	it := ts.Item(centres[0])
	if it == nil {
		return l
	}
	l.Win = true
	l.Item = it
	l.Payout = GetPayout(it, stake)
	return l
}

func uniformStop(c *core.Core, r *reel.Reel) string {
	if r.Len() == 0 {
		return ""
	}
	return r.Strip[c.IntN(r.Len())]
}

func allEqual(ids []string) bool {
	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[0] {
			return false
		}
	}
	return true
}

func hasOther(strip []string, id string) bool {
	for _, s := range strip {
		if s != id {
			return true
		}
	}
	return false
}

func anyHeld(held []bool) bool {
	for _, h := range held {
		if h {
			return true
		}
	}
	return false
}
