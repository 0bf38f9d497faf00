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

// Package reel 描述單一轉輪：strip 排列、中心索引、固定的 bonus 格，以及可視窗口相關計算。
package reel

import (
	"slices"

	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/sdk/sampler"
)

// WindowSize 可視窗口大小：中心與上下各一格。
const WindowSize = 3

// Direction 是 nudge 的方向。
type Direction int

const (
	Up   Direction = 1
	Down Direction = -1
)

// ParseDirection 解析 "up" / "down"。
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return Up, true
	case "down":
		return Down, true
	}
	return 0, false
}

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Reel 一個轉輪。
//
//   - Strip: 圖標 id 的循環序列，長度在轉輪生命週期內不變；中途重排只改順序不改內容。
//   - Index: 中心索引，任何整數都會被 wrap 回 [0,len)。
//   - BonusPositions: 建立時選定的 bonus 格（遞增、不重複），之後永不改變，與該格上的圖標無關。
type Reel struct {
	ID             int      `json:"id"`
	Strip          []string `json:"strip"`
	Index          int      `json:"index"`
	BonusPositions []int    `json:"bonus_positions"`
}

// New 以 items 建立一個洗過的轉輪，起始中心與 bonus 格都隨機。
func New(id int, items []string, bonusPerReel int, c *core.Core) *Reel {
	strip := slices.Clone(items)
	core.Shuffle(c, strip)
	index := 0
	if len(strip) > 0 {
		index = c.IntN(len(strip))
	}
	return &Reel{
		ID:             id,
		Strip:          strip,
		Index:          index,
		BonusPositions: sampler.Distinct(c, len(strip), bonusPerReel),
	}
}

// NewReels 建立 count 個轉輪，id 依序為 0..count-1。
func NewReels(items []string, count, bonusPerReel int, c *core.Core) []*Reel {
	out := make([]*Reel, count)
	for i := range out {
		out[i] = New(i, items, bonusPerReel, c)
	}
	return out
}

// Wrap 將任意整數索引 wrap 到 [0,size)；size <= 0 回傳 0。
func Wrap(index, size int) int {
	if size <= 0 {
		return 0
	}
	m := index % size
	if m < 0 {
		m += size
	}
	return m
}

// VisibleWindow 回傳 center-1, center, center+1 wrap 後的索引。對任何整數 center 都不會 panic。
func VisibleWindow(center, length int) [WindowSize]int {
	return [WindowSize]int{
		Wrap(center-1, length),
		Wrap(center, length),
		Wrap(center+1, length),
	}
}

// ============================================================
// ** 以下公開方法 **
// ============================================================

// Len 回傳 strip 長度。
func (r *Reel) Len() int {
	return len(r.Strip)
}

// Window 回傳目前的可視索引。
func (r *Reel) Window() [WindowSize]int {
	return VisibleWindow(r.Index, len(r.Strip))
}

// CenterItem 回傳中心圖標 id；空 strip 回傳空字串。
func (r *Reel) CenterItem() string {
	if len(r.Strip) == 0 {
		return ""
	}
	return r.Strip[Wrap(r.Index, len(r.Strip))]
}

// VisibleItems 回傳可視窗口內的圖標 id（上、中、下）。
func (r *Reel) VisibleItems() [WindowSize]string {
	var out [WindowSize]string
	if len(r.Strip) == 0 {
		return out
	}
	for i, pos := range r.Window() {
		out[i] = r.Strip[pos]
	}
	return out
}

// IsBonus 回傳 pos 是否為 bonus 格。
func (r *Reel) IsBonus(pos int) bool {
	_, ok := slices.BinarySearch(r.BonusPositions, pos)
	return ok
}

// VisibleBonusCount 回傳可視窗口內的 bonus 格數。
// strip 比窗口短時同一格可能出現多次，每個出現都會被計入。
func (r *Reel) VisibleBonusCount() int {
	if len(r.Strip) == 0 {
		return 0
	}
	n := 0
	for _, pos := range r.Window() {
		if r.IsBonus(pos) {
			n++
		}
	}
	return n
}

// IndexOf 回傳 id 在 strip 中第一次出現的位置；不存在回傳 -1。
func (r *Reel) IndexOf(id string) int {
	return slices.Index(r.Strip, id)
}

// Step 動畫前進一格。
func (r *Reel) Step() {
	r.Index = Wrap(r.Index+1, len(r.Strip))
}

// Nudge 將中心移動一格（Up 為 +1、Down 為 -1），strip 與 bonus 格不變。
// 被 hold 或轉動中的轉輪由呼叫端擋下。
func (r *Reel) Nudge(d Direction) {
	r.Index = Wrap(r.Index+int(d), len(r.Strip))
}

// StopOn 將中心設在 id 第一次出現的位置；找不到時停在 0。
func (r *Reel) StopOn(id string) {
	r.Index = max(0, r.IndexOf(id))
}

// ReshufflePreservingCenter 重新洗 strip，並把中心移到原本中心圖標的新位置，
// 使已顯示的中心圖標不會在重排時改變。找不到時保留原索引。
func (r *Reel) ReshufflePreservingCenter(c *core.Core) {
	if len(r.Strip) == 0 {
		return
	}
	centre := r.CenterItem()
	core.Shuffle(c, r.Strip)
	if i := r.IndexOf(centre); i >= 0 {
		r.Index = i
	}
}

// Clone 深拷貝。
func (r *Reel) Clone() *Reel {
	return &Reel{
		ID:             r.ID,
		Strip:          slices.Clone(r.Strip),
		Index:          r.Index,
		BonusPositions: slices.Clone(r.BonusPositions),
	}
}

// ============================================================
// ** 多轉輪計算 **
// ============================================================

// CloneAll 深拷貝整組轉輪。
func CloneAll(reels []*Reel) []*Reel {
	out := make([]*Reel, len(reels))
	for i, r := range reels {
		out[i] = r.Clone()
	}
	return out
}

// CenterItems 回傳每個轉輪的中心圖標。
func CenterItems(reels []*Reel) []string {
	out := make([]string, len(reels))
	for i, r := range reels {
		out[i] = r.CenterItem()
	}
	return out
}

// CountVisibleBonus 整組重新計數：所有轉輪可視 bonus 格的總和。完整 spin 後使用。
func CountVisibleBonus(reels []*Reel) int {
	n := 0
	for _, r := range reels {
		n += r.VisibleBonusCount()
	}
	return n
}

type slotKey struct {
	reel int
	pos  int
}

func visibleBonusKeys(reels []*Reel) map[slotKey]struct{} {
	keys := map[slotKey]struct{}{}
	for _, r := range reels {
		if len(r.Strip) == 0 {
			continue
		}
		for _, pos := range r.Window() {
			if r.IsBonus(pos) {
				keys[slotKey{r.ID, pos}] = struct{}{}
			}
		}
	}
	return keys
}

// CountNewlyVisibleBonus 回傳 after 可視、但 before 時不可視的 (reelID, position) bonus 格數。
// nudge 只移動一軸，用差集而不是重新計數。
func CountNewlyVisibleBonus(before, after []*Reel) int {
	prev := visibleBonusKeys(before)
	n := 0
	for k := range visibleBonusKeys(after) {
		if _, ok := prev[k]; !ok {
			n++
		}
	}
	return n
}
