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

package core

import "math"

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
// session 匯出時會一併保存 PRNG 狀態，匯入後可從同一點繼續。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// 要求同時提供 Uint64 / Float64 / UintN / IntN，是讓 32-bit 與 64-bit 原生輸出的 PRNG
// 各自用最合適的 bounded 策略與 Float64 精度，而不是全部退化成「先產生 uint64 再裁切」。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：在同一個實作與同一個版本下，New(seed) 必須是決定性的，
	// 相同的 seed 必須產生相同的初始內部狀態與輸出序列（模擬與回放依賴這點）。
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（PCG64）
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return NewPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// FactoryByName 依名稱取得 PRNGFactory："pcg64"（空字串同義）或 "pcg32"。
func FactoryByName(name string) (PRNGFactory, bool) {
	switch name {
	case "", "pcg64":
		return Default(), true
	case "pcg32":
		return PCG32Factory{}, true
	}
	return nil, false
}

// Core 封裝 PRNG，並提供遊戲常用的取樣方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// NewSeeded 以預設 PRNG 與指定 seed 建立 Core。
func NewSeeded(seed int64) *Core {
	return New(Default().New(seed))
}

// Derive 由目前序列抽一個 seed 建立新的 Core（PCG64）。
// 在鎖外執行的動畫 goroutine 各自使用 Derive 出來的 Core，主序列的消耗順序因此固定。
func (c *Core) Derive() *Core {
	return NewSeeded(int64(c.Uint64()))
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	idx := c.IntN(len(src))
	return src[idx]
}

// IntRange 回傳 [min,max] 的整數（兩端皆含）；max < min 時回傳 min。
// 數字轉盤（1..10 的擲骰、1..5 的 nudge 獎勵）都走這裡。
func (c *Core) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + c.IntN(max-min+1)
}

// Percent 回傳 [0,100) 的浮點數，供 win rate 累積判定使用。
func (c *Core) Percent() float64 {
	return c.Float64() * 100
}

// ExpFloat64 回傳參數為 1 的指數分佈亂數（> 0），供加權抽樣的分數使用。
func (c *Core) ExpFloat64() float64 {
	u := c.Float64()
	for u == 0 {
		u = c.Float64()
	}
	return -math.Log(u)
}

// ShuffleInts 使用 Fisher-Yates 演算法對 []int 就地重排，所有 N! 排列等機率。
func (c *Core) ShuffleInts(src []int) {
	Shuffle(c, src)
}

// Shuffle 是 ShuffleInts 的泛型版本（reel strip 為 []string）。
func Shuffle[T any](c *Core, src []T) {
	if len(src) <= 1 {
		return
	}
	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}
