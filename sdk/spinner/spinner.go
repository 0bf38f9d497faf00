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

// Package spinner 是 ladder、higher/lower 與 backboard 共用的數字轉盤。
//
// 結果由呼叫端事先決定並傳入，轉盤只負責在等待期間每個 tick 顯示一個隨機數字，
// 停止時顯示結果。這讓結果只依賴遊戲主亂數，動畫的亂數另外走一條序列。
package spinner

import (
	"context"
	"sync"
	"time"

	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/sdk/timing"
)

// InitialValue 轉盤初始顯示的數字。
const InitialValue = 1

// State 轉盤對外狀態。
type State struct {
	Value      int  `json:"value"`
	IsSpinning bool `json:"is_spinning"`
}

// Config 單次轉動的參數。
type Config struct {
	Min      int
	Max      int
	Duration time.Duration
	Tick     time.Duration
}

// Ticks 回傳這次轉動會顯示幾個中間值。
func (c Config) Ticks() int {
	if c.Tick <= 0 || c.Duration <= 0 {
		return 0
	}
	return int(c.Duration / c.Tick)
}

// Spinner 持有轉盤狀態；State 可在轉動中被其他 goroutine 讀取。
type Spinner struct {
	mu    sync.Mutex
	state State
	clock timing.Clock
}

// New 建立轉盤。
func New(clock timing.Clock) *Spinner {
	return &Spinner{clock: clock, state: State{Value: InitialValue}}
}

// State 回傳目前狀態。
func (s *Spinner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Value 回傳目前顯示的數字。
func (s *Spinner) Value() int {
	return s.State().Value
}

// Restore 直接設定狀態（session 匯入、重置使用）。
func (s *Spinner) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

func (s *Spinner) set(v int, spinning bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v != 0 {
		s.state.Value = v
	}
	s.state.IsSpinning = spinning
}

// Spin 轉動 cfg.Duration，期間每個 tick 以 anim 抽一個 [Min,Max] 的數字顯示，最後停在 result。
// ctx 結束時仍會停在 result 並回傳 ctx.Err()。
func (s *Spinner) Spin(ctx context.Context, cfg Config, result int, anim *core.Core) (err error) {
	s.set(0, true)
	defer func() { s.set(result, false) }()

	ticks := cfg.Ticks()
	for i := 0; i < ticks; i++ {
		if err = s.clock.Sleep(ctx, cfg.Tick); err != nil {
			return err
		}
		v := result
		if i < ticks-1 && anim != nil {
			v = anim.IntRange(cfg.Min, cfg.Max)
		}
		s.set(v, true)
	}
	return s.clock.Sleep(ctx, cfg.Duration-time.Duration(ticks)*cfg.Tick)
}
