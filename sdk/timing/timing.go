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

// Package timing 抽象出遊戲流程中所有的等待點：轉輪 tick、停輪延遲、訊息顯示時間、數字轉盤。
//
// 線上服務使用 Real；模擬器與測試使用 Instant，流程順序完全相同但不真的睡眠，
// 並累計「虛擬經過時間」供統計使用。
package timing

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock 提供可被 context 中斷的等待。
type Clock interface {
	// Sleep 等待 d；ctx 結束時提早回傳 ctx.Err()。d <= 0 時只檢查 ctx。
	Sleep(ctx context.Context, d time.Duration) error
}

// Real 以 time.Timer 實作真實等待。
type Real struct{}

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Instant 立即回傳，並累計虛擬時間。可安全地被多個 goroutine 共用。
type Instant struct {
	elapsed atomic.Int64
}

// NewInstant 建立新的 Instant clock。
func NewInstant() *Instant {
	return &Instant{}
}

func (c *Instant) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.elapsed.Add(int64(d))
	}
	return nil
}

// Elapsed 回傳目前累計的虛擬等待時間（所有 goroutine 的總和）。
func (c *Instant) Elapsed() time.Duration {
	return time.Duration(c.elapsed.Load())
}

// Reset 歸零虛擬時間。
func (c *Instant) Reset() {
	c.elapsed.Store(0)
}

// Ms 將毫秒整數轉成 time.Duration，設定檔中的時間一律以毫秒表示。
func Ms(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Seconds 將浮點秒數轉成 time.Duration（訊息顯示時間使用）。
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
