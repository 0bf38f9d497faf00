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

// Package modal 是遊戲核心使用的對話框服務：阻塞式訊息、是/否詢問、強制確認。
//
// 核心只依賴 Service 介面。Board 給互動式的 HTTP session 使用（題目掛在 Board 上、由 API 回答），
// Auto 給模擬器與測試使用（依策略函式自動回答並記錄所有訊息）。
package modal

import (
	"context"
	"time"
)

const (
	// DefaultFlashSeconds 未指定或非正數時的訊息顯示秒數。
	DefaultFlashSeconds = 2.0
	// MinFlashSeconds 訊息最短顯示秒數。
	MinFlashSeconds = 0.1
	// closeMargin 訊息關閉後到流程繼續之間的間隔。
	closeMargin = 60 * time.Millisecond
)

// Message 一則訊息。
type Message struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Service 對話框服務。所有方法都會阻塞到使用者（或策略）回應為止，ctx 結束時提早回傳。
type Service interface {
	// Show 顯示訊息 seconds 秒後回傳。
	Show(ctx context.Context, msg Message, seconds float64) error
	// AskYesNo 詢問是/否。
	AskYesNo(ctx context.Context, title, content string) (bool, error)
	// Acknowledge 顯示只有 OK 按鈕的訊息，按下後回傳。
	Acknowledge(ctx context.Context, title, content string) error
}

// FlashDuration 回傳一則訊息實際佔用的時間：顯示時間（預設 2 秒、最短 0.1 秒）加上關閉間隔。
func FlashDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		seconds = DefaultFlashSeconds
	}
	seconds = max(MinFlashSeconds, seconds)
	return time.Duration(seconds*float64(time.Second)) + closeMargin
}
