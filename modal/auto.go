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

package modal

import (
	"context"
	"sync"

	"github.com/zintix-labs/ladderslot/sdk/timing"
)

// Auto 依策略自動回應的對話框，記錄每一則訊息。Clock 為 nil 時不等待。
type Auto struct {
	Clock timing.Clock
	// YesNo 決定是/否的回答；nil 時一律回答否。
	YesNo func(title, content string) bool

	mu   sync.Mutex
	log  []Message
	asks int
	acks int
}

func (a *Auto) record(msg Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log = append(a.log, msg)
}

func (a *Auto) Show(ctx context.Context, msg Message, seconds float64) error {
	a.record(msg)
	if a.Clock == nil {
		return ctx.Err()
	}
	return a.Clock.Sleep(ctx, FlashDuration(seconds))
}

func (a *Auto) AskYesNo(ctx context.Context, title, content string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	a.record(Message{Title: title, Content: content})
	a.mu.Lock()
	a.asks++
	a.mu.Unlock()
	if a.YesNo == nil {
		return false, nil
	}
	return a.YesNo(title, content), nil
}

func (a *Auto) Acknowledge(ctx context.Context, title, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.record(Message{Title: title, Content: content})
	a.mu.Lock()
	a.acks++
	a.mu.Unlock()
	return nil
}

// Messages 回傳所有記錄的訊息內容（舊到新）。
func (a *Auto) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.log))
	for i, m := range a.log {
		out[i] = m.Content
	}
	return out
}

// Counts 回傳 AskYesNo 與 Acknowledge 的呼叫次數。
func (a *Auto) Counts() (asks, acks int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.asks, a.acks
}

// Reset 清空記錄。
func (a *Auto) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log = nil
	a.asks, a.acks = 0, 0
}
