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
	"time"

	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/sdk/timing"
)

// Kind 對話框種類。
type Kind string

const (
	KindFlash Kind = "flash"
	KindYesNo Kind = "yes_no"
	KindOK    Kind = "ok"
)

// Prompt 目前掛在 Board 上的對話框。
type Prompt struct {
	ID      uint64    `json:"id"`
	Kind    Kind      `json:"kind"`
	Title   string    `json:"title,omitempty"`
	Content string    `json:"content"`
	Until   time.Time `json:"until,omitzero"`
}

// Board 互動式對話框：同一時間最多一個 Prompt，由 Answer 回應。
type Board struct {
	mu      sync.Mutex
	clock   timing.Clock
	seq     uint64
	current *Prompt
	answer  chan bool
	history []Message
	keep    int
}

// NewBoard 建立 Board；keep 為保留的歷史訊息數（<=0 時為 20）。
func NewBoard(clock timing.Clock, keep int) *Board {
	if keep <= 0 {
		keep = 20
	}
	return &Board{clock: clock, keep: keep}
}

func (b *Board) open(kind Kind, title, content string, d time.Duration) (uint64, chan bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	p := &Prompt{ID: b.seq, Kind: kind, Title: title, Content: content}
	if d > 0 {
		p.Until = time.Now().Add(d)
	}
	b.current = p
	b.answer = nil
	if kind != KindFlash {
		b.answer = make(chan bool, 1)
	}
	b.history = append(b.history, Message{Title: title, Content: content})
	if len(b.history) > b.keep {
		b.history = b.history[len(b.history)-b.keep:]
	}
	return p.ID, b.answer
}

func (b *Board) close(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil && b.current.ID == id {
		b.current = nil
		b.answer = nil
	}
}

func (b *Board) Show(ctx context.Context, msg Message, seconds float64) error {
	d := FlashDuration(seconds)
	id, _ := b.open(KindFlash, msg.Title, msg.Content, d)
	defer b.close(id)
	return b.clock.Sleep(ctx, d)
}

func (b *Board) AskYesNo(ctx context.Context, title, content string) (bool, error) {
	id, ch := b.open(KindYesNo, title, content, 0)
	defer b.close(id)
	select {
	case yes := <-ch:
		return yes, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (b *Board) Acknowledge(ctx context.Context, title, content string) error {
	id, ch := b.open(KindOK, title, content, 0)
	defer b.close(id)
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Answer 回應目前的 Prompt。id 不符、沒有待回應的 Prompt 或該 Prompt 是 flash 時回傳 errs.Warn。
// OK 對話框忽略 yes 的值。
func (b *Board) Answer(id uint64, yes bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || b.answer == nil {
		return errs.NewWarn("no prompt awaiting an answer")
	}
	if b.current.ID != id {
		return errs.Warnf("prompt %d is not the current prompt (%d)", id, b.current.ID)
	}
	select {
	case b.answer <- yes:
	default:
		return errs.Warnf("prompt %d already answered", id)
	}
	return nil
}

// Current 回傳目前 Prompt 的拷貝；沒有時為 nil。
func (b *Board) Current() *Prompt {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil
	}
	p := *b.current
	return &p
}

// History 回傳最近顯示過的訊息（舊到新）。
func (b *Board) History() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.history...)
}
