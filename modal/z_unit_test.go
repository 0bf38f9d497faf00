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
	"errors"
	"testing"
	"time"

	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/sdk/timing"
)

func TestFlashDuration(t *testing.T) {
	cases := map[float64]time.Duration{
		0:    2060 * time.Millisecond,
		-3:   2060 * time.Millisecond,
		0.01: 160 * time.Millisecond,
		1.5:  1560 * time.Millisecond,
	}
	for in, want := range cases {
		if got := FlashDuration(in); got != want {
			t.Fatalf("FlashDuration(%v)=%v want %v", in, got, want)
		}
	}
}

func waitPrompt(t *testing.T, b *Board, kind Kind) *Prompt {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p := b.Current(); p != nil && p.Kind == kind {
			return p
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("prompt of kind %s never appeared", kind)
	return nil
}

func TestBoardAskYesNo(t *testing.T) {
	b := NewBoard(timing.NewInstant(), 0)
	done := make(chan bool, 1)
	go func() {
		yes, err := b.AskYesNo(context.Background(), "Cash out?", "Take x5?")
		if err != nil {
			t.Errorf("ask: %v", err)
		}
		done <- yes
	}()

	p := waitPrompt(t, b, KindYesNo)
	if err := b.Answer(p.ID+1, true); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("wrong id should be a warn error, got %v", err)
	}
	if err := b.Answer(p.ID, true); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !<-done {
		t.Fatalf("expected yes")
	}
	if b.Current() != nil {
		t.Fatalf("prompt should be cleared after answer")
	}
	if err := b.Answer(p.ID, false); err == nil {
		t.Fatalf("answering a closed prompt should fail")
	}
	if h := b.History(); len(h) != 1 || h[0].Content != "Take x5?" {
		t.Fatalf("unexpected history %v", h)
	}
}

func TestBoardAcknowledgeCancelled(t *testing.T) {
	b := NewBoard(timing.NewInstant(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- b.Acknowledge(ctx, "You Lost", "out of money") }()
	waitPrompt(t, b, KindOK)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestBoardShowUsesClock(t *testing.T) {
	clk := timing.NewInstant()
	b := NewBoard(clk, 2)
	for i := 0; i < 3; i++ {
		if err := b.Show(context.Background(), Message{Content: "hi"}, 2); err != nil {
			t.Fatalf("show: %v", err)
		}
	}
	if clk.Elapsed() != 3*FlashDuration(2) {
		t.Fatalf("elapsed=%v", clk.Elapsed())
	}
	if len(b.History()) != 2 {
		t.Fatalf("history should keep 2 entries, got %d", len(b.History()))
	}
	if err := b.Answer(1, true); err == nil {
		t.Fatalf("flash prompts cannot be answered")
	}
}

func TestAutoPolicy(t *testing.T) {
	a := &Auto{YesNo: func(title, content string) bool { return title == "yes" }}
	ctx := context.Background()
	if yes, _ := a.AskYesNo(ctx, "yes", "q1"); !yes {
		t.Fatalf("policy should answer yes")
	}
	if yes, _ := a.AskYesNo(ctx, "no", "q2"); yes {
		t.Fatalf("policy should answer no")
	}
	_ = a.Show(ctx, Message{Content: "m"}, 1)
	_ = a.Acknowledge(ctx, "", "ok")
	if got := a.Messages(); len(got) != 4 || got[2] != "m" {
		t.Fatalf("unexpected messages %v", got)
	}
	if asks, acks := a.Counts(); asks != 2 || acks != 1 {
		t.Fatalf("counts asks=%d acks=%d", asks, acks)
	}
	a.Reset()
	if len(a.Messages()) != 0 {
		t.Fatalf("reset should clear log")
	}
	if yes, _ := (&Auto{}).AskYesNo(ctx, "", ""); yes {
		t.Fatalf("nil policy answers no")
	}
}
