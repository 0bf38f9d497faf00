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

package spinner

import (
	"context"
	"testing"
	"time"

	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/sdk/timing"
)

func TestSpinStopsOnResult(t *testing.T) {
	clk := timing.NewInstant()
	s := New(clk)
	if s.Value() != InitialValue {
		t.Fatalf("initial value should be %d", InitialValue)
	}
	cfg := Config{Min: 1, Max: 10, Duration: 900 * time.Millisecond, Tick: 80 * time.Millisecond}
	if cfg.Ticks() != 11 {
		t.Fatalf("ticks=%d want 11", cfg.Ticks())
	}
	if err := s.Spin(context.Background(), cfg, 7, core.NewSeeded(1)); err != nil {
		t.Fatalf("spin: %v", err)
	}
	st := s.State()
	if st.Value != 7 || st.IsSpinning {
		t.Fatalf("unexpected state %+v", st)
	}
	if clk.Elapsed() != cfg.Duration {
		t.Fatalf("spin should wait exactly %v, waited %v", cfg.Duration, clk.Elapsed())
	}
}

func TestSpinCancelledStillSettles(t *testing.T) {
	s := New(timing.NewInstant())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Spin(ctx, Config{Min: 1, Max: 5, Duration: time.Second, Tick: 80 * time.Millisecond}, 4, nil)
	if err == nil {
		t.Fatalf("expected context error")
	}
	if st := s.State(); st.Value != 4 || st.IsSpinning {
		t.Fatalf("cancelled spin must still settle on the result: %+v", st)
	}
}

func TestZeroTickConfig(t *testing.T) {
	s := New(timing.NewInstant())
	if err := s.Spin(context.Background(), Config{Min: 1, Max: 10}, 3, nil); err != nil {
		t.Fatalf("spin: %v", err)
	}
	if s.Value() != 3 {
		t.Fatalf("value=%d want 3", s.Value())
	}
	s.Restore(State{Value: 9})
	if s.Value() != 9 {
		t.Fatalf("restore failed")
	}
}
