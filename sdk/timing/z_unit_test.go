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

package timing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRealSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := Real{}.Sleep(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("cancelled sleep should return promptly")
	}
	if err := (Real{}).Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("short sleep: %v", err)
	}
}

func TestInstantAccumulates(t *testing.T) {
	c := NewInstant()
	ctx := context.Background()
	for _, d := range []time.Duration{Ms(55), Ms(900), Seconds(2), -time.Second} {
		if err := c.Sleep(ctx, d); err != nil {
			t.Fatalf("sleep: %v", err)
		}
	}
	if want := 2955 * time.Millisecond; c.Elapsed() != want {
		t.Fatalf("elapsed=%v want %v", c.Elapsed(), want)
	}
	c.Reset()
	if c.Elapsed() != 0 {
		t.Fatalf("reset should clear elapsed")
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := c.Sleep(cctx, Ms(1)); err == nil {
		t.Fatalf("instant sleep should still report cancellation")
	}
}
