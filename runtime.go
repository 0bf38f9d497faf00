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

package ladderslot

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/sdk/timing"
)

// RuntimeConfig 建立 Runtime 的參數。
type RuntimeConfig struct {
	ThemeID string
	Seed    int64 // Seeded 為 true 時使用
	Seeded  bool
	Clock   timing.Clock // 預設 timing.Real
	Logger  *slog.Logger // 預設不輸出
	Keep    int          // modal.Board 保留的歷史訊息數
}

// Runtime 是對外服務用的單機台外殼。
//
// 它持有目前的 Machine 與接在上面的 modal.Board，並提供 close 生命週期。
// 動作管線一律以 Runtime 自己的 context 執行，不綁定單一請求；Close 會中止所有等待中的管線。
type Runtime struct {
	lab *Lab
	cfg RuntimeConfig

	mu    sync.RWMutex
	m     *Machine
	board *modal.Board

	// lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// NewRuntime 依設定建立 Runtime 與第一台 Machine。
func NewRuntime(lab *Lab, cfg RuntimeConfig) (*Runtime, error) {
	if lab == nil {
		return nil, errs.NewFatal("lab required")
	}
	if cfg.Clock == nil {
		cfg.Clock = timing.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ThemeID == "" {
		ids := lab.IDs()
		cfg.ThemeID = ids[0]
	}
	ctx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		lab:    lab,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m, board, err := rt.build(cfg.ThemeID)
	if err != nil {
		cancel()
		return nil, err
	}
	rt.m, rt.board = m, board
	return rt, nil
}

func (rt *Runtime) build(themeID string) (*Machine, *modal.Board, error) {
	board := modal.NewBoard(rt.cfg.Clock, rt.cfg.Keep)
	opts := []Option{
		WithClock(rt.cfg.Clock),
		WithModal(board),
		WithLogger(rt.cfg.Logger),
	}
	var (
		m   *Machine
		err error
	)
	if rt.cfg.Seeded {
		m, err = rt.lab.NewMachineWithSeed(themeID, rt.cfg.Seed, opts...)
	} else {
		m, err = rt.lab.NewMachine(themeID, opts...)
	}
	return m, board, err
}

// Lab 回傳組裝器。
func (rt *Runtime) Lab() *Lab { return rt.lab }

// Machine 回傳目前的機台。
func (rt *Runtime) Machine() *Machine {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.m
}

// Board 回傳目前機台的對話框。
func (rt *Runtime) Board() *modal.Board {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.board
}

// Context 動作管線使用的 context。
func (rt *Runtime) Context() context.Context { return rt.ctx }

// Do 以 Runtime 的 context 在目前機台上執行一個動作。
func (rt *Runtime) Do(fn func(ctx context.Context, m *Machine) *Op) (*Op, error) {
	if err := rt.check(); err != nil {
		return nil, err
	}
	return fn(rt.ctx, rt.Machine()), nil
}

// Use 在目前機台上執行一個同步操作（StartGame、SetStake、ToggleHold、Load ...）。
func (rt *Runtime) Use(fn func(m *Machine) error) error {
	if err := rt.check(); err != nil {
		return err
	}
	return fn(rt.Machine())
}

// SwitchTheme 以新主題換掉目前的機台；動作管線執行中時拒絕。
func (rt *Runtime) SwitchTheme(themeID string) error {
	if err := rt.check(); err != nil {
		return err
	}
	m, board, err := rt.build(themeID)
	if err != nil {
		return err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.m.Busy() {
		return errs.NewWarn("an action is still running")
	}
	rt.m, rt.board = m, board
	rt.cfg.Logger.Info("theme switched", "theme", m.Theme().ThemeID)
	return nil
}

func (rt *Runtime) check() error {
	select {
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads/telemetry.
		rt.closed.Store(true)
		return errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
		return nil
	}
}

// Done 在 Runtime 關閉時關閉。
func (rt *Runtime) Done() <-chan struct{} { return rt.done }

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		rt.cancel()
		close(rt.done)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
