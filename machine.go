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
	"crypto/rand"
	"log/slog"
	"math"
	"math/big"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/sdk/board"
	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/sdk/spinner"
	"github.com/zintix-labs/ladderslot/sdk/timing"
	"github.com/zintix-labs/ladderslot/spec"
)

// Machine 一台機台：持有一局遊戲的完整狀態，並提供所有玩家動作的入口。
//
// 並發語意：
//   - 所有狀態修改都在 mu 內完成；等待（動畫 tick、停輪、訊息、轉盤）一律在鎖外透過 timing.Clock 進行。
//   - 同一時間最多只有一條動作管線（spin / nudge / higher-lower / backboard 擲骰 / 破產流程）在執行，
//     管線執行中收到的其他動作一律忽略。
//   - 所有影響結果的亂數都在鎖內從主 Core 抽取；動畫用的亂數另外由 Derive 出來的 Core 提供，
//     因此同一個 seed 與同一串動作一定得到同樣的結果。
type Machine struct {
	mu      sync.Mutex
	theme   *spec.ThemeSetting
	rules   *spec.Rules
	core    *core.Core
	clock   timing.Clock
	modal   modal.Service
	log     *slog.Logger
	spinner *spinner.Spinner
	s       *Session
	busy    bool  // 動作管線執行中
	seed    int64 // 出生 seed（便於追溯；完整重現請用 Export/Load）
	seeded  bool
}

// Option 設定 Machine。
type Option func(*Machine)

// WithLogger 設定 logger；預設不輸出。
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock 設定等待來源；預設 timing.Real。
func WithClock(c timing.Clock) Option {
	return func(m *Machine) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithModal 設定對話框服務；預設為以 Machine 的 clock 建立的 modal.Board。
func WithModal(s modal.Service) Option {
	return func(m *Machine) {
		if s != nil {
			m.modal = s
		}
	}
}

// WithSeed 以預設 PRNG 與指定 seed 建立亂數核心。
func WithSeed(seed int64) Option {
	return func(m *Machine) {
		m.core = core.NewSeeded(seed)
		m.seed, m.seeded = seed, true
	}
}

// WithCore 直接指定亂數核心（自訂 PRNG、測試用的固定序列）。
func WithCore(c *core.Core) Option {
	return func(m *Machine) {
		if c != nil {
			m.core = c
			m.seeded = true
		}
	}
}

// NewMachine 以主題建立機台，停在開始畫面。未指定亂數核心時以 crypto/rand 產生 seed。
func NewMachine(ts *spec.ThemeSetting, opts ...Option) (*Machine, error) {
	if ts == nil {
		return nil, errs.NewFatal("theme setting required")
	}
	m := &Machine{
		theme: ts,
		rules: &ts.Rules,
		clock: timing.Real{},
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.seeded {
		seed, err := newSeed()
		if err != nil {
			return nil, err
		}
		WithSeed(seed)(m)
	}
	if m.modal == nil {
		m.modal = modal.NewBoard(m.clock, 0)
	}
	m.spinner = spinner.New(m.clock)
	m.resetLocked(ScreenStart)
	m.log = m.log.With("theme", ts.ThemeID)
	return m, nil
}

// newSeed 使用 crypto/rand，對外服務時 seed 不可預測。
func newSeed() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return n.Int64(), nil
}

// resetLocked 以全新的一局取代目前狀態。呼叫端需持有 mu。
func (m *Machine) resetLocked(screen Screen) {
	m.s = newSession(m.theme, m.core, screen)
	m.spinner.Restore(m.s.Spinner)
}

// ============================================================
// ** 唯讀查詢 **
// ============================================================

// Theme 回傳主題設定（唯讀）。
func (m *Machine) Theme() *spec.ThemeSetting { return m.theme }

// Modal 回傳使用中的對話框服務。
func (m *Machine) Modal() modal.Service { return m.modal }

// Seed 回傳出生 seed；以 WithCore 建立時為 0。
func (m *Machine) Seed() int64 { return m.seed }

// Session 回傳目前狀態的深拷貝，轉盤狀態同步到拷貝中。
func (m *Machine) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionLocked()
}

func (m *Machine) sessionLocked() *Session {
	s := m.s.Clone()
	s.Spinner = m.spinner.State()
	return s
}

// Busy 回傳是否有動作管線正在執行。
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// ============================================================
// ** 守門條件 **
// ============================================================

func (m *Machine) canSpinLocked(s *Session) bool {
	return s.Screen == ScreenSlots &&
		!s.IsSpinning &&
		!s.WinFlashActive &&
		s.Money.GreaterThanOrEqual(m.rules.MinStake()) &&
		!s.AwaitingHiLoChoice &&
		s.NudgesRemaining <= 0 &&
		s.Money.GreaterThanOrEqual(decimal.NewFromInt(int64(s.Stake)))
}

func (m *Machine) canChooseHiLoLocked(s *Session) bool {
	if !s.AwaitingHiLoChoice || s.NudgesRemaining > 0 || s.WinFlashActive || s.IsSpinning {
		return false
	}
	if m.spinner.State().IsSpinning {
		return false
	}
	switch s.HiLoContext {
	case HiLoLadder:
		return s.Screen == ScreenSlots
	case HiLoBackboard:
		return s.Screen == ScreenBackboard
	}
	return false
}

func (m *Machine) canRollBackboardLocked(s *Session) bool {
	return s.Screen == ScreenBackboard &&
		s.Trail.Status == board.StatusAwaitingRoll &&
		!s.AwaitingHiLoChoice &&
		!s.WinFlashActive &&
		!m.spinner.State().IsSpinning &&
		!s.IsSpinning
}

func (m *Machine) bankruptLocked(s *Session) bool {
	return s.Screen != ScreenStart && s.Money.LessThan(m.rules.MinStake())
}

// CanSpin 目前是否可以 Spin。
func (m *Machine) CanSpin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.busy && m.canSpinLocked(m.s)
}

// CanChooseHiLo 目前是否可以回答 higher/lower。
func (m *Machine) CanChooseHiLo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.busy && m.canChooseHiLoLocked(m.s)
}

// CanRollBackboard 目前是否可以在 backboard 擲骰。
func (m *Machine) CanRollBackboard() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.busy && m.canRollBackboardLocked(m.s)
}

// ============================================================
// ** 動作管線 **
// ============================================================

// pipeline 動作被接受後在背景執行的流程。
type pipeline func(ctx context.Context) error

// start 在鎖內檢查守門條件；gate 通過時同時完成動作的第一次提交並回傳後續流程。
func (m *Machine) start(ctx context.Context, name string, gate func(s *Session) (pipeline, bool)) *Op {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		m.log.Debug("action ignored", "action", name, "reason", "busy")
		return rejectedOp(name)
	}
	run, ok := gate(m.s)
	if !ok {
		m.mu.Unlock()
		m.log.Debug("action ignored", "action", name, "reason", "guard")
		return rejectedOp(name)
	}
	m.busy = true
	m.mu.Unlock()

	m.log.Info("action accepted", "action", name)
	op := acceptedOp(name)
	go m.run(ctx, op, run)
	return op
}

func (m *Machine) run(ctx context.Context, op *Op, run pipeline) {
	err := run(ctx)
	if err == nil {
		err = m.settleBankruptcy(ctx)
	}
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()

	if err != nil {
		m.log.Warn("action aborted", "action", op.name, "err", err)
	} else {
		m.log.Debug("action done", "action", op.name)
	}
	op.err = err
	close(op.done)
}

// update 在鎖內修改狀態。
func (m *Machine) update(fn func(s *Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.s)
}

// ============================================================
// ** 破產 **
// ============================================================

// BankruptTitle 破產確認對話框的標題。
const BankruptTitle = "You Lost"

const bankruptContent = "You are out of money. Returning to the start screen."

// settleBankruptcy 金額低於最低押注且不在開始畫面時，要求玩家確認後重置為開始畫面的新局。
func (m *Machine) settleBankruptcy(ctx context.Context) error {
	m.mu.Lock()
	bankrupt := m.bankruptLocked(m.s)
	money := m.s.Money
	m.mu.Unlock()
	if !bankrupt {
		return nil
	}
	m.log.Warn("bankrupt", "money", money.String())
	if err := m.modal.Acknowledge(ctx, BankruptTitle, bankruptContent); err != nil {
		return err
	}
	m.mu.Lock()
	m.resetLocked(ScreenStart)
	m.mu.Unlock()
	return nil
}

// CheckBankruptcy 主動執行破產檢查（例如 Load 之後）。不符合破產條件時不接受。
func (m *Machine) CheckBankruptcy(ctx context.Context) *Op {
	return m.start(ctx, "bankruptcy", func(s *Session) (pipeline, bool) {
		if !m.bankruptLocked(s) {
			return nil, false
		}
		return func(context.Context) error { return nil }, true
	})
}
