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
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/sdk/board"
	"github.com/zintix-labs/ladderslot/sdk/calc"
	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/sdk/ladder"
	"github.com/zintix-labs/ladderslot/sdk/reel"
	"github.com/zintix-labs/ladderslot/sdk/spinner"
	"github.com/zintix-labs/ladderslot/sdk/timing"
	"github.com/zintix-labs/ladderslot/spec"
	"golang.org/x/sync/errgroup"
)

// spinPlan 是 Spin 被接受當下在鎖內決定好的一切：停輪圖標、押注與動畫亂數。
type spinPlan struct {
	held         []bool
	stops        []string
	stake        int
	ladderBefore int
	cosmetic     draw
	anims        []*core.Core
}

// Spin 扣除押注並轉動所有未 hold 的轉輪。
//
// 流程：扣款與 hold token 結算 -> 各軸動畫與裝飾轉盤並行 -> 停輪 -> 單線判定與 win flash
// -> 可視 bonus 整組重新計數、推進 ladder、結算獎勵 -> 最終提交。
func (m *Machine) Spin(ctx context.Context) *Op {
	return m.start(ctx, "spin", func(s *Session) (pipeline, bool) {
		if !m.canSpinLocked(s) {
			return nil, false
		}
		held := slices.Clone(s.HeldReels)
		plan := &spinPlan{
			held:         held,
			stops:        calc.BuildStopItems(m.core, m.theme, s.Reels, held),
			stake:        s.Stake,
			ladderBefore: s.BonusLadder,
		}
		plan.cosmetic = m.drawLocked(1, m.rules.DieFaces)
		plan.anims = make([]*core.Core, len(s.Reels))
		for i := range plan.anims {
			plan.anims[i] = m.core.Derive()
		}

		s.IsSpinning = true
		s.Money = s.Money.Sub(decimal.NewFromInt(int64(s.Stake)))
		s.HoldTokens = decayHoldTokens(consumeHoldTokens(s.HoldTokens, s.HeldCount()))
		s.HeldReels = make([]bool, len(s.Reels))
		return func(ctx context.Context) error { return m.runSpin(ctx, plan) }, true
	})
}

func (m *Machine) runSpin(ctx context.Context, plan *spinPlan) error {
	t := &m.rules.Timing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.reveal(gctx, plan.cosmetic, 1, m.rules.DieFaces, timing.Ms(t.CosmeticSpinnerMs))
	})
	for i := range plan.stops {
		if i < len(plan.held) && plan.held[i] {
			continue
		}
		g.Go(func() error { return m.animateReel(gctx, i, plan.stops[i], plan.anims[i]) })
	}
	err := g.Wait()

	// 中斷時也要停在預定的圖標上
	m.mu.Lock()
	for i, r := range m.s.Reels {
		if i < len(plan.held) && plan.held[i] {
			continue
		}
		r.StopOn(plan.stops[i])
	}
	m.s.IsSpinning = false
	final := reel.CloneAll(m.s.Reels)
	m.mu.Unlock()

	line := calc.EvaluateLine(m.theme, final, plan.stake)
	if err == nil && line.Win && line.Payout.IsPositive() {
		err = m.flashWin(ctx, line)
	}
	seen := reel.CountVisibleBonus(final)
	after := ladder.Advance(plan.ladderBefore, seen, m.rules.BonusLadderMax)
	reward := ladder.Reward{}
	if err == nil {
		reward, err = m.ladderResolver().Resolve(ctx, seen, after)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.s
	s.Reels = final
	s.Money = s.Money.Add(line.Payout)
	s.Stake = m.rules.ClampStake(s.Stake, s.Money)
	s.SpinCount++
	s.BonusLadder = after
	s.NudgesRemaining += reward.NudgesAwarded
	s.HoldTokens = grantHoldTokens(s.HoldTokens, reward.HoldsAwarded, m.rules.HoldTokenSpins)
	s.AwaitingHiLoChoice = reward.HiLoRequired
	s.HiLoContext = HiLoNone
	if reward.HiLoRequired {
		s.HiLoContext = HiLoLadder
	}
	s.Screen = ScreenSlots
	s.LastSpin = newLastSpin(line, seen, after, reward, reward.HiLoRequired)
	m.log.Info("spin settled",
		"centres", line.Centres,
		"payout", line.Payout.String(),
		"bonus_seen", seen,
		"ladder", after,
		"money", s.Money.String())
	return err
}

// ============================================================
// ** 轉輪動畫 **
// ============================================================

type reelEventKind uint8

const (
	evStep reelEventKind = iota
	evShuffle
	evStop
)

type reelEvent struct {
	at   time.Duration
	kind reelEventKind
}

// reelTimeline 回傳第 i 軸的動畫事件（相對 spin 開始的時間，遞增）：
// 停輪前每個 step 前進一格，停輪前到達重排時間點時重排一次 strip，最後停輪。
func reelTimeline(t *spec.Timing, i int) []reelEvent {
	step := timing.Ms(t.SpinStepMs)
	stop := timing.Ms(t.StopDelay(i))
	shuffle := timing.Ms(t.ShuffleDelay(i))

	evs := make([]reelEvent, 0, int(stop/step)+2)
	for at := step; at < stop; at += step {
		evs = append(evs, reelEvent{at: at, kind: evStep})
	}
	if shuffle < stop {
		evs = append(evs, reelEvent{at: shuffle, kind: evShuffle})
	}
	evs = append(evs, reelEvent{at: stop, kind: evStop})
	slices.SortStableFunc(evs, func(a, b reelEvent) int { return cmp.Compare(a.at, b.at) })
	return evs
}

func (m *Machine) animateReel(ctx context.Context, i int, stop string, anim *core.Core) error {
	var prev time.Duration
	for _, ev := range reelTimeline(&m.rules.Timing, i) {
		if err := m.clock.Sleep(ctx, ev.at-prev); err != nil {
			return err
		}
		prev = ev.at
		m.mu.Lock()
		r := m.s.Reels[i]
		switch ev.kind {
		case evStep:
			r.Step()
		case evShuffle:
			r.ReshufflePreservingCenter(anim)
		case evStop:
			r.StopOn(stop)
		}
		m.mu.Unlock()
	}
	return nil
}

// ============================================================
// ** 共用步驟 **
// ============================================================

// draw 一次數字轉盤：結果在鎖內由主 Core 決定，anim 只負責轉動中的顯示值。
type draw struct {
	value int
	anim  *core.Core
}

func (m *Machine) drawLocked(min, max int) draw {
	return draw{value: m.core.IntRange(min, max), anim: m.core.Derive()}
}

// reveal 在轉盤上展示已決定的結果。
func (m *Machine) reveal(ctx context.Context, d draw, min, max int, dur time.Duration) error {
	cfg := spinner.Config{
		Min:      min,
		Max:      max,
		Duration: dur,
		Tick:     timing.Ms(m.rules.Timing.SpinnerTickMs),
	}
	return m.spinner.Spin(ctx, cfg, d.value, d.anim)
}

// spinNumber 提供給 ladder / board 狀態機的轉盤。
func (m *Machine) spinNumber(ctx context.Context, min, max int) (int, error) {
	m.mu.Lock()
	d := m.drawLocked(min, max)
	m.mu.Unlock()
	return d.value, m.reveal(ctx, d, min, max, timing.Ms(m.rules.Timing.SpinnerMs))
}

// flashWin 轉輪閃爍 WinFlashMs 後顯示中獎金額。閃爍期間 win flash 守門條件成立。
func (m *Machine) flashWin(ctx context.Context, line calc.Line) error {
	t := &m.rules.Timing
	m.update(func(s *Session) { s.WinFlashActive = true })
	err := m.clock.Sleep(ctx, timing.Ms(t.WinFlashMs))
	m.update(func(s *Session) { s.WinFlashActive = false })
	if err != nil {
		return err
	}
	title := ""
	if line.Item != nil {
		title = line.Item.Label
	}
	return m.modal.Show(ctx, modal.Message{Title: title, Content: board.Money(line.Payout)}, t.FlashSeconds)
}

func (m *Machine) ladderResolver() *ladder.Resolver {
	return &ladder.Resolver{
		Rules:        m.rules,
		Modal:        m.modal,
		Spin:         m.spinNumber,
		FlashSeconds: m.rules.Timing.FlashSeconds,
	}
}

func newLastSpin(line calc.Line, seen, after int, reward ladder.Reward, hiLoRequired bool) LastSpin {
	return LastSpin{
		LineWin:              line.Win,
		Payout:               line.Payout,
		MatchedRank:          line.Rank(),
		BonusItemsSeen:       seen,
		BonusLadderAfterSpin: after,
		HiLoRequired:         hiLoRequired,
		HoldsAwarded:         reward.HoldsAwarded,
		NudgesAwarded:        reward.NudgesAwarded,
	}
}
