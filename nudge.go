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
	"slices"

	"github.com/zintix-labs/ladderslot/sdk/calc"
	"github.com/zintix-labs/ladderslot/sdk/ladder"
	"github.com/zintix-labs/ladderslot/sdk/reel"
)

// nudgePlan Nudge 被接受當下算好的結果；盤面在接受時就已提交。
type nudgePlan struct {
	line  calc.Line
	seen  int
	after int
	held  []bool
}

// Nudge 將 reelID 往 d 移動一格，消耗一次 nudge。
//
// 結果在提交前就以移動後的盤面與目前押注算好；bonus 只計「新出現在窗口」的格子。
// 有中線或任何 ladder 獎勵時，剩餘 nudge 重設為本次獲得的數量，否則累加。
// higher/lower 關卡一旦開啟就保持到被回答為止。
func (m *Machine) Nudge(ctx context.Context, reelID int, d reel.Direction) *Op {
	return m.start(ctx, "nudge", func(s *Session) (pipeline, bool) {
		if s.Screen != ScreenSlots || s.IsSpinning || s.WinFlashActive || s.NudgesRemaining <= 0 {
			return nil, false
		}
		if reelID < 0 || reelID >= len(s.Reels) || s.HeldReels[reelID] {
			return nil, false
		}
		if d != reel.Up && d != reel.Down {
			return nil, false
		}

		next := reel.CloneAll(s.Reels)
		next[reelID].Nudge(d)
		seen := reel.CountNewlyVisibleBonus(s.Reels, next)
		tokens := decayHoldTokens(s.HoldTokens)
		held := slices.Clone(s.HeldReels)
		if s.HeldCount() > len(tokens) {
			held = make([]bool, len(s.Reels))
		}
		plan := &nudgePlan{
			line:  calc.EvaluateLine(m.theme, next, s.Stake),
			seen:  seen,
			after: ladder.Advance(s.BonusLadder, seen, m.rules.BonusLadderMax),
			held:  held,
		}

		s.Reels = next
		s.NudgesRemaining = max(0, s.NudgesRemaining-1)
		s.HoldTokens = tokens
		s.HeldReels = slices.Clone(held)
		m.log.Debug("nudge", "reel", reelID, "direction", d.String())
		return func(ctx context.Context) error { return m.runNudge(ctx, plan) }, true
	})
}

func (m *Machine) runNudge(ctx context.Context, plan *nudgePlan) error {
	var err error
	line := plan.line
	if line.Win && line.Payout.IsPositive() {
		err = m.flashWin(ctx, line)
	}
	reward := ladder.Reward{}
	if err == nil {
		reward, err = m.ladderResolver().Resolve(ctx, plan.seen, plan.after)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.s
	s.Money = s.Money.Add(line.Payout)
	s.Stake = m.rules.ClampStake(s.Stake, s.Money)
	s.SpinCount++
	s.BonusLadder = plan.after
	if line.Win || reward.Any() {
		s.NudgesRemaining = reward.NudgesAwarded
	} else {
		s.NudgesRemaining += reward.NudgesAwarded
	}
	s.HoldTokens = grantHoldTokens(s.HoldTokens, reward.HoldsAwarded, m.rules.HoldTokenSpins)
	s.HeldReels = slices.Clone(plan.held)
	wasAwaiting := s.AwaitingHiLoChoice
	s.AwaitingHiLoChoice = wasAwaiting || reward.HiLoRequired
	if !wasAwaiting {
		s.HiLoContext = HiLoNone
		if reward.HiLoRequired {
			s.HiLoContext = HiLoLadder
		}
	}
	s.Screen = ScreenSlots
	s.LastSpin = newLastSpin(line, plan.seen, plan.after, reward, s.AwaitingHiLoChoice)
	m.log.Info("nudge settled",
		"centres", line.Centres,
		"payout", line.Payout.String(),
		"bonus_seen", plan.seen,
		"ladder", plan.after,
		"nudges", s.NudgesRemaining)
	return err
}
