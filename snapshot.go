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
	"slices"

	"github.com/zintix-labs/ladderslot/dto"
	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/sdk/board"
)

// prompter 可以回報目前掛著的對話框（modal.Board）。
type prompter interface {
	Current() *modal.Prompt
}

// Snapshot 回傳對外呈現用的唯讀畫面。
func (m *Machine) Snapshot() dto.Snapshot {
	m.mu.Lock()
	s := m.sessionLocked()
	caps := dto.Capabilities{
		CanSpin:          !m.busy && m.canSpinLocked(m.s),
		CanChooseHiLo:    !m.busy && m.canChooseHiLoLocked(m.s),
		CanRollBackboard: !m.busy && m.canRollBackboardLocked(m.s),
	}
	busy := m.busy
	m.mu.Unlock()

	out := dto.Snapshot{
		ThemeID:            s.ThemeID,
		Screen:             string(s.Screen),
		Money:              s.Money,
		MoneyText:          board.Money(s.Money),
		Stake:              s.Stake,
		StakeOptions:       slices.Clone(m.rules.StakeOptions),
		Reels:              make([]dto.ReelView, len(s.Reels)),
		IsSpinning:         s.IsSpinning,
		WinFlashActive:     s.WinFlashActive,
		SpinCount:          s.SpinCount,
		Ladder:             dto.NewLadderView(m.rules, s.BonusLadder),
		AwaitingHiLoChoice: s.AwaitingHiLoChoice,
		HiLoContext:        string(s.HiLoContext),
		NudgesRemaining:    s.NudgesRemaining,
		HoldTokens:         s.HoldTokens,
		Spinner:            s.Spinner,
		Trail:              dto.NewTrailView(&m.theme.Backboard, s.Trail),
		LastSpin:           lastSpinDTO(s.LastSpin),
		Capabilities:       caps,
		Busy:               busy,
	}
	for i, r := range s.Reels {
		out.Reels[i] = dto.NewReelView(r, s.HeldReels[i])
	}
	if p, ok := m.modal.(prompter); ok {
		out.Prompt = p.Current()
	}
	return out
}

func lastSpinDTO(l LastSpin) dto.LastSpin {
	return dto.LastSpin{
		LineWin:              l.LineWin,
		Payout:               l.Payout,
		MatchedRank:          l.MatchedRank,
		BonusItemsSeen:       l.BonusItemsSeen,
		BonusLadderAfterSpin: l.BonusLadderAfterSpin,
		BonusTriggered:       l.BonusTriggered,
		HiLoRequired:         l.HiLoRequired,
		HiLoChoice:           string(l.HiLoChoice),
		HiLoWin:              l.HiLoWin,
		HoldsAwarded:         l.HoldsAwarded,
		NudgesAwarded:        l.NudgesAwarded,
	}
}
