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

	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/sdk/board"
	"github.com/zintix-labs/ladderslot/sdk/timing"
)

// ChooseHiLo 回答 higher/lower 關卡：轉盤從目前顯示的數字轉出新數字，相等算猜錯。
//
//   - ladder 關卡：猜中進入 backboard，猜錯留在轉輪畫面；LastSpin 補上選擇與結果。
//   - backboard 關卡：猜中留在 backboard 繼續擲骰，猜錯回到轉輪畫面。
func (m *Machine) ChooseHiLo(ctx context.Context, choice HiLoChoice) *Op {
	return m.start(ctx, "hilo", func(s *Session) (pipeline, bool) {
		if _, ok := ParseHiLoChoice(string(choice)); !ok || !m.canChooseHiLoLocked(s) {
			return nil, false
		}
		previous := m.spinner.Value()
		hc := s.HiLoContext
		d := m.drawLocked(1, m.rules.DieFaces)
		return func(ctx context.Context) error { return m.runHiLo(ctx, hc, choice, previous, d) }, true
	})
}

func (m *Machine) runHiLo(ctx context.Context, hc HiLoContext, choice HiLoChoice, previous int, d draw) error {
	if err := m.reveal(ctx, d, 1, m.rules.DieFaces, timing.Ms(m.rules.Timing.SpinnerMs)); err != nil {
		return err
	}
	win := choice.Wins(previous, d.value)
	m.log.Info("hilo", "context", string(hc), "choice", string(choice), "previous", previous, "next", d.value, "win", win)

	switch hc {
	case HiLoLadder:
		msg := "Higher or Lower missed. Continue on reels."
		if win {
			msg = "Higher or Lower correct. Backboard unlocked."
		}
		err := m.flash(ctx, msg)
		m.update(func(s *Session) {
			s.clearHiLo()
			if win {
				s.Screen = ScreenBackboard
				s.Trail = board.EnteredTrail()
			} else {
				s.Screen = ScreenSlots
				s.Trail = board.InitialTrail()
			}
			s.LastSpin.BonusTriggered = win
			s.LastSpin.HiLoRequired = true
			s.LastSpin.HiLoChoice = choice
			s.LastSpin.HiLoWin = &win
		})
		return err

	case HiLoBackboard:
		if win {
			err := m.flash(ctx, "Correct. Stay on the backboard.")
			m.update(func(s *Session) {
				s.clearHiLo()
				s.Trail.Status = board.StatusAwaitingRoll
				s.Trail.PendingHiLoTile = 0
			})
			return err
		}
		err := m.flash(ctx, "Wrong guess. Returning to reels.")
		m.update(func(s *Session) { s.returnToSlots() })
		return err
	}
	return nil
}

// flash 顯示一則一般訊息。
func (m *Machine) flash(ctx context.Context, content string) error {
	return m.modal.Show(ctx, modal.Message{Content: content}, m.rules.Timing.FlashSeconds)
}
