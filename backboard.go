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

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/sdk/board"
	"github.com/zintix-labs/ladderslot/sdk/timing"
)

// RollBackboard 在 backboard 擲骰，移動到目標格並交給格子狀態機結算。
// 押注在擲骰當下固定，整段結算都以它計算。
func (m *Machine) RollBackboard(ctx context.Context) *Op {
	return m.start(ctx, "roll", func(s *Session) (pipeline, bool) {
		if !m.canRollBackboardLocked(s) {
			return nil, false
		}
		from := s.Trail.Position
		if from <= 0 {
			from = board.StartTile
		}
		stake := s.Stake
		d := m.drawLocked(1, m.rules.DieFaces)
		s.Trail.Status = board.StatusRolling
		return func(ctx context.Context) error { return m.runRoll(ctx, from, stake, d) }, true
	})
}

func (m *Machine) runRoll(ctx context.Context, from, stake int, d draw) error {
	if err := m.reveal(ctx, d, 1, m.rules.DieFaces, timing.Ms(m.rules.Timing.SpinnerMs)); err != nil {
		m.resumeTrail()
		return err
	}
	bs := &m.theme.Backboard
	target, overflowed := board.Target(from, d.value, bs.MaxTile, bs.OverflowTargetTile)
	m.update(func(s *Session) {
		s.Trail.Position = target
		s.Trail.LastRoll = d.value
		s.Trail.Status = board.StatusResolving
	})
	m.log.Info("backboard roll", "from", from, "roll", d.value, "target", target, "overflowed", overflowed)

	res := m.boardResolver()
	if err := res.AnnounceRoll(ctx, d.value, target, overflowed); err != nil {
		m.resumeTrail()
		return err
	}
	out, err := res.Resolve(ctx, boardHost{m}, target, stake)
	if err != nil {
		m.resumeTrail()
		return err
	}
	m.log.Info("backboard resolved", "visited", out.Visited, "exited", out.Exited, "awaiting_hilo", out.AwaitingHiLo)
	return nil
}

// resumeTrail 中斷後回到等待擲骰。
func (m *Machine) resumeTrail() {
	m.update(func(s *Session) {
		if s.Screen == ScreenBackboard && (s.Trail.Status == board.StatusRolling || s.Trail.Status == board.StatusResolving) {
			s.Trail.Status = board.StatusAwaitingRoll
		}
	})
}

func (m *Machine) boardResolver() *board.Resolver {
	return &board.Resolver{
		Board:        &m.theme.Backboard,
		Modal:        m.modal,
		Spin:         m.spinNumber,
		DieFaces:     m.rules.DieFaces,
		FlashSeconds: m.rules.Timing.FlashSeconds,
	}
}

// boardHost 讓格子狀態機以原子操作修改 Machine 的狀態。
type boardHost struct {
	m *Machine
}

func (h boardHost) Place(tile int) {
	h.m.update(func(s *Session) {
		s.Trail.Position = tile
		s.Trail.PendingHiLoTile = 0
	})
}

func (h boardHost) SetStatus(st board.Status) {
	h.m.update(func(s *Session) { s.Trail.Status = st })
}

func (h boardHost) AwaitHiLo(tile int) {
	h.m.update(func(s *Session) {
		s.AwaitingHiLoChoice = true
		s.HiLoContext = HiLoBackboard
		s.Trail.Status = board.StatusAwaitingHiLo
		s.Trail.PendingHiLoTile = tile
	})
}

func (h boardHost) Money() decimal.Decimal {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	return h.m.s.Money
}

// Pay 金額不會低於 0，押注隨之重新夾限。
func (h boardHost) Pay(delta decimal.Decimal) {
	h.m.update(func(s *Session) {
		s.Money = decimal.Max(decimal.Zero, s.Money.Add(delta))
		s.Stake = h.m.rules.ClampStake(s.Stake, s.Money)
	})
	h.m.log.Info("backboard payment", "delta", delta.String())
}

func (h boardHost) Exit() {
	h.m.update(func(s *Session) { s.returnToSlots() })
}
