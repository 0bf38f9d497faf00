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
	"github.com/shopspring/decimal"
)

// StartGame 以全新的一局進入轉輪畫面。動作管線執行中時忽略。
func (m *Machine) StartGame() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		m.log.Debug("action ignored", "action", "start", "reason", "busy")
		return false
	}
	m.resetLocked(ScreenSlots)
	m.log.Info("action accepted", "action", "start")
	return true
}

// SetStake 將押注設為 min(v, 目前金額可負擔的上限) 之下最大的選項；win flash 期間忽略。
func (m *Machine) SetStake(v int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s.WinFlashActive {
		m.log.Debug("action ignored", "action", "stake", "reason", "win flash")
		return false
	}
	m.s.Stake = m.rules.ClampStake(v, m.s.Money)
	m.log.Debug("stake set", "requested", v, "stake", m.s.Stake)
	return true
}

// ToggleHold 切換 reelID 的 hold。
//
// 轉輪畫面、未轉動、非 win flash，且不是「等待 higher/lower 又沒有 nudge」時才可操作；
// 新增 hold 時，hold 數不得超過持有的 token 數，有剩餘 nudge 時最多 hold 兩軸。
func (m *Machine) ToggleHold(reelID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.s
	ok := !m.busy &&
		reelID >= 0 && reelID < len(s.HeldReels) &&
		s.Screen == ScreenSlots &&
		!s.IsSpinning &&
		!s.WinFlashActive &&
		!(s.AwaitingHiLoChoice && s.NudgesRemaining <= 0)
	if ok && !s.HeldReels[reelID] {
		held := s.HeldCount()
		if held >= len(s.HoldTokens) {
			ok = false
		}
		if s.NudgesRemaining > 0 && held >= 2 {
			ok = false
		}
	}
	if !ok {
		m.log.Debug("action ignored", "action", "hold", "reel", reelID)
		return false
	}
	s.HeldReels[reelID] = !s.HeldReels[reelID]
	m.log.Debug("hold toggled", "reel", reelID, "held", s.HeldReels[reelID])
	return true
}

// ============================================================
// ** debug **
// ============================================================

// DebugAddMoney 增加固定金額（預設 10）。
func (m *Machine) DebugAddMoney() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s.Money = m.s.Money.Add(decimal.NewFromFloat(m.rules.DebugMoneyStep))
	m.log.Info("debug money", "money", m.s.Money.String())
}

// DebugAddHold 增加一個新的 hold token。
func (m *Machine) DebugAddHold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s.HoldTokens = grantHoldTokens(m.s.HoldTokens, 1, m.rules.HoldTokenSpins)
	m.log.Info("debug hold", "tokens", len(m.s.HoldTokens))
}

// DebugAddNudges 增加 n 次 nudge；n <= 0 時不做任何事。
func (m *Machine) DebugAddNudges(n int) bool {
	n = max(0, n)
	if n == 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s.NudgesRemaining += n
	m.log.Info("debug nudges", "nudges", m.s.NudgesRemaining)
	return true
}
