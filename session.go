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

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/sdk/board"
	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/sdk/reel"
	"github.com/zintix-labs/ladderslot/sdk/spinner"
	"github.com/zintix-labs/ladderslot/spec"
)

// Screen 目前顯示的畫面。
type Screen string

const (
	ScreenStart     Screen = "start"
	ScreenSlots     Screen = "slots"
	ScreenBackboard Screen = "backboard"
)

// HiLoContext 目前 higher/lower 關卡的來源。
type HiLoContext string

const (
	HiLoNone      HiLoContext = "none"
	HiLoLadder    HiLoContext = "ladder"
	HiLoBackboard HiLoContext = "backboard"
)

// HiLoChoice 玩家在 higher/lower 關卡的選擇。
type HiLoChoice string

const (
	Higher HiLoChoice = "higher"
	Lower  HiLoChoice = "lower"
)

// ParseHiLoChoice 解析 "higher" / "lower"。
func ParseHiLoChoice(s string) (HiLoChoice, bool) {
	switch HiLoChoice(s) {
	case Higher, Lower:
		return HiLoChoice(s), true
	}
	return "", false
}

// Wins 回傳 previous -> next 在 c 之下是否猜中；相等一律算猜錯。
func (c HiLoChoice) Wins(previous, next int) bool {
	switch c {
	case Higher:
		return next > previous
	case Lower:
		return next < previous
	}
	return false
}

// LastSpin 最近一次 spin / nudge 的結果。每次 spin / nudge 完整覆寫；
// ladder 的 higher/lower 關卡結束後只補上 HiLoChoice / HiLoWin / BonusTriggered。
type LastSpin struct {
	LineWin              bool            `json:"line_win"`
	Payout               decimal.Decimal `json:"payout"`
	MatchedRank          int             `json:"matched_rank"` // 0 表示沒有中線
	BonusItemsSeen       int             `json:"bonus_items_seen"`
	BonusLadderAfterSpin int             `json:"bonus_ladder_after_spin"`
	BonusTriggered       bool            `json:"bonus_triggered"`
	HiLoRequired         bool            `json:"hilo_required"`
	HiLoChoice           HiLoChoice      `json:"hilo_choice,omitempty"`
	HiLoWin              *bool           `json:"hilo_win,omitempty"`
	HoldsAwarded         int             `json:"holds_awarded"`
	NudgesAwarded        int             `json:"nudges_awarded"`
}

// Session 一局遊戲的完整狀態。只由 Machine 在鎖內修改，對外一律提供拷貝。
type Session struct {
	Screen             Screen          `json:"screen"`
	ThemeID            string          `json:"theme_id"`
	Money              decimal.Decimal `json:"money"`
	Stake              int             `json:"stake"`
	Reels              []*reel.Reel    `json:"reels"`
	IsSpinning         bool            `json:"is_spinning"`
	SpinCount          int             `json:"spin_count"`
	BonusLadder        int             `json:"bonus_ladder"`
	AwaitingHiLoChoice bool            `json:"awaiting_hilo_choice"`
	HiLoContext        HiLoContext     `json:"hilo_context"`
	NudgesRemaining    int             `json:"nudges_remaining"`
	HoldTokens         []int           `json:"hold_tokens"`
	HeldReels          []bool          `json:"held_reels"`
	Spinner            spinner.State   `json:"spinner"`
	Trail              board.Trail     `json:"backboard_trail"`
	WinFlashActive     bool            `json:"win_flash_active"`
	LastSpin           LastSpin        `json:"last_spin"`
}

// newSession 建立一局新的遊戲：起始金額、最低押注選項、全新洗過的轉輪。
func newSession(ts *spec.ThemeSetting, c *core.Core, screen Screen) *Session {
	r := &ts.Rules
	return &Session{
		Screen:      screen,
		ThemeID:     ts.ThemeID,
		Money:       r.InitialBankroll(),
		Stake:       r.StakeOptions[0],
		Reels:       reel.NewReels(ts.ItemIDs(), r.ReelsCount, r.BonusPositionsPerReel, c),
		HiLoContext: HiLoNone,
		HoldTokens:  []int{},
		HeldReels:   make([]bool, r.ReelsCount),
		Spinner:     spinner.State{Value: spinner.InitialValue},
		Trail:       board.InitialTrail(),
		LastSpin:    LastSpin{Payout: decimal.Zero},
	}
}

// HeldCount 目前被 hold 的轉輪數。
func (s *Session) HeldCount() int {
	n := 0
	for _, h := range s.HeldReels {
		if h {
			n++
		}
	}
	return n
}

// Clone 深拷貝。
func (s *Session) Clone() *Session {
	out := *s
	out.Reels = reel.CloneAll(s.Reels)
	out.HoldTokens = slices.Clone(s.HoldTokens)
	out.HeldReels = slices.Clone(s.HeldReels)
	if s.LastSpin.HiLoWin != nil {
		w := *s.LastSpin.HiLoWin
		out.LastSpin.HiLoWin = &w
	}
	return &out
}

// clearHiLo 關閉 higher/lower 關卡。
func (s *Session) clearHiLo() {
	s.AwaitingHiLoChoice = false
	s.HiLoContext = HiLoNone
}

// returnToSlots 離開 backboard 回到轉輪畫面。
func (s *Session) returnToSlots() {
	s.Screen = ScreenSlots
	s.clearHiLo()
	s.Trail = board.InitialTrail()
}

// ============================================================
// ** hold token **
// ============================================================

// consumeHoldTokens 用掉最前面 count 個 token。
func consumeHoldTokens(tokens []int, count int) []int {
	count = min(max(count, 0), len(tokens))
	return slices.Clone(tokens[count:])
}

// decayHoldTokens 每個 token 減一，歸零的移除。
func decayHoldTokens(tokens []int) []int {
	out := make([]int, 0, len(tokens))
	for _, t := range tokens {
		if t-1 > 0 {
			out = append(out, t-1)
		}
	}
	return out
}

// grantHoldTokens 追加 n 個新的 token。
func grantHoldTokens(tokens []int, n, spins int) []int {
	out := slices.Clone(tokens)
	for i := 0; i < n; i++ {
		out = append(out, spins)
	}
	return out
}
