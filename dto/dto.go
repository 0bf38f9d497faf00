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

// Package dto 定義對外（HTTP、除錯工具）輸出的唯讀結構與請求解碼。
package dto

import (
	"slices"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/sdk/board"
	"github.com/zintix-labs/ladderslot/sdk/reel"
	"github.com/zintix-labs/ladderslot/sdk/spinner"
	"github.com/zintix-labs/ladderslot/spec"
)

// Snapshot 一局遊戲對外呈現的完整畫面。
type Snapshot struct {
	ThemeID            string          `json:"theme_id"`
	Screen             string          `json:"screen"`
	Money              decimal.Decimal `json:"money"`
	MoneyText          string          `json:"money_text"`
	Stake              int             `json:"stake"`
	StakeOptions       []int           `json:"stake_options"`
	Reels              []ReelView      `json:"reels"`
	IsSpinning         bool            `json:"is_spinning"`
	WinFlashActive     bool            `json:"win_flash_active"`
	SpinCount          int             `json:"spin_count"`
	Ladder             LadderView      `json:"bonus_ladder"`
	AwaitingHiLoChoice bool            `json:"awaiting_hilo_choice"`
	HiLoContext        string          `json:"hilo_context"`
	NudgesRemaining    int             `json:"nudges_remaining"`
	HoldTokens         []int           `json:"hold_tokens"`
	Spinner            spinner.State   `json:"spinner"`
	Trail              TrailView       `json:"backboard_trail"`
	LastSpin           LastSpin        `json:"last_spin"`
	Capabilities       Capabilities    `json:"capabilities"`
	Busy               bool            `json:"busy"`
	Prompt             *modal.Prompt   `json:"prompt,omitempty"`
}

// ReelView 單一轉輪：完整 strip 與目前可視窗口。
type ReelView struct {
	ID             int                     `json:"id"`
	Index          int                     `json:"index"`
	Strip          []string                `json:"strip"`
	BonusPositions []int                   `json:"bonus_positions"`
	Visible        [reel.WindowSize]string `json:"visible"`
	BonusVisible   [reel.WindowSize]bool   `json:"bonus_visible"`
	Centre         string                  `json:"centre"`
	Held           bool                    `json:"held"`
}

// LadderView bonus ladder 的位置與觸發表。
type LadderView struct {
	Value      int   `json:"value"`
	Max        int   `json:"max"`
	HoldTiles  []int `json:"hold_tiles"`
	NudgeTiles []int `json:"nudge_tiles"`
	HiLoTiles  []int `json:"hilo_tiles"`
}

// TrailView backboard 進度與目前所在格。
type TrailView struct {
	board.Trail
	Tile *spec.Tile `json:"tile,omitempty"`
}

// LastSpin 最近一次 spin / nudge 的結果。
type LastSpin struct {
	LineWin              bool            `json:"line_win"`
	Payout               decimal.Decimal `json:"payout"`
	MatchedRank          int             `json:"matched_rank"`
	BonusItemsSeen       int             `json:"bonus_items_seen"`
	BonusLadderAfterSpin int             `json:"bonus_ladder_after_spin"`
	BonusTriggered       bool            `json:"bonus_triggered"`
	HiLoRequired         bool            `json:"hilo_required"`
	HiLoChoice           string          `json:"hilo_choice,omitempty"`
	HiLoWin              *bool           `json:"hilo_win,omitempty"`
	HoldsAwarded         int             `json:"holds_awarded"`
	NudgesAwarded        int             `json:"nudges_awarded"`
}

// Capabilities 目前可執行的主要動作。
type Capabilities struct {
	CanSpin          bool `json:"can_spin"`
	CanChooseHiLo    bool `json:"can_choose_hilo"`
	CanRollBackboard bool `json:"can_roll_backboard"`
}

// NewReelView 由轉輪建立 ReelView（深拷貝）。
func NewReelView(r *reel.Reel, held bool) ReelView {
	v := ReelView{
		ID:             r.ID,
		Index:          r.Index,
		Strip:          slices.Clone(r.Strip),
		BonusPositions: slices.Clone(r.BonusPositions),
		Visible:        r.VisibleItems(),
		Centre:         r.CenterItem(),
		Held:           held,
	}
	if r.Len() > 0 {
		for i, pos := range r.Window() {
			v.BonusVisible[i] = r.IsBonus(pos)
		}
	}
	return v
}

// NewLadderView 由規則與目前位置建立 LadderView。
func NewLadderView(r *spec.Rules, value int) LadderView {
	return LadderView{
		Value:      value,
		Max:        r.BonusLadderMax,
		HoldTiles:  slices.Clone(r.LadderHoldTiles),
		NudgeTiles: slices.Clone(r.LadderNudgeTiles),
		HiLoTiles:  slices.Clone(r.LadderHiLoTiles),
	}
}

// NewTrailView 附上 trail 目前所在格的設定；不在 backboard 時不附。
func NewTrailView(bs *spec.BoardSetting, t board.Trail) TrailView {
	v := TrailView{Trail: t}
	if t.Status != board.StatusIdle {
		tile := bs.TileAt(t.Position)
		v.Tile = &tile
	}
	return v
}
