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

package spec

import (
	"slices"

	"github.com/zintix-labs/ladderslot/errs"
)

// Effect 是 backboard 格子的效果種類。
type Effect string

const (
	EffectBlank        Effect = "blank"
	EffectStart        Effect = "start"
	EffectJump         Effect = "jump"
	EffectHiLo         Effect = "hilo"
	EffectCashoutOffer Effect = "cashout_offer"
	EffectInstaWin     Effect = "insta_win"
	EffectPayYourWay   Effect = "pay_your_way"
	EffectEnd          Effect = "end"
	EffectSetback      Effect = "setback"
	EffectWinYourRoll  Effect = "win_your_roll"
	EffectJackpot      Effect = "jackpot"
)

var effectSet = map[Effect]struct{}{
	EffectBlank: {}, EffectStart: {}, EffectJump: {}, EffectHiLo: {},
	EffectCashoutOffer: {}, EffectInstaWin: {}, EffectPayYourWay: {}, EffectEnd: {},
	EffectSetback: {}, EffectWinYourRoll: {}, EffectJackpot: {},
}

// ParseEffect 檢查字串是否為已知效果。
func ParseEffect(s string) (Effect, bool) {
	e := Effect(s)
	_, ok := effectSet[e]
	return e, ok
}

// 預設倍數
const (
	DefaultJackpotMultiplier  = 250
	DefaultRollMultiplier     = 1
	DefaultBoardColumns       = 10
	DefaultBoardRows          = 5
	DefaultMaxTile            = 50
	DefaultOverflowTargetTile = 35
	defaultStartTile          = 1
)

// Tile 描述 backboard 上的一格。Icon 只做透傳。
//
// Fields:
//   - JumpTo: jump 的目的格
//   - Multiplier: cashout_offer / insta_win / jackpot 的押注倍數
//   - RollMultiplier: win_your_roll 的擲骰倍數
type Tile struct {
	Tile           int     `yaml:"tile"            json:"tile"`
	Text           string  `yaml:"text"            json:"text"`
	Effect         Effect  `yaml:"effect"          json:"effect"`
	JumpTo         int     `yaml:"jump_to"         json:"jump_to,omitempty"`
	Multiplier     float64 `yaml:"multiplier"      json:"multiplier,omitempty"`
	RollMultiplier float64 `yaml:"roll_multiplier" json:"roll_multiplier,omitempty"`
	Icon           string  `yaml:"icon"            json:"icon,omitempty"`
}

// BoardSetting 描述 backboard 版面。設定檔只需列出特殊格，init() 會補齊 1..MaxTile 的空白格。
type BoardSetting struct {
	GridColumns        int    `yaml:"grid_columns"         json:"grid_columns"`
	GridRows           int    `yaml:"grid_rows"            json:"grid_rows"`
	MaxTile            int    `yaml:"max_tile"             json:"max_tile"`
	OverflowTargetTile int    `yaml:"overflow_target_tile" json:"overflow_target_tile"`
	Tiles              []Tile `yaml:"tiles"                json:"tiles"`
	initFlag           bool
}

func (b *BoardSetting) init() error {
	if b.initFlag {
		return nil
	}
	if b.GridColumns == 0 {
		b.GridColumns = DefaultBoardColumns
	}
	if b.GridRows == 0 {
		b.GridRows = DefaultBoardRows
	}
	if b.MaxTile == 0 {
		b.MaxTile = b.GridColumns * b.GridRows
	}
	if b.OverflowTargetTile == 0 {
		b.OverflowTargetTile = b.MaxTile
	}
	if err := b.valid(); err != nil {
		return err
	}

	full := make([]Tile, b.MaxTile)
	for i := range full {
		full[i] = Tile{Tile: i + 1, Effect: EffectBlank}
	}
	for _, t := range b.Tiles {
		if t.Effect == EffectJackpot && t.Multiplier == 0 {
			t.Multiplier = DefaultJackpotMultiplier
		}
		if t.Effect == EffectWinYourRoll && t.RollMultiplier == 0 {
			t.RollMultiplier = DefaultRollMultiplier
		}
		full[t.Tile-1] = t
	}
	if full[defaultStartTile-1].Effect == EffectBlank {
		full[defaultStartTile-1] = Tile{Tile: defaultStartTile, Text: "Start", Effect: EffectStart}
	}
	b.Tiles = full
	b.initFlag = true
	return nil
}

func (b *BoardSetting) valid() error {
	if b.MaxTile < 1 {
		return errs.Fatalf("board: max_tile must be >= 1, got %d", b.MaxTile)
	}
	if b.OverflowTargetTile < 1 || b.OverflowTargetTile > b.MaxTile {
		return errs.Fatalf("board: overflow_target_tile %d outside [1,%d]", b.OverflowTargetTile, b.MaxTile)
	}
	seen := make([]bool, b.MaxTile+1)
	for _, t := range b.Tiles {
		if t.Tile < 1 || t.Tile > b.MaxTile {
			return errs.Fatalf("board: tile %d outside [1,%d]", t.Tile, b.MaxTile)
		}
		if seen[t.Tile] {
			return errs.Fatalf("board: tile %d declared twice", t.Tile)
		}
		seen[t.Tile] = true
		if _, ok := ParseEffect(string(t.Effect)); !ok {
			return errs.Fatalf("board: tile %d has unknown effect %q", t.Tile, t.Effect)
		}
		switch t.Effect {
		case EffectJump:
			if t.JumpTo < 1 || t.JumpTo > b.MaxTile || t.JumpTo == t.Tile {
				return errs.Fatalf("board: tile %d jump_to %d invalid", t.Tile, t.JumpTo)
			}
		case EffectCashoutOffer, EffectInstaWin:
			if t.Multiplier <= 0 {
				return errs.Fatalf("board: tile %d (%s) needs a positive multiplier", t.Tile, t.Effect)
			}
		case EffectJackpot:
			if t.Multiplier < 0 {
				return errs.Fatalf("board: tile %d jackpot multiplier must be >= 0", t.Tile)
			}
		case EffectWinYourRoll:
			if t.RollMultiplier < 0 {
				return errs.Fatalf("board: tile %d roll_multiplier must be >= 0", t.Tile)
			}
		}
	}
	return b.checkJumpCycles()
}

// checkJumpCycles 確認 jump 不會形成無限循環。
func (b *BoardSetting) checkJumpCycles() error {
	jumps := map[int]int{}
	for _, t := range b.Tiles {
		if t.Effect == EffectJump {
			jumps[t.Tile] = t.JumpTo
		}
	}
	for start := range jumps {
		seen := map[int]bool{start: true}
		for at, ok := jumps[start]; ok; at, ok = jumps[at] {
			if seen[at] {
				return errs.Fatalf("board: jump cycle starting at tile %d", start)
			}
			seen[at] = true
		}
	}
	return nil
}

// checkForcedMoves 確認每個 jump / setback 格都能走到非強制移動的格子，
// 否則結算迴圈可能永遠停不下來（例如第 1 格放 setback）。
// 必須在補齊 1..MaxTile 之後呼叫；dieFaces 為 setback 擲骰面數。
func (b *BoardSetting) checkForcedMoves(dieFaces int) error {
	forced := func(n int) bool {
		e := b.TileAt(n).Effect
		return e == EffectJump || e == EffectSetback
	}
	escapes := make([]bool, b.MaxTile+1)
	for n := 1; n <= b.MaxTile; n++ {
		escapes[n] = !forced(n)
	}
	for changed := true; changed; {
		changed = false
		for n := 1; n <= b.MaxTile; n++ {
			if escapes[n] {
				continue
			}
			t := b.TileAt(n)
			ok := false
			switch t.Effect {
			case EffectJump:
				ok = escapes[b.Clamp(t.JumpTo)]
			case EffectSetback:
				for roll := 1; roll <= dieFaces && !ok; roll++ {
					ok = escapes[max(1, n-roll)]
				}
			}
			if ok {
				escapes[n] = true
				changed = true
			}
		}
	}
	for n := 1; n <= b.MaxTile; n++ {
		if !escapes[n] {
			return errs.Fatalf("board: tile %d (%s) never leaves forced moves", n, b.TileAt(n).Effect)
		}
	}
	return nil
}

// ============================================================
// ** 以下公開方法 **
// ============================================================

// TileAt 回傳指定格；超出 [1,MaxTile] 時先夾回範圍內。
func (b *BoardSetting) TileAt(n int) Tile {
	return b.Tiles[b.Clamp(n)-1]
}

// Clamp 將格號夾在 [1,MaxTile]。
func (b *BoardSetting) Clamp(n int) int {
	return max(1, min(n, b.MaxTile))
}

// TilesWith 回傳所有指定效果的格號（遞增）。
func (b *BoardSetting) TilesWith(e Effect) []int {
	out := []int{}
	for _, t := range b.Tiles {
		if t.Effect == e {
			out = append(out, t.Tile)
		}
	}
	slices.Sort(out)
	return out
}
