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

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/errs"
)

// Rules 集中遊戲常數。每個欄位留空時於 init() 套用預設值，主題可以局部覆寫。
type Rules struct {
	InitialMoney          float64 `yaml:"initial_money"            json:"initial_money"`
	MinStakeToPlay        int     `yaml:"min_stake_to_play"        json:"min_stake_to_play"`
	StakeOptions          []int   `yaml:"stake_options"            json:"stake_options"`
	ReelsCount            int     `yaml:"reels_count"              json:"reels_count"`
	BonusPositionsPerReel int     `yaml:"bonus_positions_per_reel" json:"bonus_positions_per_reel"`
	HoldTokenSpins        int     `yaml:"hold_token_spins"         json:"hold_token_spins"`
	BonusLadderMax        int     `yaml:"bonus_ladder_max"         json:"bonus_ladder_max"`
	LadderHoldTiles       []int   `yaml:"ladder_hold_tiles"        json:"ladder_hold_tiles"`
	LadderNudgeTiles      []int   `yaml:"ladder_nudge_tiles"       json:"ladder_nudge_tiles"`
	LadderHiLoTiles       []int   `yaml:"ladder_hilo_tiles"        json:"ladder_hilo_tiles"`
	NudgeAwardMin         int     `yaml:"nudge_award_min"          json:"nudge_award_min"`
	NudgeAwardMax         int     `yaml:"nudge_award_max"          json:"nudge_award_max"`
	DieFaces              int     `yaml:"die_faces"                json:"die_faces"`
	DebugMoneyStep        float64 `yaml:"debug_money_step"         json:"debug_money_step"`
	Timing                Timing  `yaml:"timing"                   json:"timing"`
}

// Timing 所有等待點的長度（毫秒；訊息顯示為秒）。
type Timing struct {
	SpinStepMs         int     `yaml:"spin_step_ms"          json:"spin_step_ms"`
	StopDelaysMs       []int   `yaml:"stop_delays_ms"        json:"stop_delays_ms"`
	ShuffleBaseDelayMs int     `yaml:"shuffle_base_delay_ms" json:"shuffle_base_delay_ms"`
	ShuffleStaggerMs   int     `yaml:"shuffle_stagger_ms"    json:"shuffle_stagger_ms"`
	WinFlashMs         int     `yaml:"win_flash_ms"          json:"win_flash_ms"`
	FlashSeconds       float64 `yaml:"flash_seconds"         json:"flash_seconds"`
	SpinnerMs          int     `yaml:"spinner_ms"            json:"spinner_ms"`
	CosmeticSpinnerMs  int     `yaml:"cosmetic_spinner_ms"   json:"cosmetic_spinner_ms"`
	SpinnerTickMs      int     `yaml:"spinner_tick_ms"       json:"spinner_tick_ms"`
}

// 預設值
const (
	DefaultInitialMoney          = 20
	DefaultMinStakeToPlay        = 1
	DefaultReelsCount            = 3
	DefaultBonusPositionsPerReel = 3
	DefaultHoldTokenSpins        = 3
	DefaultBonusLadderMax        = 25
	DefaultDieFaces              = 10
	DefaultDebugMoneyStep        = 10
)

var (
	DefaultStakeOptions     = []int{1, 3, 5, 10}
	DefaultLadderHoldTiles  = []int{7, 22}
	DefaultLadderNudgeTiles = []int{18}
	DefaultLadderHiLoTiles  = []int{12, 25}
	DefaultStopDelaysMs     = []int{900, 1250, 1600}
)

// DefaultRules 回傳已初始化的預設規則。
func DefaultRules() Rules {
	r := Rules{}
	_ = r.init()
	return r
}

func (r *Rules) init() error {
	if r.InitialMoney == 0 {
		r.InitialMoney = DefaultInitialMoney
	}
	if r.MinStakeToPlay == 0 {
		r.MinStakeToPlay = DefaultMinStakeToPlay
	}
	if len(r.StakeOptions) == 0 {
		r.StakeOptions = slices.Clone(DefaultStakeOptions)
	}
	if r.ReelsCount == 0 {
		r.ReelsCount = DefaultReelsCount
	}
	if r.BonusPositionsPerReel == 0 {
		r.BonusPositionsPerReel = DefaultBonusPositionsPerReel
	}
	if r.HoldTokenSpins == 0 {
		r.HoldTokenSpins = DefaultHoldTokenSpins
	}
	if r.BonusLadderMax == 0 {
		r.BonusLadderMax = DefaultBonusLadderMax
	}
	if r.LadderHoldTiles == nil {
		r.LadderHoldTiles = slices.Clone(DefaultLadderHoldTiles)
	}
	if r.LadderNudgeTiles == nil {
		r.LadderNudgeTiles = slices.Clone(DefaultLadderNudgeTiles)
	}
	if r.LadderHiLoTiles == nil {
		r.LadderHiLoTiles = slices.Clone(DefaultLadderHiLoTiles)
	}
	if r.NudgeAwardMin == 0 {
		r.NudgeAwardMin = 1
	}
	if r.NudgeAwardMax == 0 {
		r.NudgeAwardMax = 5
	}
	if r.DieFaces == 0 {
		r.DieFaces = DefaultDieFaces
	}
	if r.DebugMoneyStep == 0 {
		r.DebugMoneyStep = DefaultDebugMoneyStep
	}
	r.Timing.init()
	return r.valid()
}

func (t *Timing) init() {
	if t.SpinStepMs == 0 {
		t.SpinStepMs = 55
	}
	if len(t.StopDelaysMs) == 0 {
		t.StopDelaysMs = slices.Clone(DefaultStopDelaysMs)
	}
	if t.ShuffleBaseDelayMs == 0 {
		t.ShuffleBaseDelayMs = 240
	}
	if t.ShuffleStaggerMs == 0 {
		t.ShuffleStaggerMs = 90
	}
	if t.WinFlashMs == 0 {
		t.WinFlashMs = 2000
	}
	if t.FlashSeconds == 0 {
		t.FlashSeconds = 2
	}
	if t.SpinnerMs == 0 {
		t.SpinnerMs = 900
	}
	if t.CosmeticSpinnerMs == 0 {
		t.CosmeticSpinnerMs = 1300
	}
	if t.SpinnerTickMs == 0 {
		t.SpinnerTickMs = 80
	}
}

func (r *Rules) valid() error {
	if r.InitialMoney < 0 {
		return errs.NewFatal("rules: initial_money must be >= 0")
	}
	if r.MinStakeToPlay < 1 {
		return errs.NewFatal("rules: min_stake_to_play must be >= 1")
	}
	if !slices.IsSorted(r.StakeOptions) {
		return errs.NewFatal("rules: stake_options must be ascending")
	}
	for i, s := range r.StakeOptions {
		if s < 1 {
			return errs.Fatalf("rules: invalid stake option %d", s)
		}
		if i > 0 && r.StakeOptions[i-1] == s {
			return errs.Fatalf("rules: duplicated stake option %d", s)
		}
	}
	if !slices.Contains(r.StakeOptions, r.MinStakeToPlay) {
		return errs.Fatalf("rules: stake_options must contain min_stake_to_play %d", r.MinStakeToPlay)
	}
	if r.ReelsCount < 2 {
		return errs.Fatalf("rules: reels_count must be >= 2, got %d", r.ReelsCount)
	}
	if r.BonusPositionsPerReel < 0 {
		return errs.NewFatal("rules: bonus_positions_per_reel must be >= 0")
	}
	if r.HoldTokenSpins < 1 {
		return errs.NewFatal("rules: hold_token_spins must be >= 1")
	}
	if r.BonusLadderMax < 1 {
		return errs.NewFatal("rules: bonus_ladder_max must be >= 1")
	}
	for _, tiles := range [][]int{r.LadderHoldTiles, r.LadderNudgeTiles, r.LadderHiLoTiles} {
		for _, v := range tiles {
			if v < 1 || v > r.BonusLadderMax {
				return errs.Fatalf("rules: ladder trigger %d outside [1,%d]", v, r.BonusLadderMax)
			}
		}
	}
	if r.NudgeAwardMin < 1 || r.NudgeAwardMax < r.NudgeAwardMin {
		return errs.Fatalf("rules: invalid nudge award range [%d,%d]", r.NudgeAwardMin, r.NudgeAwardMax)
	}
	if r.DieFaces < 2 {
		return errs.NewFatal("rules: die_faces must be >= 2")
	}
	if r.DebugMoneyStep < 0 {
		return errs.NewFatal("rules: debug_money_step must be >= 0")
	}
	if len(r.Timing.StopDelaysMs) < r.ReelsCount {
		return errs.Fatalf("rules: need %d stop delays, got %d", r.ReelsCount, len(r.Timing.StopDelaysMs))
	}
	if r.Timing.SpinStepMs < 1 || r.Timing.SpinnerTickMs < 1 {
		return errs.NewFatal("rules: tick intervals must be >= 1ms")
	}
	return nil
}

// ============================================================
// ** 以下公開方法 **
// ============================================================

// InitialBankroll 以 decimal 回傳起始金額。
func (r *Rules) InitialBankroll() decimal.Decimal {
	return decimal.NewFromFloat(r.InitialMoney)
}

// MinStake 以 decimal 回傳最低可玩押注。
func (r *Rules) MinStake() decimal.Decimal {
	return decimal.NewFromInt(int64(r.MinStakeToPlay))
}

// StakeCap 回傳在 money 下可選的最大押注（不超過 money 的最大選項），都負擔不起時回傳 0。
// 預設選項 {1,3,5,10} 下即為 <1→0, <3→1, <5→3, <10→5, 其餘→10。
func (r *Rules) StakeCap(money decimal.Decimal) int {
	best := 0
	for _, s := range r.StakeOptions {
		if money.GreaterThanOrEqual(decimal.NewFromInt(int64(s))) {
			best = s
		}
	}
	return best
}

// ClampStake 將 requested 夾到 min(requested, StakeCap(money))，再落到不超過它的最大選項。
// 負擔不起任何選項時回傳最低可玩押注。
func (r *Rules) ClampStake(requested int, money decimal.Decimal) int {
	affordable := r.StakeCap(money)
	if affordable == 0 {
		return r.MinStakeToPlay
	}
	limit := min(requested, affordable)
	stake := r.MinStakeToPlay
	for _, s := range r.StakeOptions {
		if s <= limit {
			stake = s
		}
	}
	return stake
}

// IsStakeOption 回傳 v 是否為合法押注選項。
func (r *Rules) IsStakeOption(v int) bool {
	return slices.Contains(r.StakeOptions, v)
}

// StopDelay 回傳第 i 軸的停輪延遲（毫秒）。
func (t *Timing) StopDelay(i int) int {
	if i < 0 || i >= len(t.StopDelaysMs) {
		return t.StopDelaysMs[len(t.StopDelaysMs)-1]
	}
	return t.StopDelaysMs[i]
}

// ShuffleDelay 回傳第 i 軸中途重排 strip 的時間點（毫秒）。
func (t *Timing) ShuffleDelay(i int) int {
	return t.ShuffleBaseDelayMs + t.ShuffleStaggerMs*i
}
