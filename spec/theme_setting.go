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

// Package spec 定義主題設定（轉輪圖標、bonus 圖標、配色、backboard 版面）與遊戲規則常數。
//
// 設定一律經過 init()：補齊缺漏欄位、再由 valid() 做基本檢查，
// 核心邏輯拿到的 *ThemeSetting 視為唯讀。
package spec

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/errs"
)

// MaxReelItems 單一主題最多使用的轉輪圖標數，多出的會被截掉。
const MaxReelItems = 10

const (
	DefaultThemeName = "Template Slot Machine"
	DefaultBonusID   = "bonusItem"
	DefaultBonusText = "BONUS"
)

// baseReelMath 是預設數學表：rank i+1 的 win rate（百分比）與倍數。
var baseReelMath = [MaxReelItems]struct {
	winRate    float64
	multiplier float64
}{
	{10, 1}, {8, 2}, {5, 3}, {4, 4}, {3, 5},
	{2, 10}, {1, 15}, {0.5, 25}, {0.1, 50}, {0.01, 100},
}

// ReelItem 轉輪圖標。WinRate 與 Multiplier 留空時依位置套用預設數學表；
// Icon / IconColour / Image 為選填的視覺欄位，只做透傳。
type ReelItem struct {
	ID         string   `yaml:"id"          json:"id"`
	Rank       int      `yaml:"rank"        json:"rank"`
	Name       string   `yaml:"name"        json:"name"`
	Label      string   `yaml:"label"       json:"label"`
	WinRate    *float64 `yaml:"win_rate"    json:"win_rate"`
	Multiplier *float64 `yaml:"multiplier"  json:"multiplier"`
	Icon       string   `yaml:"icon"        json:"icon,omitempty"`
	IconColour string   `yaml:"icon_colour" json:"icon_colour,omitempty"`
	Image      string   `yaml:"image"       json:"image,omitempty"`
}

// Rate 回傳 win rate（百分比）。
func (it *ReelItem) Rate() float64 {
	if it.WinRate == nil {
		return 0
	}
	return *it.WinRate
}

// Mult 以 decimal 回傳賠付倍數。
func (it *ReelItem) Mult() decimal.Decimal {
	if it.Multiplier == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*it.Multiplier)
}

// BonusItem 描述 bonus 符號的外觀，不參與賠付計算。
type BonusItem struct {
	ID         string `yaml:"id"          json:"id"`
	Name       string `yaml:"name"        json:"name"`
	Label      string `yaml:"label"       json:"label"`
	Icon       string `yaml:"icon"        json:"icon,omitempty"`
	IconColour string `yaml:"icon_colour" json:"icon_colour,omitempty"`
	Image      string `yaml:"image"       json:"image,omitempty"`
}

// ThemeSetting 一個主題的完整設定。
type ThemeSetting struct {
	ThemeID      string            `yaml:"theme_id"      json:"theme_id"`
	Name         string            `yaml:"name"          json:"name"`
	ReelItems    []ReelItem        `yaml:"reel_items"    json:"reel_items"`
	BonusItem    *BonusItem        `yaml:"bonus_item"    json:"bonus_item"`
	ColourScheme map[string]string `yaml:"colour_scheme" json:"colour_scheme,omitempty"`
	Background   string            `yaml:"background"    json:"background,omitempty"`
	Backboard    BoardSetting      `yaml:"backboard"     json:"backboard"`
	Rules        Rules             `yaml:"rules"         json:"rules"`
	itemIndex    map[string]int
	initFlag     bool
}

// DefaultTheme 回傳只有預設值的模板主題。
func DefaultTheme() *ThemeSetting {
	ts := &ThemeSetting{}
	if err := ts.init(); err != nil {
		panic(err)
	}
	return ts
}

func (ts *ThemeSetting) init() error {
	if ts.initFlag {
		return nil
	}
	if ts.Name == "" {
		ts.Name = DefaultThemeName
	}
	ts.normaliseItems()
	if ts.BonusItem == nil {
		ts.BonusItem = &BonusItem{ID: DefaultBonusID, Label: DefaultBonusText}
	}
	if err := ts.Rules.init(); err != nil {
		return errs.WrapWithExtra(err, "invalid rules", ts.Name)
	}
	if err := ts.Backboard.init(); err != nil {
		return errs.WrapWithExtra(err, "invalid backboard", ts.Name)
	}
	if err := ts.Backboard.checkForcedMoves(ts.Rules.DieFaces); err != nil {
		return errs.WrapWithExtra(err, "invalid backboard", ts.Name)
	}
	if err := ts.valid(); err != nil {
		return err
	}
	ts.itemIndex = make(map[string]int, len(ts.ReelItems))
	for i, it := range ts.ReelItems {
		ts.itemIndex[it.ID] = i
	}
	ts.initFlag = true
	return nil
}

// normaliseItems 截斷到 MaxReelItems 並補齊每個圖標缺漏的欄位。
func (ts *ThemeSetting) normaliseItems() {
	if ts.ReelItems == nil {
		ts.ReelItems = make([]ReelItem, MaxReelItems)
	}
	if len(ts.ReelItems) > MaxReelItems {
		ts.ReelItems = ts.ReelItems[:MaxReelItems]
	}
	for i := range ts.ReelItems {
		it := &ts.ReelItems[i]
		if it.ID == "" {
			it.ID = fmt.Sprintf("reelItem%d", i+1)
		}
		if it.Rank == 0 {
			it.Rank = i + 1
		}
		if it.Label == "" {
			it.Label = fmt.Sprintf("%d", i+1)
		}
		if it.Name == "" {
			it.Name = it.Label
		}
		if it.WinRate == nil {
			v := baseReelMath[i].winRate
			it.WinRate = &v
		}
		if it.Multiplier == nil {
			v := baseReelMath[i].multiplier
			it.Multiplier = &v
		}
	}
}

func (ts *ThemeSetting) valid() error {
	if len(ts.ReelItems) == 0 {
		return errs.Fatalf("theme %s: empty reel_items", ts.Name)
	}
	ids := make(map[string]struct{}, len(ts.ReelItems))
	ranks := make(map[int]struct{}, len(ts.ReelItems))
	sum := 0.0
	for _, it := range ts.ReelItems {
		if _, dup := ids[it.ID]; dup {
			return errs.Fatalf("theme %s: duplicated reel item id %s", ts.Name, it.ID)
		}
		ids[it.ID] = struct{}{}
		if _, dup := ranks[it.Rank]; dup {
			return errs.Fatalf("theme %s: duplicated rank %d", ts.Name, it.Rank)
		}
		ranks[it.Rank] = struct{}{}
		if it.Rate() < 0 || math.IsNaN(it.Rate()) {
			return errs.Fatalf("theme %s: item %s has negative win_rate", ts.Name, it.ID)
		}
		if *it.Multiplier < 0 || math.IsNaN(*it.Multiplier) {
			return errs.Fatalf("theme %s: item %s has negative multiplier", ts.Name, it.ID)
		}
		sum += it.Rate()
	}
	if sum > 100+1e-9 {
		return errs.Fatalf("theme %s: win rates sum to %.4f (> 100)", ts.Name, sum)
	}
	if ts.Rules.BonusPositionsPerReel > len(ts.ReelItems) {
		return errs.Fatalf("theme %s: %d bonus positions on a strip of %d", ts.Name, ts.Rules.BonusPositionsPerReel, len(ts.ReelItems))
	}
	return nil
}

// ============================================================
// ** 以下公開方法 **
// ============================================================

// Item 依 id 回傳圖標；找不到回傳 nil。
func (ts *ThemeSetting) Item(id string) *ReelItem {
	i, ok := ts.itemIndex[id]
	if !ok {
		return nil
	}
	return &ts.ReelItems[i]
}

// ItemByRank 依 rank 回傳圖標；找不到回傳 nil。
func (ts *ThemeSetting) ItemByRank(rank int) *ReelItem {
	for i := range ts.ReelItems {
		if ts.ReelItems[i].Rank == rank {
			return &ts.ReelItems[i]
		}
	}
	return nil
}

// ItemIDs 依宣告順序回傳所有圖標 id（新 strip 的原料）。
func (ts *ThemeSetting) ItemIDs() []string {
	out := make([]string, len(ts.ReelItems))
	for i, it := range ts.ReelItems {
		out[i] = it.ID
	}
	return out
}

// TotalWinRate 回傳所有 win rate 加總（百分比），其餘機率為「未中獎」。
func (ts *ThemeSetting) TotalWinRate() float64 {
	sum := 0.0
	for _, it := range ts.ReelItems {
		sum += it.Rate()
	}
	return sum
}
