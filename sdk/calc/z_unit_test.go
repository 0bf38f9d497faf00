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

package calc

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/sdk/reel"
	"github.com/zintix-labs/ladderslot/spec"
)

// fixedPRNG 回傳固定的 Float64，IntN 依序輪替 ints。
type fixedPRNG struct {
	f    float64
	ints []int
	i    int
}

func (p *fixedPRNG) Uint64() uint64   { return 0 }
func (p *fixedPRNG) Float64() float64 { return p.f }
func (p *fixedPRNG) UintN(n uint) uint {
	return uint(p.IntN(int(n)))
}
func (p *fixedPRNG) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	if len(p.ints) == 0 {
		return 0
	}
	v := p.ints[p.i%len(p.ints)]
	p.i++
	return v % n
}
func (p *fixedPRNG) Snapshot() ([]byte, error) { return nil, nil }
func (p *fixedPRNG) Restore([]byte) error      { return nil }

func theme(t *testing.T) *spec.ThemeSetting {
	t.Helper()
	ts, err := spec.GetThemeSettingByYAML([]byte("theme_id: t\n"))
	if err != nil {
		t.Fatalf("theme: %v", err)
	}
	return ts
}

func TestChooseWinningRankBoundaries(t *testing.T) {
	ts := theme(t)
	cases := []struct {
		f    float64
		want int
	}{
		{0, 1},      // roll 0 → first bucket [0,10)
		{0.0999, 1}, // 9.99
		{0.105, 2},  // 10.5 → second bucket [10,18)
		{0.179, 2},  // 17.9
		{0.185, 3},  // 18.5
		{0.34, NoWin},
		{0.99, NoWin},
	}
	for _, c := range cases {
		got := ChooseWinningRank(core.New(&fixedPRNG{f: c.f}), ts.ReelItems)
		if got != c.want {
			t.Fatalf("roll %.4f: rank=%d want %d", c.f*100, got, c.want)
		}
	}
}

func TestChooseWinningRankZeroRateNeverWins(t *testing.T) {
	zero, ten := 0.0, 10.0
	items := []spec.ReelItem{
		{ID: "z", Rank: 1, WinRate: &zero},
		{ID: "t", Rank: 2, WinRate: &ten},
	}
	if got := ChooseWinningRank(core.New(&fixedPRNG{f: 0}), items); got != 2 {
		t.Fatalf("zero win rate item must not be chosen, got rank %d", got)
	}
}

func TestChooseWinningRankFrequency(t *testing.T) {
	ts := theme(t)
	c := core.NewSeeded(77)
	const trials = 200000
	wins := 0
	for i := 0; i < trials; i++ {
		if ChooseWinningRank(c, ts.ReelItems) != NoWin {
			wins++
		}
	}
	got := float64(wins) / trials * 100
	if math.Abs(got-ts.TotalWinRate()) > 0.5 {
		t.Fatalf("win frequency %.3f%% far from configured %.3f%%", got, ts.TotalWinRate())
	}
}

func TestChooseNonMatchingStopItemsNeverTriple(t *testing.T) {
	ts := theme(t)
	c := core.NewSeeded(2)
	reels := reel.NewReels(ts.ItemIDs(), 3, 3, c)
	for i := 0; i < 1000; i++ {
		stops := ChooseNonMatchingStopItems(c, reels)
		if stops[0] == stops[1] && stops[1] == stops[2] {
			t.Fatalf("trial %d produced a triple: %v", i, stops)
		}
	}
}

func TestChooseNonMatchingStopItemsRerollsOnlyLastReel(t *testing.T) {
	reels := []*reel.Reel{
		{ID: 0, Strip: []string{"a", "b"}},
		{ID: 1, Strip: []string{"a", "b"}},
		{ID: 2, Strip: []string{"a", "b"}},
	}
	// 前三次都抽 0 → a,a,a，第四次給最後一軸 1 → b
	p := &fixedPRNG{ints: []int{0, 0, 0, 1}}
	stops := ChooseNonMatchingStopItems(core.New(p), reels)
	if stops[0] != "a" || stops[1] != "a" || stops[2] != "b" {
		t.Fatalf("unexpected stops %v", stops)
	}

	single := []*reel.Reel{{Strip: []string{"x"}}, {Strip: []string{"x"}}, {Strip: []string{"x"}}}
	if got := ChooseNonMatchingStopItems(core.NewSeeded(1), single); len(got) != 3 {
		t.Fatalf("degenerate strips must still return")
	}
}

func TestBuildStopItemsHeldPath(t *testing.T) {
	ts := theme(t)
	c := core.NewSeeded(5)
	reels := reel.NewReels(ts.ItemIDs(), 3, 3, c)
	held := []bool{true, false, true}
	for i := 0; i < 50; i++ {
		stops := BuildStopItems(c, ts, reels, held)
		if stops[0] != reels[0].CenterItem() || stops[2] != reels[2].CenterItem() {
			t.Fatalf("held reels must keep their centre item: %v", stops)
		}
	}
}

func TestBuildStopItemsWinningPath(t *testing.T) {
	ts := theme(t)
	reels := reel.NewReels(ts.ItemIDs(), 3, 3, core.NewSeeded(9))
	stops := BuildStopItems(core.New(&fixedPRNG{f: 0}), ts, reels, []bool{false, false, false})
	for _, s := range stops {
		if s != "reelItem1" {
			t.Fatalf("rigged rank 1 should stop every reel on reelItem1: %v", stops)
		}
	}
}

func TestGetPayoutAndEvaluateLine(t *testing.T) {
	ts := theme(t)
	if !GetPayout(nil, 5).IsZero() {
		t.Fatalf("no match must pay 0")
	}
	if got := GetPayout(ts.ItemByRank(8), 3); !got.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("payout=%s want 75", got)
	}

	mk := func(ids ...string) []*reel.Reel {
		out := make([]*reel.Reel, len(ids))
		for i, id := range ids {
			out[i] = &reel.Reel{ID: i, Strip: []string{id}}
		}
		return out
	}
	line := EvaluateLine(ts, mk("reelItem2", "reelItem2", "reelItem2"), 5)
	if !line.Win || line.Rank() != 2 || !line.Payout.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected line %+v", line)
	}
	miss := EvaluateLine(ts, mk("reelItem2", "reelItem3", "reelItem2"), 5)
	if miss.Win || miss.Rank() != NoWin || !miss.Payout.IsZero() {
		t.Fatalf("unexpected miss %+v", miss)
	}
}
