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

package reel

import (
	"slices"
	"testing"

	"github.com/zintix-labs/ladderslot/sdk/core"
	"pgregory.net/rapid"
)

var items = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

func TestVisibleWindowAlwaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		center := rapid.Int().Draw(rt, "center")
		length := rapid.IntRange(1, 64).Draw(rt, "length")
		w := VisibleWindow(center, length)
		for _, idx := range w {
			if idx < 0 || idx >= length {
				rt.Fatalf("index %d outside [0,%d) for center %d", idx, length, center)
			}
		}
		if w[0] != Wrap(w[1]-1, length) || w[2] != Wrap(w[1]+1, length) {
			rt.Fatalf("window is not contiguous: %v", w)
		}
	})
}

func TestWrap(t *testing.T) {
	cases := []struct{ in, size, want int }{
		{-1, 10, 9}, {10, 10, 0}, {-21, 10, 9}, {5, 0, 0}, {3, -4, 0}, {23, 10, 3},
	}
	for _, c := range cases {
		if got := Wrap(c.in, c.size); got != c.want {
			t.Fatalf("Wrap(%d,%d)=%d want %d", c.in, c.size, got, c.want)
		}
	}
}

func TestNewReelsShape(t *testing.T) {
	c := core.NewSeeded(1)
	reels := NewReels(items, 3, 3, c)
	if len(reels) != 3 {
		t.Fatalf("expected 3 reels, got %d", len(reels))
	}
	for i, r := range reels {
		if r.ID != i {
			t.Fatalf("reel %d has id %d", i, r.ID)
		}
		got := slices.Clone(r.Strip)
		slices.Sort(got)
		if !slices.Equal(got, items) {
			t.Fatalf("strip is not a permutation: %v", r.Strip)
		}
		if len(r.BonusPositions) != 3 || !slices.IsSorted(r.BonusPositions) {
			t.Fatalf("bad bonus positions %v", r.BonusPositions)
		}
		if r.Index < 0 || r.Index >= r.Len() {
			t.Fatalf("index %d out of range", r.Index)
		}
	}
}

func TestReshufflePreservesMultisetAndCentre(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := core.NewSeeded(rapid.Int64().Draw(rt, "seed"))
		r := New(0, items, 3, c)
		r.Index = rapid.IntRange(0, len(items)-1).Draw(rt, "index")
		centre := r.CenterItem()
		bonus := slices.Clone(r.BonusPositions)

		r.ReshufflePreservingCenter(c)

		got := slices.Clone(r.Strip)
		slices.Sort(got)
		if !slices.Equal(got, items) {
			rt.Fatalf("multiset changed: %v", r.Strip)
		}
		if r.CenterItem() != centre {
			rt.Fatalf("centre changed from %s to %s", centre, r.CenterItem())
		}
		if !slices.Equal(bonus, r.BonusPositions) {
			rt.Fatalf("bonus positions must not move")
		}
	})
}

func TestNudgeWrapsAndKeepsStrip(t *testing.T) {
	r := &Reel{ID: 0, Strip: []string{"a", "b", "c"}, Index: 0, BonusPositions: []int{1}}
	r.Nudge(Down)
	if r.Index != 2 {
		t.Fatalf("down from 0 should wrap to 2, got %d", r.Index)
	}
	r.Nudge(Up)
	r.Nudge(Up)
	if r.Index != 1 || r.CenterItem() != "b" {
		t.Fatalf("unexpected state after nudges: %+v", r)
	}
	if !slices.Equal(r.Strip, []string{"a", "b", "c"}) || !slices.Equal(r.BonusPositions, []int{1}) {
		t.Fatalf("nudge must not touch strip or bonus slots")
	}
	if d, ok := ParseDirection("down"); !ok || d != Down {
		t.Fatalf("ParseDirection(down) failed")
	}
	if _, ok := ParseDirection("sideways"); ok {
		t.Fatalf("unknown direction should be rejected")
	}
}

func TestBonusCounting(t *testing.T) {
	r0 := &Reel{ID: 0, Strip: items, Index: 5, BonusPositions: []int{0, 4, 6}}
	r1 := &Reel{ID: 1, Strip: items, Index: 0, BonusPositions: []int{2, 5, 8}}
	if got := r0.VisibleBonusCount(); got != 2 {
		t.Fatalf("reel0 visible bonus=%d want 2", got)
	}
	if got := r1.VisibleBonusCount(); got != 0 {
		t.Fatalf("reel1 visible bonus=%d want 0", got)
	}
	before := []*Reel{r0, r1}
	if got := CountVisibleBonus(before); got != 2 {
		t.Fatalf("total=%d want 2", got)
	}

	after := CloneAll(before)
	after[1].Nudge(Up) // window 0,1,2 → 2 is bonus
	if got := CountNewlyVisibleBonus(before, after); got != 1 {
		t.Fatalf("newly visible=%d want 1", got)
	}

	after2 := CloneAll(before)
	after2[0].Nudge(Up) // window 5,6,7 : 6 was already visible
	if got := CountNewlyVisibleBonus(before, after2); got != 0 {
		t.Fatalf("newly visible=%d want 0", got)
	}
}

func TestStopOnAndCentreItems(t *testing.T) {
	r := &Reel{Strip: []string{"x", "y", "z"}}
	r.StopOn("z")
	if r.Index != 2 {
		t.Fatalf("StopOn should land on 2, got %d", r.Index)
	}
	r.StopOn("missing")
	if r.Index != 0 {
		t.Fatalf("StopOn unknown should fall back to 0, got %d", r.Index)
	}
	if got := CenterItems([]*Reel{r, {Strip: []string{"q"}}}); !slices.Equal(got, []string{"x", "q"}) {
		t.Fatalf("CenterItems=%v", got)
	}
}
