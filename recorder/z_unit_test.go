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

package recorder_test

import (
	"testing"

	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/recorder"
	"github.com/zintix-labs/ladderslot/stats"
)

func newRecorder(t *testing.T, initMoney int) *recorder.Recorder {
	t.Helper()
	r, err := recorder.New("font-awesome", "Template Slot Machine", []int{1, 3, 5, 10}, initMoney)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	return r
}

func TestNewValidates(t *testing.T) {
	cases := []struct {
		stakes []int
		money  int
	}{
		{nil, 0},
		{[]int{1, 0}, 0},
		{[]int{1}, -1},
	}
	for _, c := range cases {
		if _, err := recorder.New("x", "x", c.stakes, c.money); !errs.IsFatal(err) {
			t.Fatalf("New(%v,%d) expected fatal, got %v", c.stakes, c.money, err)
		}
	}
}

func TestRoundAccounting(t *testing.T) {
	r := newRecorder(t, 0)
	r.RecordSpin(recorder.Spin{Stake: 2, BonusSeen: 1, Ladder: 1})
	r.RecordNudge(recorder.Spin{Line: 600, BonusSeen: 2, Ladder: 3, NudgesAwarded: 1})
	r.RecordSpin(recorder.Spin{Stake: 1, HoldsUsed: 1})
	r.RecordRoll(-100, false)

	rep := r.Done()
	rep.Done()
	s := rep.Summary
	if s.Rounds != 2 || s.TotalBet != 300 || s.TotalWin != 500 || s.LineWin != 600 || s.BoardWin != -100 {
		t.Fatalf("summary mismatch: %+v", s)
	}
	if s.Nudges != 1 || s.Rolls != 1 {
		t.Fatalf("nudges=%d rolls=%d", s.Nudges, s.Rolls)
	}
	labels := rep.Dist.WinBucket
	if rep.Dist.TotalWinCollect[0] != 1 {
		t.Fatalf("losing round not in %s: %v", labels[0], rep.Dist.TotalWinCollect)
	}
	if idx := stats.Buckets.Index(300); rep.Dist.TotalWinCollect[idx] != 1 || labels[idx] != "[2,5)" {
		t.Fatalf("3x round not recorded in [2,5): %v", rep.Dist.TotalWinCollect)
	}
	if s.HitRate != 0.5 {
		t.Fatalf("hit rate got %v", s.HitRate)
	}
	if rep.Mult.TotalWinMult != 2 {
		t.Fatalf("total win mult got %v", rep.Mult.TotalWinMult)
	}
	l := rep.Ladder
	if l.BonusSeen != 3 || l.MaxLadderValue != 3 || l.NudgesAwarded != 1 || l.HoldsUsed != 1 {
		t.Fatalf("ladder mismatch: %+v", l)
	}
}

func TestHiLoAndBoardCounters(t *testing.T) {
	r := newRecorder(t, 0)
	r.RecordSpin(recorder.Spin{Stake: 1})
	r.RecordHiLo(false, false)
	r.RecordHiLo(false, true)
	r.RecordHiLo(true, true)
	r.RecordHiLo(true, false)
	r.RecordRoll(500, true)

	rep := r.Done()
	if rep.Summary.Trigger != 1 {
		t.Fatalf("board entries got %d", rep.Summary.Trigger)
	}
	l := rep.Ladder
	if l.HiLoGates != 2 || l.HiLoWins != 1 || l.BoardHiLo != 2 || l.BoardHiLoWins != 1 || l.BoardExits != 2 {
		t.Fatalf("counters mismatch: %+v", l)
	}
}

func TestPlayerCashoutAndBust(t *testing.T) {
	r := newRecorder(t, 2000)
	if r.RecordSpin(recorder.Spin{Stake: 1}) {
		t.Fatalf("should not leave after a losing spin")
	}
	if !r.RecordNudge(recorder.Spin{Line: 5000}) {
		t.Fatalf("balance 6900 should reach the 3x leave line")
	}
	rep := r.Done()
	rep.Done()
	p := rep.Player
	if p.Balance != 6900 || p.MinBalance != 1900 || p.MaxBalance != 6900 || !p.Cashout || p.Alive {
		t.Fatalf("player mismatch: %+v", p)
	}

	b := newRecorder(t, 2000)
	b.RecordSpin(recorder.Spin{Stake: 10})
	b.RecordBust()
	bp := b.Done()
	bp.Done()
	if !bp.Player.Bust || bp.Player.Alive {
		t.Fatalf("bust player mismatch: %+v", bp.Player)
	}
}

func TestMerge(t *testing.T) {
	a := newRecorder(t, 0)
	a.RecordSpin(recorder.Spin{Stake: 1, Line: 200})
	b := newRecorder(t, 0)
	b.RecordSpin(recorder.Spin{Stake: 5})
	b.RecordTopUp()

	m, err := recorder.Merge([]*recorder.Recorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	rep := m.Done()
	if rep.Summary.Rounds != 2 || rep.Summary.TotalBet != 600 || rep.Summary.TotalWin != 200 || rep.Summary.TopUps != 1 {
		t.Fatalf("merged summary mismatch: %+v", rep.Summary)
	}
	sum := 0
	for _, c := range rep.Dist.TotalWinCollect {
		sum += c
	}
	if sum != 2 {
		t.Fatalf("merged distribution total %d", sum)
	}

	other, _ := recorder.New("other", "Other", []int{1, 3, 5, 10}, 0)
	if _, err := recorder.Merge([]*recorder.Recorder{a, other}); !errs.IsFatal(err) {
		t.Fatalf("merging different themes should fail, got %v", err)
	}
	if _, err := recorder.Merge(nil); err == nil {
		t.Fatalf("merging nothing should fail")
	}
}
