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
	"encoding/json"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/sdk/board"
	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/sdk/reel"
	"github.com/zintix-labs/ladderslot/sdk/timing"
	"github.com/zintix-labs/ladderslot/spec"
	"github.com/zintix-labs/ladderslot/themes"
	"pgregory.net/rapid"
)

// scriptPRNG 依序吐出指定的 IntN 結果，用完後一律回傳 0；Float64 固定為 f。
type scriptPRNG struct {
	ints []int
	f    float64
}

func (p *scriptPRNG) Uint64() uint64            { return 7 }
func (p *scriptPRNG) Float64() float64          { return p.f }
func (p *scriptPRNG) UintN(n uint) uint         { return uint(p.IntN(int(n))) }
func (p *scriptPRNG) Snapshot() ([]byte, error) { return nil, nil }
func (p *scriptPRNG) Restore([]byte) error      { return nil }

func (p *scriptPRNG) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	if len(p.ints) == 0 {
		return 0
	}
	v := p.ints[0]
	p.ints = p.ints[1:]
	return v % n
}

func templateTheme(t *testing.T) *spec.ThemeSetting {
	t.Helper()
	c, err := themes.New()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ts, err := c.Theme("template")
	if err != nil {
		t.Fatalf("template theme: %v", err)
	}
	return ts
}

const boardYAML = `
theme_id: jumpy
name: Jumpy
backboard:
  max_tile: 20
  overflow_target_tile: 12
  tiles:
    - {tile: 3, text: Jump, effect: jump, jump_to: 15}
    - {tile: 15, text: Insta, effect: insta_win, multiplier: 2}
    - {tile: 18, text: End, effect: end}
`

func boardTheme(t *testing.T) *spec.ThemeSetting {
	t.Helper()
	ts, err := spec.GetThemeSettingByYAML([]byte(boardYAML))
	if err != nil {
		t.Fatalf("board theme: %v", err)
	}
	return ts
}

func newScripted(t *testing.T, ts *spec.ThemeSetting) (*Machine, *scriptPRNG, *modal.Auto) {
	t.Helper()
	p := &scriptPRNG{}
	auto := &modal.Auto{Clock: timing.NewInstant()}
	m, err := NewMachine(ts, WithCore(core.New(p)), WithClock(timing.NewInstant()), WithModal(auto))
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	return m, p, auto
}

// fixedReels 每軸都是宣告順序的 strip，中心與 bonus 格由呼叫端指定。
func fixedReels(ts *spec.ThemeSetting, centres []int, bonus [][]int) []*reel.Reel {
	out := make([]*reel.Reel, len(centres))
	for i := range out {
		out[i] = &reel.Reel{ID: i, Strip: ts.ItemIDs(), Index: centres[i], BonusPositions: slices.Clone(bonus[i])}
	}
	return out
}

// slots 從新的一局出發，套用 edit 後 Restore。
func slots(t *testing.T, m *Machine, edit func(s *Session)) {
	t.Helper()
	m.StartGame()
	s := m.Session()
	edit(s)
	if err := m.Restore(s); err != nil {
		t.Fatalf("restore: %v", err)
	}
}

func wait(t *testing.T, op *Op) {
	t.Helper()
	if !op.Accepted() {
		t.Fatalf("%s rejected", op.Name())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := op.Wait(ctx); err != nil {
		t.Fatalf("%s: %v", op.Name(), err)
	}
}

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// gateClock 在 open 關閉前擋住所有 Sleep；第一次進入 Sleep 時關閉 entered。
type gateClock struct {
	once    sync.Once
	entered chan struct{}
	open    chan struct{}
}

func newGateClock() *gateClock {
	return &gateClock{entered: make(chan struct{}), open: make(chan struct{})}
}

func (c *gateClock) Sleep(ctx context.Context, d time.Duration) error {
	c.once.Do(func() { close(c.entered) })
	select {
	case <-c.open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// waitEntered 等到流程停在第一個等待點。
func (c *gateClock) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-c.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("pipeline never reached a wait")
	}
}

func newGated(t *testing.T, ts *spec.ThemeSetting) (*Machine, *scriptPRNG, *gateClock) {
	t.Helper()
	p := &scriptPRNG{}
	gc := newGateClock()
	auto := &modal.Auto{Clock: timing.NewInstant()}
	m, err := NewMachine(ts, WithCore(core.New(p)), WithClock(gc), WithModal(auto))
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	return m, p, gc
}

func TestReelTimeline(t *testing.T) {
	tm := &templateTheme(t).Rules.Timing
	cases := []struct {
		reel, events, steps int
		shuffle, stop       time.Duration
	}{
		{0, 18, 16, 240 * time.Millisecond, 900 * time.Millisecond},
		{2, 31, 29, 420 * time.Millisecond, 1600 * time.Millisecond},
	}
	for _, c := range cases {
		evs := reelTimeline(tm, c.reel)
		if len(evs) != c.events {
			t.Fatalf("reel %d: want %d events, got %d", c.reel, c.events, len(evs))
		}
		steps := 0
		for i, ev := range evs {
			if i > 0 && ev.at < evs[i-1].at {
				t.Fatalf("reel %d: events out of order at %d", c.reel, i)
			}
			switch ev.kind {
			case evStep:
				steps++
			case evShuffle:
				if ev.at != c.shuffle {
					t.Fatalf("reel %d: shuffle at %v", c.reel, ev.at)
				}
			}
		}
		if steps != c.steps {
			t.Fatalf("reel %d: want %d steps, got %d", c.reel, c.steps, steps)
		}
		if last := evs[len(evs)-1]; last.kind != evStop || last.at != c.stop {
			t.Fatalf("reel %d: last event %+v", c.reel, last)
		}
	}
}

func TestNewMachineStartsOnStartScreen(t *testing.T) {
	ts := templateTheme(t)
	m, _, _ := newScripted(t, ts)
	s := m.Session()
	if s.Screen != ScreenStart || !s.Money.Equal(money(20)) || s.Stake != 1 {
		t.Fatalf("unexpected initial session: screen=%s money=%s stake=%d", s.Screen, s.Money, s.Stake)
	}
	if len(s.Reels) != 3 || s.Spinner.Value != 1 || s.Trail.Status != board.StatusIdle {
		t.Fatalf("unexpected initial reels/spinner/trail")
	}
	if op := m.Spin(context.Background()); op.Accepted() {
		t.Fatalf("spin accepted on start screen")
	}
	if !m.StartGame() || m.Session().Screen != ScreenSlots {
		t.Fatalf("start game should enter slots")
	}
}

func TestSetStakeClamp(t *testing.T) {
	ts := templateTheme(t)
	m, _, _ := newScripted(t, ts)
	cases := []struct {
		money     float64
		requested int
		want      int
	}{
		{20, 10, 10},
		{20, 4, 3},
		{4, 10, 3},
		{9.5, 10, 5},
		{0.5, 10, 1},
		{20, 0, 1},
	}
	for _, c := range cases {
		slots(t, m, func(s *Session) { s.Money = money(c.money) })
		m.SetStake(c.requested)
		if got := m.Session().Stake; got != c.want {
			t.Fatalf("money=%v requested=%d: want stake %d, got %d", c.money, c.requested, c.want, got)
		}
	}
}

func TestSpinGuards(t *testing.T) {
	ts := templateTheme(t)
	m, _, _ := newScripted(t, ts)
	ctx := context.Background()
	cases := map[string]func(s *Session){
		"stake above money": func(s *Session) { s.Money = money(2); s.Stake = 3 },
		"nudges pending":    func(s *Session) { s.NudgesRemaining = 1 },
		"awaiting hilo": func(s *Session) {
			s.AwaitingHiLoChoice = true
			s.HiLoContext = HiLoLadder
		},
		"backboard": func(s *Session) {
			s.Screen = ScreenBackboard
			s.Trail = board.EnteredTrail()
		},
	}
	for name, edit := range cases {
		slots(t, m, edit)
		if m.CanSpin() {
			t.Fatalf("%s: CanSpin should be false", name)
		}
		op := m.Spin(ctx)
		if op.Accepted() || op.Err() != nil {
			t.Fatalf("%s: spin should be silently ignored", name)
		}
	}
}

func TestSpinPaysMatchedLine(t *testing.T) {
	ts := templateTheme(t)
	m, _, auto := newScripted(t, ts)
	slots(t, m, func(s *Session) {
		s.Reels = fixedReels(ts, []int{3, 4, 5}, [][]int{{}, {}, {}})
	})

	// Float64 固定為 0：擲值落在 rank 1 的區間
	wait(t, m.Spin(context.Background()))

	s := m.Session()
	for i, r := range s.Reels {
		if r.CenterItem() != "reelItem1" {
			t.Fatalf("reel %d stopped on %s", i, r.CenterItem())
		}
	}
	if !s.Money.Equal(money(20)) || s.SpinCount != 1 || s.IsSpinning || s.WinFlashActive {
		t.Fatalf("unexpected session after win: money=%s spins=%d", s.Money, s.SpinCount)
	}
	ls := s.LastSpin
	if !ls.LineWin || ls.MatchedRank != 1 || !ls.Payout.Equal(money(1)) || ls.BonusItemsSeen != 0 {
		t.Fatalf("unexpected last spin %+v", ls)
	}
	if !slices.Contains(auto.Messages(), "£1.00") {
		t.Fatalf("missing win message: %v", auto.Messages())
	}
}

func TestSpinInFlight(t *testing.T) {
	ts := templateTheme(t)
	m, _, gc := newGated(t, ts)
	ctx := context.Background()
	slots(t, m, func(s *Session) {
		s.Reels = fixedReels(ts, []int{3, 4, 5}, [][]int{{}, {}, {}})
	})

	op := m.Spin(ctx)
	if !op.Accepted() {
		t.Fatalf("spin rejected")
	}
	gc.waitEntered(t)

	mid := m.Session()
	if !mid.IsSpinning || !mid.Money.Equal(money(19)) || mid.SpinCount != 0 {
		t.Fatalf("mid spin: spinning=%v money=%s spins=%d", mid.IsSpinning, mid.Money, mid.SpinCount)
	}
	if m.CanSpin() {
		t.Fatalf("CanSpin while spinning")
	}
	if again := m.Spin(ctx); again.Accepted() || again.Err() != nil {
		t.Fatalf("second spin should be silently ignored")
	}
	after := m.Session()
	if !after.Money.Equal(mid.Money) || after.SpinCount != mid.SpinCount || !after.IsSpinning {
		t.Fatalf("second spin changed state: money=%s spins=%d", after.Money, after.SpinCount)
	}

	close(gc.open)
	wait(t, op)
	s := m.Session()
	if s.IsSpinning || !s.Money.Equal(money(20)) || s.SpinCount != 1 {
		t.Fatalf("after spin: spinning=%v money=%s spins=%d", s.IsSpinning, s.Money, s.SpinCount)
	}
	if !s.LastSpin.LineWin || !s.LastSpin.Payout.Equal(money(1)) {
		t.Fatalf("unexpected last spin %+v", s.LastSpin)
	}
}

func TestSpinConsumesHoldTokens(t *testing.T) {
	ts := templateTheme(t)
	m, p, _ := newScripted(t, ts)
	slots(t, m, func(s *Session) {
		s.Reels = fixedReels(ts, []int{0, 1, 2}, [][]int{{}, {}, {}})
		s.HoldTokens = []int{3, 2}
	})
	if !m.ToggleHold(0) {
		t.Fatalf("hold rejected")
	}
	// 未 hold 的兩軸分別停在 strip 第 1、2 格
	p.ints = []int{1, 2}
	wait(t, m.Spin(context.Background()))

	s := m.Session()
	if s.Reels[0].CenterItem() != "reelItem1" {
		t.Fatalf("held reel moved to %s", s.Reels[0].CenterItem())
	}
	// 用掉第一個 token，剩下的再各減一
	if !slices.Equal(s.HoldTokens, []int{1}) {
		t.Fatalf("want tokens [1], got %v", s.HoldTokens)
	}
	if s.HeldCount() != 0 {
		t.Fatalf("holds should be released after a spin")
	}
	if !s.Money.Equal(money(19)) {
		t.Fatalf("want money 19, got %s", s.Money)
	}
}

func TestNudgeLadderRewards(t *testing.T) {
	ts := templateTheme(t)
	cases := []struct {
		name        string
		ladder      int
		nudges      int
		script      []int
		wantLadder  int
		wantNudges  int
		wantTokens  []int
		wantHiLo    bool
		wantMessage string
	}{
		{"hold tile", 6, 1, nil, 7, 0, []int{3}, false, "Bonus ladder reward: +1 hold"},
		{"nudge tile", 17, 1, []int{2}, 18, 3, []int{}, false, "Nudge spinner result: +3 nudges"},
		{"hilo tile", 11, 1, nil, 12, 0, []int{}, true, "Bonus ladder check: choose higher or lower"},
		{"no reward accumulates", 0, 2, nil, 1, 1, []int{}, false, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, p, auto := newScripted(t, ts)
			slots(t, m, func(s *Session) {
				// reel 0 上移一格後，bonus 格 7 新進入窗口
				s.Reels = fixedReels(ts, []int{5, 0, 0}, [][]int{{7}, {}, {}})
				s.BonusLadder = c.ladder
				s.NudgesRemaining = c.nudges
			})
			p.ints = c.script
			wait(t, m.Nudge(context.Background(), 0, reel.Up))

			s := m.Session()
			if s.Reels[0].Index != 6 {
				t.Fatalf("want index 6, got %d", s.Reels[0].Index)
			}
			if s.BonusLadder != c.wantLadder || s.NudgesRemaining != c.wantNudges {
				t.Fatalf("ladder=%d nudges=%d", s.BonusLadder, s.NudgesRemaining)
			}
			if !slices.Equal(s.HoldTokens, c.wantTokens) {
				t.Fatalf("tokens %v", s.HoldTokens)
			}
			if s.AwaitingHiLoChoice != c.wantHiLo {
				t.Fatalf("awaiting hilo %v", s.AwaitingHiLoChoice)
			}
			if c.wantHiLo && s.HiLoContext != HiLoLadder {
				t.Fatalf("want ladder context, got %s", s.HiLoContext)
			}
			if s.LastSpin.BonusItemsSeen != 1 || s.LastSpin.LineWin {
				t.Fatalf("last spin %+v", s.LastSpin)
			}
			if c.wantMessage != "" && !slices.Contains(auto.Messages(), c.wantMessage) {
				t.Fatalf("missing %q in %v", c.wantMessage, auto.Messages())
			}
		})
	}
}

func TestNudgeGuards(t *testing.T) {
	ts := templateTheme(t)
	m, _, _ := newScripted(t, ts)
	ctx := context.Background()
	slots(t, m, func(s *Session) {})
	if op := m.Nudge(ctx, 0, reel.Up); op.Accepted() {
		t.Fatalf("nudge accepted without nudges")
	}
	slots(t, m, func(s *Session) {
		s.NudgesRemaining = 1
		s.HoldTokens = []int{3}
	})
	if !m.ToggleHold(1) {
		t.Fatalf("hold rejected")
	}
	if op := m.Nudge(ctx, 1, reel.Up); op.Accepted() {
		t.Fatalf("nudge accepted on a held reel")
	}
	if op := m.Nudge(ctx, 3, reel.Up); op.Accepted() {
		t.Fatalf("nudge accepted on a missing reel")
	}
	if op := m.Nudge(ctx, 0, reel.Direction(2)); op.Accepted() {
		t.Fatalf("nudge accepted with a bad direction")
	}
}

func TestNudgeSingleFlight(t *testing.T) {
	ts := templateTheme(t)
	m, _, gc := newGated(t, ts)
	ctx := context.Background()
	// reel 0 往下一格就三軸同為 reelItem1，中線時 win flash 停在 gate 上
	slots(t, m, func(s *Session) {
		s.Reels = fixedReels(ts, []int{1, 0, 0}, [][]int{{}, {}, {}})
		s.NudgesRemaining = 3
	})

	op := m.Nudge(ctx, 0, reel.Down)
	if !op.Accepted() {
		t.Fatalf("nudge rejected")
	}
	gc.waitEntered(t)

	if n := m.Session().NudgesRemaining; n != 2 {
		t.Fatalf("nudges after first nudge = %d, want 2", n)
	}
	if again := m.Nudge(ctx, 1, reel.Up); again.Accepted() || again.Err() != nil {
		t.Fatalf("second nudge should be silently ignored")
	}
	mid := m.Session()
	if mid.NudgesRemaining != 2 || mid.Reels[1].Index != 0 {
		t.Fatalf("second nudge changed state: nudges=%d reel1=%d", mid.NudgesRemaining, mid.Reels[1].Index)
	}

	close(gc.open)
	wait(t, op)
	s := m.Session()
	// 中線：剩餘 nudge 重設為本次獲得的 0
	if !s.LastSpin.LineWin || !s.Money.Equal(money(21)) || s.NudgesRemaining != 0 {
		t.Fatalf("after nudge: win=%v money=%s nudges=%d", s.LastSpin.LineWin, s.Money, s.NudgesRemaining)
	}
}

func TestLabPCG32Replays(t *testing.T) {
	cf, ok := core.FactoryByName("pcg32")
	if !ok {
		t.Fatalf("pcg32 factory missing")
	}
	lab, err := New(cf)
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	newMachine := func() *Machine {
		m, err := lab.NewMachineWithSeed("template", 77,
			WithClock(timing.NewInstant()), WithModal(&modal.Auto{Clock: timing.NewInstant()}))
		if err != nil {
			t.Fatalf("new machine: %v", err)
		}
		return m
	}
	a, b := newMachine(), newMachine()
	if _, ok := a.core.PRNG.(*core.PCG32); !ok {
		t.Fatalf("machine core is %T, want *core.PCG32", a.core.PRNG)
	}
	for i := 0; i < 10; i++ {
		step(t, a)
		step(t, b)
	}
	ja, _ := json.Marshal(a.Session())
	jb, _ := json.Marshal(b.Session())
	if string(ja) != string(jb) {
		t.Fatalf("pcg32 machines diverged:\n%s\n%s", ja, jb)
	}
}

func TestLadderHiLo(t *testing.T) {
	ts := templateTheme(t)
	cases := []struct {
		choice    HiLoChoice
		previous  int
		draw      int // IntN 結果，轉盤值為 draw+1
		win       bool
		wantScene Screen
	}{
		{Higher, 1, 4, true, ScreenBackboard},
		{Lower, 1, 4, false, ScreenSlots},
		{Higher, 5, 4, false, ScreenSlots}, // 相等算猜錯
		{Lower, 10, 2, true, ScreenBackboard},
	}
	for _, c := range cases {
		m, p, _ := newScripted(t, ts)
		slots(t, m, func(s *Session) {
			s.AwaitingHiLoChoice = true
			s.HiLoContext = HiLoLadder
			s.Spinner.Value = c.previous
		})
		p.ints = []int{c.draw}
		if !m.CanChooseHiLo() {
			t.Fatalf("CanChooseHiLo should be true")
		}
		wait(t, m.ChooseHiLo(context.Background(), c.choice))

		s := m.Session()
		if s.Screen != c.wantScene || s.AwaitingHiLoChoice || s.HiLoContext != HiLoNone {
			t.Fatalf("%s from %d: screen=%s awaiting=%v", c.choice, c.previous, s.Screen, s.AwaitingHiLoChoice)
		}
		if s.Spinner.Value != c.draw+1 {
			t.Fatalf("spinner shows %d", s.Spinner.Value)
		}
		ls := s.LastSpin
		if ls.HiLoWin == nil || *ls.HiLoWin != c.win || ls.BonusTriggered != c.win || ls.HiLoChoice != c.choice {
			t.Fatalf("last spin %+v", ls)
		}
		if c.win && s.Trail != board.EnteredTrail() {
			t.Fatalf("trail %+v", s.Trail)
		}
	}
}

func TestChooseHiLoRejectsUnknownChoice(t *testing.T) {
	ts := templateTheme(t)
	m, _, _ := newScripted(t, ts)
	slots(t, m, func(s *Session) {
		s.AwaitingHiLoChoice = true
		s.HiLoContext = HiLoLadder
	})
	if op := m.ChooseHiLo(context.Background(), HiLoChoice("same")); op.Accepted() {
		t.Fatalf("unknown choice accepted")
	}
}

func TestBackboardRolls(t *testing.T) {
	ts := boardTheme(t)
	cases := []struct {
		name      string
		from      int
		draw      int
		wantTile  int
		wantMoney float64
		wantExit  bool
		wantMsg   string
	}{
		{"jump then insta win", 1, 1, 15, 30, false, "Tile 3: Jump Forward to tile 15."},
		{"overflow", 15, 9, 12, 20, false, "Rolled 10. Passed tile 20, sent to tile 12."},
		{"end tile", 15, 2, 1, 20, true, "End tile reached. Returning to reels."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, p, auto := newScripted(t, ts)
			slots(t, m, func(s *Session) {
				s.Screen = ScreenBackboard
				s.Stake = 5
				s.Trail = board.Trail{Position: c.from, Status: board.StatusAwaitingRoll}
			})
			p.ints = []int{c.draw}
			if !m.CanRollBackboard() {
				t.Fatalf("CanRollBackboard should be true")
			}
			wait(t, m.RollBackboard(context.Background()))

			s := m.Session()
			if !s.Money.Equal(money(c.wantMoney)) {
				t.Fatalf("want money %v, got %s", c.wantMoney, s.Money)
			}
			if c.wantExit {
				if s.Screen != ScreenSlots || s.Trail != board.InitialTrail() {
					t.Fatalf("should return to slots: %s %+v", s.Screen, s.Trail)
				}
			} else if s.Screen != ScreenBackboard || s.Trail.Position != c.wantTile || s.Trail.Status != board.StatusAwaitingRoll {
				t.Fatalf("trail %+v on %s", s.Trail, s.Screen)
			}
			if !slices.Contains(auto.Messages(), c.wantMsg) {
				t.Fatalf("missing %q in %v", c.wantMsg, auto.Messages())
			}
		})
	}
}

func TestBankruptcy(t *testing.T) {
	ts := templateTheme(t)
	m, _, auto := newScripted(t, ts)
	slots(t, m, func(s *Session) { s.Money = money(5) })
	if op := m.CheckBankruptcy(context.Background()); op.Accepted() {
		t.Fatalf("bankruptcy accepted with money left")
	}

	slots(t, m, func(s *Session) { s.Money = money(0.5) })
	wait(t, m.CheckBankruptcy(context.Background()))

	s := m.Session()
	if s.Screen != ScreenStart || !s.Money.Equal(money(20)) {
		t.Fatalf("want fresh start screen, got %s money=%s", s.Screen, s.Money)
	}
	if _, acks := auto.Counts(); acks != 1 {
		t.Fatalf("want 1 acknowledge, got %d", acks)
	}
}

func TestToggleHoldLimits(t *testing.T) {
	ts := templateTheme(t)
	m, _, _ := newScripted(t, ts)

	slots(t, m, func(s *Session) { s.HoldTokens = []int{3} })
	if !m.ToggleHold(0) || m.ToggleHold(1) {
		t.Fatalf("one token should allow exactly one hold")
	}
	if !m.ToggleHold(0) || m.Session().HeldCount() != 0 {
		t.Fatalf("releasing a hold should always work")
	}
	if m.ToggleHold(-1) || m.ToggleHold(3) {
		t.Fatalf("out of range reel accepted")
	}

	slots(t, m, func(s *Session) {
		s.HoldTokens = []int{3, 3, 3}
		s.NudgesRemaining = 2
	})
	if !m.ToggleHold(0) || !m.ToggleHold(1) || m.ToggleHold(2) {
		t.Fatalf("at most two holds while nudging")
	}

	slots(t, m, func(s *Session) {
		s.HoldTokens = []int{3}
		s.AwaitingHiLoChoice = true
		s.HiLoContext = HiLoLadder
	})
	if m.ToggleHold(0) {
		t.Fatalf("hold accepted while waiting for higher/lower")
	}
}

func TestDebugHelpers(t *testing.T) {
	ts := templateTheme(t)
	m, _, _ := newScripted(t, ts)
	slots(t, m, func(s *Session) {})
	m.DebugAddMoney()
	m.DebugAddHold()
	if m.DebugAddNudges(0) || !m.DebugAddNudges(2) {
		t.Fatalf("DebugAddNudges")
	}
	s := m.Session()
	if !s.Money.Equal(money(30)) || !slices.Equal(s.HoldTokens, []int{3}) || s.NudgesRemaining != 2 {
		t.Fatalf("money=%s tokens=%v nudges=%d", s.Money, s.HoldTokens, s.NudgesRemaining)
	}
}

func TestRestoreValidates(t *testing.T) {
	ts := templateTheme(t)
	m, _, _ := newScripted(t, ts)
	m.StartGame()
	cases := map[string]func(s *Session){
		"theme":       func(s *Session) { s.ThemeID = "other" },
		"screen":      func(s *Session) { s.Screen = "lobby" },
		"stake":       func(s *Session) { s.Stake = 2 },
		"money":       func(s *Session) { s.Money = money(-1) },
		"hilo":        func(s *Session) { s.AwaitingHiLoChoice = true },
		"ladder":      func(s *Session) { s.BonusLadder = 26 },
		"token":       func(s *Session) { s.HoldTokens = []int{4} },
		"reels":       func(s *Session) { s.Reels = s.Reels[:2] },
		"strip":       func(s *Session) { s.Reels[1].Strip[0] = s.Reels[1].Strip[1] },
		"bonus order": func(s *Session) { s.Reels[0].BonusPositions = []int{4, 2} },
		"trail":       func(s *Session) { s.Trail.Position = 51 },
		"spinner":     func(s *Session) { s.Spinner.Value = 11 },
	}
	for name, edit := range cases {
		s := m.Session()
		edit(s)
		if err := m.Restore(s); !errs.IsFatal(err) {
			t.Fatalf("%s: want fatal, got %v", name, err)
		}
	}

	s := m.Session()
	s.IsSpinning = true
	s.WinFlashActive = true
	s.Reels[0].Index = -1
	s.Screen = ScreenBackboard
	s.Trail.Status = board.StatusRolling
	if err := m.Restore(s); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := m.Session()
	if got.IsSpinning || got.WinFlashActive || got.Reels[0].Index != 9 || got.Trail.Status != board.StatusAwaitingRoll {
		t.Fatalf("transient state not normalised: %+v", got)
	}
}

func TestExportLoadReplays(t *testing.T) {
	ts := templateTheme(t)
	newSeeded := func(seed int64) *Machine {
		m, err := NewMachine(ts, WithSeed(seed), WithClock(timing.NewInstant()), WithModal(&modal.Auto{}))
		if err != nil {
			t.Fatalf("new machine: %v", err)
		}
		return m
	}
	a, b := newSeeded(9), newSeeded(123)
	a.StartGame()
	a.SetStake(3)

	raw, err := a.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	zraw, err := a.ExportCompressed()
	if err != nil {
		t.Fatalf("export compressed: %v", err)
	}
	if err := b.Load(zraw); err != nil {
		t.Fatalf("load compressed: %v", err)
	}
	if err := b.Load(raw); err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < 8; i++ {
		step(t, a)
		step(t, b)
	}
	ja, _ := json.Marshal(a.Session())
	jb, _ := json.Marshal(b.Session())
	if string(ja) != string(jb) {
		t.Fatalf("replay diverged:\n%s\n%s", ja, jb)
	}

	for _, bad := range []string{"", "[1,2]", `{"version":1}`, `{"version":2,"session":{}}`, `{"version":1,"session":{},"extra":1}`} {
		if err := b.Load([]byte(bad)); !errs.IsFatal(err) {
			t.Fatalf("load %q: want fatal, got %v", bad, err)
		}
	}
}

// step 依可用的動作推進一步，兩台狀態相同的機台會做出同樣的選擇。
func step(t *testing.T, m *Machine) {
	t.Helper()
	ctx := context.Background()
	s := m.Session()
	switch {
	case m.CanChooseHiLo():
		wait(t, m.ChooseHiLo(ctx, Higher))
	case m.CanRollBackboard():
		wait(t, m.RollBackboard(ctx))
	case s.Screen == ScreenSlots && s.NudgesRemaining > 0:
		wait(t, m.Nudge(ctx, 0, reel.Up))
	case m.CanSpin():
		wait(t, m.Spin(ctx))
	default:
		m.StartGame()
	}
}

func TestRuntimeLifecycle(t *testing.T) {
	lab, err := New(core.Default())
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	if !slices.Contains(lab.IDs(), "template") || !slices.Contains(lab.IDs(), themes.DefaultID) {
		t.Fatalf("ids %v", lab.IDs())
	}
	rt, err := NewRuntime(lab, RuntimeConfig{ThemeID: "template", Seed: 1, Seeded: true, Clock: timing.NewInstant()})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	if rt.Machine().Seed() != 1 || rt.Machine().Theme().ThemeID != "template" {
		t.Fatalf("unexpected machine")
	}
	if err := rt.SwitchTheme("missing"); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("want warn for unknown theme, got %v", err)
	}
	if err := rt.SwitchTheme(themes.DefaultID); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if rt.Machine().Theme().ThemeID != themes.DefaultID {
		t.Fatalf("theme not switched")
	}
	if err := rt.Use(func(m *Machine) error {
		if !m.StartGame() {
			t.Fatalf("start rejected")
		}
		return nil
	}); err != nil {
		t.Fatalf("use: %v", err)
	}
	op, err := rt.Do(func(ctx context.Context, m *Machine) *Op { return m.Spin(ctx) })
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for rt.Board().Current() != nil || !isDone(op) {
		if p := rt.Board().Current(); p != nil {
			_ = rt.Board().Answer(p.ID, false)
		}
		select {
		case <-ctx.Done():
			t.Fatalf("spin did not finish")
		case <-time.After(time.Millisecond):
		}
	}

	rt.Close()
	rt.Close()
	if !rt.Closed() || rt.ClosedReason() != "closed" {
		t.Fatalf("runtime should be closed")
	}
	if _, err := rt.Do(func(ctx context.Context, m *Machine) *Op { return m.Spin(ctx) }); !errs.IsFatal(err) {
		t.Fatalf("want fatal after close, got %v", err)
	}
}

func isDone(op *Op) bool {
	select {
	case <-op.Done():
		return true
	default:
		return false
	}
}

func TestSimulatorDeterministic(t *testing.T) {
	lab, err := New(core.Default())
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	run := func() *Simulator {
		s, err := lab.NewSimulatorWithSeed("template", DefaultStrategy(), 7)
		if err != nil {
			t.Fatalf("simulator: %v", err)
		}
		return s
	}
	ctx := context.Background()
	r1, _, err := run().Sim(ctx, 300, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	r2, _, err := run().Sim(ctx, 300, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	if r1.Summary.Rounds != 300 || r1.Summary.TotalBet < 300 {
		t.Fatalf("summary %+v", r1.Summary)
	}
	if r1.Summary.TotalWin != r2.Summary.TotalWin || r1.Summary.TotalBet != r2.Summary.TotalBet {
		t.Fatalf("same seed produced different reports")
	}

	if _, _, err := run().Sim(ctx, 0, false); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("want warn for zero spins, got %v", err)
	}
	if _, est, _, err := run().SimPlayers(ctx, 2, 4, 50, false); err != nil || est == nil {
		t.Fatalf("sim players: %v", err)
	}
	if _, err := lab.NewSimulatorWithSeed("template", Strategy{YesPercent: 101}, 1); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("want warn for yes percent, got %v", err)
	}
}

// 任意動作序列之後，狀態都必須能通過匯入檢查，且不會卡在忙碌中。
func TestMachineInvariantsProperty(t *testing.T) {
	ts := templateTheme(t)
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		yes := rapid.Bool().Draw(rt, "yes")
		auto := &modal.Auto{YesNo: func(string, string) bool { return yes }}
		m, err := NewMachine(ts, WithSeed(seed), WithClock(timing.NewInstant()), WithModal(auto))
		if err != nil {
			rt.Fatalf("new machine: %v", err)
		}
		m.StartGame()
		ctx := context.Background()
		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			var op *Op
			switch rapid.IntRange(0, 5).Draw(rt, "action") {
			case 0:
				op = m.Spin(ctx)
			case 1:
				d := rapid.SampledFrom([]reel.Direction{reel.Up, reel.Down}).Draw(rt, "dir")
				op = m.Nudge(ctx, rapid.IntRange(0, 2).Draw(rt, "reel"), d)
			case 2:
				op = m.ChooseHiLo(ctx, rapid.SampledFrom([]HiLoChoice{Higher, Lower}).Draw(rt, "choice"))
			case 3:
				op = m.RollBackboard(ctx)
			case 4:
				m.ToggleHold(rapid.IntRange(0, 2).Draw(rt, "hold"))
			case 5:
				m.SetStake(rapid.SampledFrom(ts.Rules.StakeOptions).Draw(rt, "stake"))
			}
			if op != nil {
				if err := op.Wait(ctx); err != nil {
					rt.Fatalf("%s: %v", op.Name(), err)
				}
			}
			if m.Busy() {
				rt.Fatalf("machine busy after op finished")
			}
			s := m.Session()
			if err := m.normaliseSession(s); err != nil {
				rt.Fatalf("invalid session after step %d: %v", i, err)
			}
			if s.Screen == ScreenStart {
				m.StartGame()
			}
		}
	})
}
