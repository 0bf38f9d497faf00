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
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/recorder"
	"github.com/zintix-labs/ladderslot/sdk/calc"
	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/sdk/reel"
	"github.com/zintix-labs/ladderslot/sdk/sampler"
	"github.com/zintix-labs/ladderslot/sdk/timing"
	"github.com/zintix-labs/ladderslot/spec"
	"github.com/zintix-labs/ladderslot/stats"
	"golang.org/x/sync/errgroup"
)

const capPrepare int = 100

// Strategy 自動玩家的決策。
type Strategy struct {
	// StakeWeights 與 Rules.StakeOptions 一一對應的權重；空值時一律押最小選項。
	StakeWeights []int `yaml:"stake_weights" json:"stake_weights"`
	// YesPercent 對話框回答「是」的機率（0~100），用於 cash out 與 pay your way。
	YesPercent int `yaml:"yes_percent" json:"yes_percent"`
	// UseHolds 持有 hold token 時，把中心相同的兩軸 hold 住再轉。
	UseHolds bool `yaml:"use_holds" json:"use_holds"`
}

// DefaultStrategy 押最小注、一半機率接受提議、會使用 hold。
func DefaultStrategy() Strategy {
	return Strategy{YesPercent: 50, UseHolds: true}
}

// Simulator 以自動玩家大量遊玩同一個主題，紀錄 RTP 與 ladder / backboard 統計。
//
// 每位玩家各自一台 Machine（timing.Instant 時鐘、自動對話框），seed 由 seedMaker 依序產生，
// 因此同一個初始 seed 的結果可重現。
type Simulator struct {
	ThemeID   string              // 主題 id
	ThemeName string              // 主題名稱
	ts        *spec.ThemeSetting  // 方便重用建立 Machine
	cf        core.PRNGFactory    // 亂數生成器
	strategy  Strategy            // 自動玩家策略
	stakes    *sampler.AliasTable // 押注選擇；nil 表示押最小選項
	initSeed  int64               // 初始下的種子
	seedmaker *seedMaker          // 種子生成器
	rBuf      []*recorder.Recorder
	sBuf      []*stats.StatReport // 玩家報表(僅Players需要)
}

func newSimulator(ts *spec.ThemeSetting, cf core.PRNGFactory, st Strategy) (*Simulator, error) {
	seed, err := newSeed()
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ts, cf, st, seed)
}

func newSimulatorWithSeed(ts *spec.ThemeSetting, cf core.PRNGFactory, st Strategy, seed int64) (*Simulator, error) {
	if ts == nil || cf == nil {
		return nil, errs.NewFatal("simulator requires theme and core factory")
	}
	if st.YesPercent < 0 || st.YesPercent > 100 {
		return nil, errs.Warnf("yes percent must be in [0,100], got %d", st.YesPercent)
	}
	s := &Simulator{
		ThemeID:   ts.ThemeID,
		ThemeName: ts.Name,
		ts:        ts,
		cf:        cf,
		strategy:  st,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		rBuf:      make([]*recorder.Recorder, 0, capPrepare),
		sBuf:      make([]*stats.StatReport, 0, capPrepare),
	}
	if len(st.StakeWeights) > 0 {
		if len(st.StakeWeights) != len(ts.Rules.StakeOptions) {
			return nil, errs.Warnf("stake weights %v do not match stake options %v", st.StakeWeights, ts.Rules.StakeOptions)
		}
		at, err := sampler.BuildAliasTable(st.StakeWeights)
		if err != nil {
			return nil, errs.Wrap(err, "stake weights")
		}
		s.stakes = at
	}
	return s, nil
}

// Seed 回傳初始 seed。
func (s *Simulator) Seed() int64 { return s.initSeed }

// Sim 單線模擬器：一位不會破產的玩家（錢不夠時補錢）連續玩 spins 回合，回傳統計結果與用時
func (s *Simulator) Sim(ctx context.Context, spins int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if spins < 1 {
		return nil, 0, errs.NewWarn("spins must > 0")
	}
	r, err := s.newRecorder(0)
	if err != nil {
		return nil, 0, err
	}
	bar := pb.StartNew(spins)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	p, err := s.newPlayer(s.initSeed, r, true)
	if err != nil {
		return nil, 0, err
	}
	err = p.play(ctx, spins, func() { bar.Increment() })
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err != nil {
		return nil, used, err
	}
	result := r.Done()
	result.Done()
	return result, used, nil
}

// SimMP 平行執行 mp 位不會破產的玩家，各玩 spins 回合，合併統計結果後回傳統計結果與用時
func (s *Simulator) SimMP(ctx context.Context, spins int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if spins < 1 {
		return nil, 0, errs.NewWarn("spins must > 0")
	}
	players := make([]*autoPlayer, mp)
	for i := range mp {
		r, err := s.newRecorder(0)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
		p, err := s.newPlayer(s.seedmaker.next(), r, true)
		if err != nil {
			return nil, 0, err
		}
		players[i] = p
	}

	bar := pb.StartNew(spins * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range players {
		g.Go(func() error {
			return p.play(gctx, spins, func() { bar.Increment() })
		})
	}
	err := g.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err != nil {
		return nil, used, err
	}

	st, err := recorder.Merge(s.rBuf)
	if err != nil {
		return nil, used, err
	}
	result := st.Done()
	result.Done()
	return result, used, nil
}

// SimPlayers 模擬多個玩家各自帶著起始資金遊玩，直到破產、贏到三倍本金或玩滿 spins 回合，
// 並產出機台報表與玩家報表。
func (s *Simulator) SimPlayers(ctx context.Context, mp int, players int, spins int, showpb bool) (*stats.StatReport, *stats.EstimatorPlayers, time.Duration, error) {
	defer s.reset()
	if players < 1 || spins < 1 || mp < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}
	initMoney := stats.Pence(s.ts.Rules.InitialBankroll())

	// 準備玩家：seed 依序產生，與排程無關
	jobList := make([]simJob, players)
	for i := range players {
		r, err := s.newRecorder(initMoney)
		if err != nil {
			return nil, nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
		jobList[i] = simJob{rec: r, seed: s.seedmaker.next()}
	}
	// 作一個2048大小的緩衝channel 使player依序處理
	jobs := make(chan simJob, 2048)

	bar := pb.StartNew(players)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	g, gctx := errgroup.WithContext(ctx)
	for range mp {
		g.Go(func() error { return s.simWorker(gctx, jobs, spins, bar) })
	}
	// 塞進玩家，開始模擬
	g.Go(func() error {
		defer close(jobs) // 玩家送完關閉通道 通知所有 worker 不會再有新資料
		for _, j := range jobList {
			select {
			case jobs <- j:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	err := g.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err != nil {
		return nil, nil, used, err
	}

	// 機台基準報表
	record, err := recorder.Merge(s.rBuf)
	if err != nil {
		return nil, nil, used, err
	}
	st := record.Done()
	st.Done()

	// 玩家分析報表
	s.sBuf = s.sBuf[:0]
	for _, r := range s.rBuf {
		rep := r.Done()
		rep.Done()
		s.sBuf = append(s.sBuf, rep)
	}
	est := stats.EstimatorPlayerExp(s.sBuf)
	return st, est, used, nil
}

type simJob struct {
	rec  *recorder.Recorder
	seed int64
}

func (s *Simulator) simWorker(ctx context.Context, jobs <-chan simJob, spins int, bar *pb.ProgressBar) error {
	for j := range jobs {
		p, err := s.newPlayer(j.seed, j.rec, false)
		if err != nil {
			return err
		}
		if err := p.play(ctx, spins, nil); err != nil {
			return err
		}
		bar.Increment()
	}
	return nil
}

func (s *Simulator) newRecorder(initMoney int) (*recorder.Recorder, error) {
	return recorder.New(s.ThemeID, s.ThemeName, s.ts.Rules.StakeOptions, initMoney)
}

func (s *Simulator) newPlayer(seed int64, rec *recorder.Recorder, topUp bool) (*autoPlayer, error) {
	c := core.New(s.cf.New(seed))
	p := &autoPlayer{
		strategy: s.strategy,
		stakes:   s.stakes,
		sc:       c.Derive(),
		rec:      rec,
		topUp:    topUp,
		auto:     &modal.Auto{},
	}
	p.auto.YesNo = p.yesNo
	m, err := NewMachine(s.ts, WithCore(c), WithClock(timing.NewInstant()), WithModal(simModal{p.auto}))
	if err != nil {
		return nil, err
	}
	p.m = m
	return p, nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
}

// ============================================================
// ** 自動玩家 **
// ============================================================

// errBust 自動玩家拒絕確認破產，讓 Machine 保留破產當下的狀態。
var errBust = errs.NewLog("auto player bust")

// simModal 自動回答對話框；破產確認回傳 errBust。
type simModal struct {
	*modal.Auto
}

func (sm simModal) Acknowledge(ctx context.Context, title, content string) error {
	if title == BankruptTitle {
		return errBust
	}
	return sm.Auto.Acknowledge(ctx, title, content)
}

// autoPlayer 依 Strategy 操作一台 Machine，並把每個動作的結果交給 Recorder。
//
// 動作一律等到結束才決定下一步，策略用的亂數 sc 因此只會被單一 goroutine 使用。
type autoPlayer struct {
	m        *Machine
	auto     *modal.Auto
	strategy Strategy
	stakes   *sampler.AliasTable
	sc       *core.Core
	rec      *recorder.Recorder
	topUp    bool // 破產時補錢繼續（機台模式）；否則離場（玩家模式）
}

// play 開一局新遊戲，玩到 spins 回合、破產或達到離場條件為止。
func (p *autoPlayer) play(ctx context.Context, spins int, onRound func()) error {
	if !p.m.StartGame() {
		return errs.NewFatal("auto player: start game rejected")
	}
	for rounds := 0; rounds < spins; {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := p.m.Session()
		var (
			leave bool
			err   error
		)
		switch {
		case p.m.CanChooseHiLo():
			err = p.hiLo(ctx, s)
		case p.m.CanRollBackboard():
			leave, err = p.roll(ctx, s)
		case s.Screen == ScreenSlots && s.NudgesRemaining > 0:
			leave, err = p.nudge(ctx, s)
		case p.m.CanSpin():
			leave, err = p.spin(ctx, s)
			rounds++
			if onRound != nil {
				onRound()
			}
		default:
			return errs.Fatalf("auto player stuck: screen=%s money=%s nudges=%d awaiting=%v",
				s.Screen, s.Money.String(), s.NudgesRemaining, s.AwaitingHiLoChoice)
		}
		if errors.Is(err, errBust) {
			if !p.topUp {
				p.rec.RecordBust()
				return nil
			}
			p.m.DebugAddMoney()
			p.rec.RecordTopUp()
			continue
		}
		if err != nil {
			return err
		}
		if leave {
			return nil
		}
	}
	return nil
}

func (p *autoPlayer) do(ctx context.Context, op *Op) error {
	if !op.Accepted() {
		return errs.Fatalf("auto player: %s rejected", op.Name())
	}
	err := op.Wait(ctx)
	p.auto.Reset()
	return err
}

func (p *autoPlayer) spin(ctx context.Context, s *Session) (bool, error) {
	holds := p.hold(s)
	p.m.SetStake(p.pickStake())
	stake := p.m.Session().Stake
	err := p.do(ctx, p.m.Spin(ctx))
	if err != nil && !errors.Is(err, errBust) {
		return false, err
	}
	ls := p.m.Session().LastSpin
	leave := p.rec.RecordSpin(recorder.Spin{
		Stake:         stake,
		Line:          stats.Pence(ls.Payout),
		BonusSeen:     ls.BonusItemsSeen,
		Ladder:        ls.BonusLadderAfterSpin,
		HoldsAwarded:  ls.HoldsAwarded,
		NudgesAwarded: ls.NudgesAwarded,
		HoldsUsed:     holds,
	})
	return leave, err
}

func (p *autoPlayer) nudge(ctx context.Context, s *Session) (bool, error) {
	id, d, ok := p.pickNudge(s)
	if !ok {
		return false, errs.NewFatal("auto player: every reel is held while nudges remain")
	}
	err := p.do(ctx, p.m.Nudge(ctx, id, d))
	if err != nil && !errors.Is(err, errBust) {
		return false, err
	}
	ls := p.m.Session().LastSpin
	leave := p.rec.RecordNudge(recorder.Spin{
		Line:          stats.Pence(ls.Payout),
		BonusSeen:     ls.BonusItemsSeen,
		Ladder:        ls.BonusLadderAfterSpin,
		HoldsAwarded:  ls.HoldsAwarded,
		NudgesAwarded: ls.NudgesAwarded,
	})
	return leave, err
}

func (p *autoPlayer) hiLo(ctx context.Context, s *Session) error {
	choice := Lower
	if 2*s.Spinner.Value < p.m.rules.DieFaces+1 {
		choice = Higher
	}
	err := p.do(ctx, p.m.ChooseHiLo(ctx, choice))
	if err != nil && !errors.Is(err, errBust) {
		return err
	}
	p.rec.RecordHiLo(s.HiLoContext == HiLoBackboard, p.m.Session().Screen == ScreenBackboard)
	return err
}

func (p *autoPlayer) roll(ctx context.Context, s *Session) (bool, error) {
	err := p.do(ctx, p.m.RollBackboard(ctx))
	if err != nil && !errors.Is(err, errBust) {
		return false, err
	}
	after := p.m.Session()
	delta := stats.Pence(after.Money.Sub(s.Money))
	return p.rec.RecordRoll(delta, after.Screen == ScreenSlots), err
}

// hold 持有 token 時，hold 住中心圖標相同的兩軸（token 不足時只 hold 一軸）。回傳 hold 數。
func (p *autoPlayer) hold(s *Session) int {
	if !p.strategy.UseHolds || len(s.HoldTokens) == 0 {
		return 0
	}
	centres := reel.CenterItems(s.Reels)
	for i := range centres {
		for j := i + 1; j < len(centres); j++ {
			if centres[i] != centres[j] {
				continue
			}
			n := 0
			for _, id := range []int{i, j} {
				if p.m.ToggleHold(id) {
					n++
				}
			}
			return n
		}
	}
	return 0
}

func (p *autoPlayer) pickStake() int {
	opts := p.m.rules.StakeOptions
	if p.stakes == nil {
		return opts[0]
	}
	return opts[p.stakes.Pick(p.sc)]
}

// pickNudge 優先選擇能直接連線的 nudge，否則隨機。
func (p *autoPlayer) pickNudge(s *Session) (int, reel.Direction, bool) {
	free := make([]int, 0, len(s.HeldReels))
	for i, h := range s.HeldReels {
		if !h {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return 0, reel.Up, false
	}
	for _, i := range free {
		for _, d := range []reel.Direction{reel.Up, reel.Down} {
			next := reel.CloneAll(s.Reels)
			next[i].Nudge(d)
			if calc.EvaluateLine(p.m.theme, next, s.Stake).Win {
				return i, d, true
			}
		}
	}
	d := reel.Up
	if p.sc.IntN(2) == 1 {
		d = reel.Down
	}
	return free[p.sc.IntN(len(free))], d, true
}

func (p *autoPlayer) yesNo(title, content string) bool {
	return p.sc.IntN(100) < p.strategy.YesPercent
}

// ============================================================
// ** seed 產生器 **
// ============================================================

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 走全週期（不重複）的 LCG，再用可逆 mix63 打散。可併發呼叫。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
