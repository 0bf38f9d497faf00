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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/stats"
)

// Recorder 自動玩家紀錄員
//
// Recorder 以「回合」為單位紀錄：一回合從一次 Spin 開始，包含之後的 nudge 與 backboard，
// 直到下一次 Spin。金額一律以便士（int）紀錄，透過 Done 輸出統計報表。
type Recorder struct {
	ThemeID   string
	ThemeName string
	Stakes    []int
	InitMoney int // 便士；0 表示不追蹤玩家
	Basic     *BasicRecord
	Dist      *DistRecord
	Ladder    *LadderRecord
	Player    *PlayerRecord
	round     roundRecord
}

// BasicRecord 基本遊戲資料紀錄
type BasicRecord struct {
	TotalBet           int
	TotalWin           int
	LineWin            int
	BoardWin           int
	TotalPerPound      int // 每回合「每 £1 押注贏得便士」的總和
	LineWinPerPound    int
	TotalPerPoundSqSum int // 平方和
	LinePerPoundSqSum  int // 平方和
	Trigger            int
	Rounds             int
	Nudges             int
	Rolls              int
	TopUps             int
}

// DistRecord 回合贏倍區間落點統計
type DistRecord struct {
	TotalWinCollect []int
	LineWinCollect  []int
}

// LadderRecord bonus ladder 與 backboard 事件
type LadderRecord struct {
	BonusSeen      int
	HoldsAwarded   int
	NudgesAwarded  int
	HoldsUsed      int
	HiLoGates      int
	HiLoWins       int
	BoardHiLo      int
	BoardHiLoWins  int
	BoardExits     int
	MaxLadderValue int
}

// PlayerRecord 玩家統計
type PlayerRecord struct {
	leaveLine   int
	InitBalance int
	Balance     int
	MaxBalance  int
	MinBalance  int
	Bust        bool
	Cashout     bool
	Alive       bool
}

type roundRecord struct {
	open  bool
	stake int
	line  int
	board int
}

// Spin 一次 spin 或 nudge 的結果（金額為便士）。
type Spin struct {
	Stake         int // nudge 時忽略
	Line          int
	BonusSeen     int
	Ladder        int
	HoldsAwarded  int
	NudgesAwarded int
	HoldsUsed     int
}

func New(themeID, themeName string, stakes []int, initMoney int) (*Recorder, error) {
	r := new(Recorder)
	if len(stakes) == 0 {
		return r, errs.NewFatal(fmt.Sprintf("stakes err %v", stakes))
	}
	for _, v := range stakes {
		if v <= 0 {
			return r, errs.NewFatal(fmt.Sprintf("stakes err %v", stakes))
		}
	}
	if initMoney < 0 {
		return r, errs.NewFatal(fmt.Sprintf("init money must not negative, got: %d", initMoney))
	}
	r.ThemeID = themeID
	r.ThemeName = themeName
	r.Stakes = stakes
	r.InitMoney = initMoney
	r.Basic = new(BasicRecord)
	r.Dist = newDistRecord()
	r.Ladder = new(LadderRecord)
	r.Player = newPlayerRecord(initMoney)
	return r, nil
}

// Merge 合併多個紀錄員的機台層統計；玩家紀錄不合併。
func Merge(rs []*Recorder) (*Recorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge recorder err : empty input")
	}
	r0 := rs[0]
	out, err := New(r0.ThemeID, r0.ThemeName, r0.Stakes, r0.InitMoney)
	if err != nil {
		return out, err
	}
	for _, v := range rs {
		if v.ThemeID != r0.ThemeID {
			return out, errs.NewFatal("merge recorder err : different theme")
		}
		if len(v.Stakes) != len(r0.Stakes) {
			return out, errs.NewFatal("merge recorder err : different stakes")
		}
		for i, s := range v.Stakes {
			if s != r0.Stakes[i] {
				return out, errs.NewFatal("merge recorder err : different stakes")
			}
		}
		v.closeRound()

		b := out.Basic
		b.TotalBet += v.Basic.TotalBet
		b.TotalWin += v.Basic.TotalWin
		b.LineWin += v.Basic.LineWin
		b.BoardWin += v.Basic.BoardWin
		b.TotalPerPound += v.Basic.TotalPerPound
		b.LineWinPerPound += v.Basic.LineWinPerPound
		b.TotalPerPoundSqSum += v.Basic.TotalPerPoundSqSum
		b.LinePerPoundSqSum += v.Basic.LinePerPoundSqSum
		b.Trigger += v.Basic.Trigger
		b.Rounds += v.Basic.Rounds
		b.Nudges += v.Basic.Nudges
		b.Rolls += v.Basic.Rolls
		b.TopUps += v.Basic.TopUps

		l := out.Ladder
		l.BonusSeen += v.Ladder.BonusSeen
		l.HoldsAwarded += v.Ladder.HoldsAwarded
		l.NudgesAwarded += v.Ladder.NudgesAwarded
		l.HoldsUsed += v.Ladder.HoldsUsed
		l.HiLoGates += v.Ladder.HiLoGates
		l.HiLoWins += v.Ladder.HiLoWins
		l.BoardHiLo += v.Ladder.BoardHiLo
		l.BoardHiLoWins += v.Ladder.BoardHiLoWins
		l.BoardExits += v.Ladder.BoardExits
		l.MaxLadderValue = max(l.MaxLadderValue, v.Ladder.MaxLadderValue)

		// 整合Dist
		for i := range len(v.Dist.TotalWinCollect) {
			out.Dist.TotalWinCollect[i] += v.Dist.TotalWinCollect[i]
			out.Dist.LineWinCollect[i] += v.Dist.LineWinCollect[i]
		}
	}
	return out, nil
}

// RecordSpin 開始新的一回合並紀錄 spin。回傳玩家是否達到離場條件。
func (r *Recorder) RecordSpin(s Spin) bool {
	r.closeRound()
	r.round = roundRecord{open: true, stake: s.Stake}
	bet := s.Stake * 100
	r.Basic.TotalBet += bet
	r.Basic.Rounds++
	r.Ladder.HoldsUsed += s.HoldsUsed
	r.recordLine(s)
	return r.recordPlayer(s.Line - bet)
}

// RecordNudge 把 nudge 的結果計入目前回合。
func (r *Recorder) RecordNudge(s Spin) bool {
	r.Basic.Nudges++
	r.recordLine(s)
	return r.recordPlayer(s.Line)
}

// RecordHiLo 紀錄 higher/lower 的結果；onBoard 為 backboard 上的關卡。
func (r *Recorder) RecordHiLo(onBoard, win bool) {
	l := r.Ladder
	if onBoard {
		l.BoardHiLo++
		if win {
			l.BoardHiLoWins++
		} else {
			l.BoardExits++
		}
		return
	}
	l.HiLoGates++
	if win {
		l.HiLoWins++
		r.Basic.Trigger++
	}
}

// RecordRoll 紀錄一次 backboard 擲骰；delta 為金額變化（可為負），exited 表示回到轉輪。
func (r *Recorder) RecordRoll(delta int, exited bool) bool {
	r.Basic.Rolls++
	r.Basic.BoardWin += delta
	r.Basic.TotalWin += delta
	r.round.board += delta
	if exited {
		r.Ladder.BoardExits++
	}
	return r.recordPlayer(delta)
}

// RecordTopUp 紀錄一次補錢（不計入輸贏）。
func (r *Recorder) RecordTopUp() {
	r.Basic.TopUps++
}

// RecordBust 玩家破產離場。
func (r *Recorder) RecordBust() {
	r.Player.Bust = true
}

func (r *Recorder) Done() *stats.StatReport {
	r.closeRound()
	rounds := r.Basic.Rounds
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			ThemeID:     r.ThemeID,
			ThemeName:   r.ThemeName,
			Stakes:      r.Stakes,
			TotalBet:    r.Basic.TotalBet,
			TotalWin:    r.Basic.TotalWin,
			LineWin:     r.Basic.LineWin,
			BoardWin:    r.Basic.BoardWin,
			Trigger:     r.Basic.Trigger,
			TriggerRate: ratio(r.Basic.Trigger, rounds),
			NoWinRounds: r.Dist.TotalWinCollect[0],
			HitRate:     1.0 - ratio(r.Dist.TotalWinCollect[0], rounds),
			Rounds:      rounds,
			Nudges:      r.Basic.Nudges,
			Rolls:       r.Basic.Rolls,
			TopUps:      r.Basic.TopUps,
		},
		Mult: &stats.MultReport{
			TotalWinMult:      float64(r.Basic.TotalPerPound) / 100,
			LineWinMult:       float64(r.Basic.LineWinPerPound) / 100,
			TotalWinMultSqSum: float64(r.Basic.TotalPerPoundSqSum) / 10000,
			LineWinMultSqSum:  float64(r.Basic.LinePerPoundSqSum) / 10000,
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.WinBucketStr(),
			TotalWinCollect: r.Dist.TotalWinCollect,
			LineWinCollect:  r.Dist.LineWinCollect,
		},
		Ladder: &stats.LadderReport{
			BonusSeen:      r.Ladder.BonusSeen,
			HoldsAwarded:   r.Ladder.HoldsAwarded,
			NudgesAwarded:  r.Ladder.NudgesAwarded,
			HoldsUsed:      r.Ladder.HoldsUsed,
			HiLoGates:      r.Ladder.HiLoGates,
			HiLoWins:       r.Ladder.HiLoWins,
			BoardHiLo:      r.Ladder.BoardHiLo,
			BoardHiLoWins:  r.Ladder.BoardHiLoWins,
			BoardExits:     r.Ladder.BoardExits,
			MaxLadderValue: r.Ladder.MaxLadderValue,
		},
		Player: &stats.PlayerReport{
			InitBalance: r.Player.InitBalance,
			Balance:     r.Player.Balance,
			MaxBalance:  r.Player.MaxBalance,
			MinBalance:  r.Player.MinBalance,
			Bust:        r.Player.Bust,
			Cashout:     r.Player.Cashout,
			Alive:       r.Player.Alive,
		},
	}

	length := len(report.Dist.WinBucket)
	totalWinF := make([]float64, length)
	lineWinF := make([]float64, length)
	for i := range length {
		totalWinF[i] = ratio(report.Dist.TotalWinCollect[i], rounds)
		lineWinF[i] = ratio(report.Dist.LineWinCollect[i], rounds)
	}
	report.Dist.TotalWinDist = totalWinF
	report.Dist.LineWinDist = lineWinF
	return report
}

func (r *Recorder) recordLine(s Spin) {
	r.Basic.LineWin += s.Line
	r.Basic.TotalWin += s.Line
	r.round.line += s.Line

	l := r.Ladder
	l.BonusSeen += s.BonusSeen
	l.HoldsAwarded += s.HoldsAwarded
	l.NudgesAwarded += s.NudgesAwarded
	l.MaxLadderValue = max(l.MaxLadderValue, s.Ladder)
}

// closeRound 結算進行中的回合：以回合押注換算每 £1 贏分後計入分桶與平方和。
func (r *Recorder) closeRound() {
	rd := r.round
	if !rd.open || rd.stake <= 0 {
		return
	}
	r.round = roundRecord{}
	total := (rd.line + rd.board) / rd.stake
	line := rd.line / rd.stake

	b := r.Basic
	b.TotalPerPound += total
	b.LineWinPerPound += line
	b.TotalPerPoundSqSum += total * total
	b.LinePerPoundSqSum += line * line

	r.Dist.TotalWinCollect[stats.Buckets.Index(total)]++
	r.Dist.LineWinCollect[stats.Buckets.Index(line)]++
}

func (r *Recorder) recordPlayer(delta int) bool {
	p := r.Player
	if r.InitMoney == 0 {
		return false
	}
	p.Balance += delta
	if p.Balance > p.MaxBalance {
		p.MaxBalance = p.Balance
	}
	if p.Balance < p.MinBalance {
		p.MinBalance = p.Balance
	}
	if p.Balance >= p.leaveLine {
		p.Cashout = true
		return true
	}
	return false
}

func ratio(k, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(k) / float64(n)
}

func newDistRecord() *DistRecord {
	return &DistRecord{
		TotalWinCollect: make([]int, stats.Buckets.Len()),
		LineWinCollect:  make([]int, stats.Buckets.Len()),
	}
}

func newPlayerRecord(initMoney int) *PlayerRecord {
	return &PlayerRecord{
		InitBalance: initMoney,
		Balance:     initMoney,
		MaxBalance:  initMoney,
		MinBalance:  initMoney,
		leaveLine:   3 * initMoney, // 設定離場條件(3倍本金)
	}
}
