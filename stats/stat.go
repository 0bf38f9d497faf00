package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport 模擬統計報告
//
// 金額欄位一律以便士（pence）記錄，避免模擬過程中做 decimal 運算。
type StatReport struct {
	Summary *SummaryReport `json:"Summary"`
	Mult    *MultReport    `json:"Mult"`
	Dist    *DistReport    `json:"Dist"`
	Ladder  *LadderReport  `json:"Ladder"`
	Player  *PlayerReport  `json:"Player,omitzero"`
	isDone  bool
}

type SummaryReport struct {
	ThemeID     string  `json:"ThemeID"`
	ThemeName   string  `json:"ThemeName"`
	Stakes      []int   `json:"Stakes"`
	TotalBet    int     `json:"TotalBet"`
	TotalWin    int     `json:"TotalWin"`
	LineWin     int     `json:"LineWin"`
	BoardWin    int     `json:"BoardWin"` // backboard 淨收入，可能為負
	RTP         float64 `json:"RTP"`
	RtpCI       CI      `json:"RtpCI"`
	Std         float64 `json:"Std"`
	Cv          float64 `json:"Cv"`
	Trigger     int     `json:"Trigger"` // 進入 backboard 次數
	TriggerRate float64 `json:"TriggerRate"`
	NoWinRounds int     `json:"NoWinRounds"`
	HitRate     float64 `json:"HitRate"`
	Rounds      int     `json:"Rounds"`
	Nudges      int     `json:"Nudges"`
	Rolls       int     `json:"Rolls"`
	TopUps      int     `json:"TopUps"`
}

// MultReport 贏倍統計（每 £1 押注）
//
// 紀錄時不紀錄，避免轉型成本。紀錄完成後Done()會將結果整理填入
type MultReport struct {
	TotalWinMult      float64 `json:"TotalWinMult"`
	LineWinMult       float64 `json:"LineWinMult"`
	TotalWinMultSqSum float64 `json:"TotalWinMultSqSum"` // 平方和
	LineWinMultSqSum  float64 `json:"LineWinMultSqSum"`  // 平方和
}

// DistReport 回合贏倍區間落點統計
type DistReport struct {
	WinBucket       []string  `json:"WinBucket"`
	TotalWinCollect []int     `json:"TotalWinCollect"`
	LineWinCollect  []int     `json:"LineWinCollect"`
	TotalWinDist    []float64 `json:"TotalWinDist"`
	LineWinDist     []float64 `json:"LineWinDist"`
}

// LadderReport bonus ladder 與 backboard 的事件統計
type LadderReport struct {
	BonusSeen      int     `json:"BonusSeen"`
	BonusPerRound  float64 `json:"BonusPerRound"`
	HoldsAwarded   int     `json:"HoldsAwarded"`
	NudgesAwarded  int     `json:"NudgesAwarded"`
	HiLoGates      int     `json:"HiLoGates"`
	HiLoWins       int     `json:"HiLoWins"`
	HiLoWinRate    float64 `json:"HiLoWinRate"`
	BoardHiLo      int     `json:"BoardHiLo"`
	BoardHiLoWins  int     `json:"BoardHiLoWins"`
	BoardExits     int     `json:"BoardExits"`
	RollsPerVisit  float64 `json:"RollsPerVisit"`
	HoldsUsed      int     `json:"HoldsUsed"`
	MaxLadderValue int     `json:"MaxLadderValue"`
}

// PlayerReport 玩家統計
//
// 需使用PlayerRecord 才會統計
type PlayerReport struct {
	InitBalance int  `json:"InitBalance"`
	Balance     int  `json:"Balance"`
	MaxBalance  int  `json:"MaxBalance"`
	MinBalance  int  `json:"MinBalance"`
	Bust        bool `json:"Bust"`
	Cashout     bool `json:"Cashout"`
	Alive       bool `json:"Alive"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Pence 將金額換算為便士（四捨五入）。
func Pence(d decimal.Decimal) int {
	return int(d.Shift(2).Round(0).IntPart())
}

// Money 將便士格式化為 "£1,234.50"。
func Money(pence int) string {
	p := message.NewPrinter(lang)
	return p.Sprintf("£%.2f", decimal.New(int64(pence), -2).InexactFloat64())
}

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 所有模擬過程因為性能原因只處理int的紀錄，所以統計完成後
//
// 請使用 Done 來通知 StatReport 統計已經完成，可以一次性計算統計結果
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	// Summary
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()

	// Ladder
	if s.Ladder != nil {
		if s.Summary.Rounds > 0 {
			s.Ladder.BonusPerRound = float64(s.Ladder.BonusSeen) / float64(s.Summary.Rounds)
		}
		if s.Ladder.HiLoGates > 0 {
			s.Ladder.HiLoWinRate = float64(s.Ladder.HiLoWins) / float64(s.Ladder.HiLoGates)
		}
		if s.Summary.Trigger > 0 {
			s.Ladder.RollsPerVisit = float64(s.Summary.Rolls) / float64(s.Summary.Trigger)
		}
	}

	// Player
	if s.Player != nil {
		s.Player.Alive = !(s.Player.Bust || s.Player.Cashout)
	}

	s.isDone = true
}

// Rtp 回傳整體 RTP（總贏分 / 總押注）
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 || s.Summary.TotalBet == 0 {
		return 0
	}
	return (float64(s.Summary.TotalWin) / float64(s.Summary.TotalBet))
}

// Std 回傳單回合贏倍的標準差（以每 £1 押注為基礎）
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)

	winMultPow := s.Mult.TotalWinMult * s.Mult.TotalWinMult
	variance := (s.Mult.TotalWinMultSqSum - winMultPow/rounds) / (rounds - 1)

	if variance < 0 {
		variance = 0
	}

	std := math.Sqrt(variance)
	return std
}

// Cv 回傳單回合贏倍的變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	std := s.Std()
	if rtp <= 0 {
		return 0
	}
	return (std / rtp)
}

// Ci 回傳(95% Rtp)信賴區間
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	std := s.Std()
	rtpSe := float64(0)
	if s.Summary.Rounds > 1 {
		rtpSe = std / math.Sqrt(float64(s.Summary.Rounds))
	}
	ci := CI{
		Lo: max(rtp-1.96*rtpSe, 0.0),
		Hi: rtp + 1.96*rtpSe,
	}
	return ci
}

// Render 結算後以 r 輸出整份報告。
func (s *StatReport) Render(w io.Writer, r Renderer) error {
	s.Done()
	return r.Render(w, s)
}

// StdOut 以表格輸出摘要與 ladder 統計。
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	formatDuration(ut, s.Summary.Rounds)
	sk, sm := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.ThemeName, sk, sm))
	if s.Ladder != nil {
		lk, lm := s.fmtLadder()
		fmt.Println(fmtTable("Bonus Ladder & Backboard", lk, lm))
	}
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, spins int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	sps := int(float64(spins) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nsps : %d spins/sec\n", sec, sps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\nsps : %d spins/sec\n", m, s, sps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nsps : %d spins/sec\n", h, m, s, sps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Theme":         p.Sprintf("%s", s.Summary.ThemeName),
		"Theme ID":      s.Summary.ThemeID,
		"Stakes":        fmt.Sprint(s.Summary.Stakes),
		"Total Rounds":  p.Sprintf("%d", s.Summary.Rounds),
		"Total RTP":     p.Sprintf("%.2f %%", 100.0*s.Summary.RTP),
		"RTP 95% CI":    p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.RtpCI.Lo, 100.0*s.Summary.RtpCI.Hi),
		"Total Bet":     Money(s.Summary.TotalBet),
		"Total Win":     Money(s.Summary.TotalWin),
		"Line Win":      Money(s.Summary.LineWin),
		"Board Win":     Money(s.Summary.BoardWin),
		"NoWin Rounds":  p.Sprintf("%d", s.Summary.NoWinRounds),
		"Hit Rate":      p.Sprintf("%.2f %%", 100.0*s.Summary.HitRate),
		"Board Entries": p.Sprintf("%d", s.Summary.Trigger),
		"Nudges":        p.Sprintf("%d", s.Summary.Nudges),
		"Board Rolls":   p.Sprintf("%d", s.Summary.Rolls),
		"Top Ups":       p.Sprintf("%d", s.Summary.TopUps),
		"STD":           p.Sprintf("%.3f", s.Summary.Std),
		"CV":            p.Sprintf("%.3f", s.Summary.Cv),
	}
	keys := []string{"Theme", "Theme ID", "Stakes", "Total Rounds", "Total RTP", "RTP 95% CI", "Total Bet", "Total Win", "Line Win", "Board Win", "NoWin Rounds", "Hit Rate", "Board Entries", "Nudges", "Board Rolls", "Top Ups", "STD", "CV"}
	return keys, basic
}

func (s *StatReport) fmtLadder() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	l := s.Ladder
	msg := map[string]string{
		"Bonus Seen":        p.Sprintf("%d", l.BonusSeen),
		"Bonus / Round":     p.Sprintf("%.4f", l.BonusPerRound),
		"Holds Awarded":     p.Sprintf("%d", l.HoldsAwarded),
		"Holds Used":        p.Sprintf("%d", l.HoldsUsed),
		"Nudges Awarded":    p.Sprintf("%d", l.NudgesAwarded),
		"Ladder Hi-Lo":      p.Sprintf("%d", l.HiLoGates),
		"Ladder Hi-Lo Wins": p.Sprintf("%d (%.2f %%)", l.HiLoWins, 100.0*l.HiLoWinRate),
		"Board Hi-Lo":       p.Sprintf("%d", l.BoardHiLo),
		"Board Hi-Lo Wins":  p.Sprintf("%d", l.BoardHiLoWins),
		"Board Exits":       p.Sprintf("%d", l.BoardExits),
		"Rolls / Visit":     p.Sprintf("%.2f", l.RollsPerVisit),
		"Max Ladder":        p.Sprintf("%d", l.MaxLadderValue),
	}
	keys := []string{"Bonus Seen", "Bonus / Round", "Holds Awarded", "Holds Used", "Nudges Awarded", "Ladder Hi-Lo", "Ladder Hi-Lo Wins", "Board Hi-Lo", "Board Hi-Lo Wins", "Board Exits", "Rolls / Visit", "Max Ladder"}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
