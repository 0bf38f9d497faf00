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
	"bytes"
	"encoding/json"
	"slices"

	"github.com/zintix-labs/ladderslot/corefmt"
	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/sdk/board"
	"github.com/zintix-labs/ladderslot/sdk/reel"
)

// maxSessionBytes 匯入快照（解壓後）的大小上限。
const maxSessionBytes = 4 << 20

// SessionFile 匯出/匯入用的快照：一局狀態加上 PRNG 狀態，匯入後從同一點繼續。
type SessionFile struct {
	Version int      `json:"version"`
	Core    string   `json:"core,omitempty"` // PRNG 快照（base64url）
	Session *Session `json:"session"`
}

const sessionFileVersion = 1

// Export 匯出目前狀態（JSON）。
func (m *Machine) Export() ([]byte, error) {
	m.mu.Lock()
	s := m.sessionLocked()
	snap, err := m.core.Snapshot()
	m.mu.Unlock()
	if err != nil {
		return nil, errs.Wrap(err, "snapshot core failed")
	}
	f := SessionFile{Version: sessionFileVersion, Session: s}
	if len(snap) > 0 {
		f.Core = corefmt.EncodeBase64URL(snap)
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, errs.Wrap(err, "marshal session failed")
	}
	return b, nil
}

// ExportCompressed 與 Export 相同，另外包成 zstd frame。
func (m *Machine) ExportCompressed() ([]byte, error) {
	b, err := m.Export()
	if err != nil {
		return nil, err
	}
	return corefmt.CompressZstd(b)
}

// DecodeSession 解析 Export / ExportCompressed 的輸出。
// 內容必須是 JSON 物件且不得有未知欄位，否則回傳 errs.Fatal。
func DecodeSession(data []byte) (*SessionFile, error) {
	if corefmt.IsZstd(data) {
		raw, err := corefmt.DecompressZstd(data, maxSessionBytes)
		if err != nil {
			return nil, errs.Wrap(err, "session snapshot decompress failed")
		}
		data = raw
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, errs.NewFatal("session snapshot must be a JSON object")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	f := new(SessionFile)
	if err := dec.Decode(f); err != nil {
		return nil, errs.Wrap(err, "session snapshot decode failed")
	}
	if f.Session == nil {
		return nil, errs.NewFatal("session snapshot has no session")
	}
	if f.Version != sessionFileVersion {
		return nil, errs.Fatalf("unsupported session snapshot version %d", f.Version)
	}
	return f, nil
}

// Load 匯入快照並取代目前狀態。動作管線執行中時回傳 errs.Warn。
// 金額不足時不會自動觸發破產流程，需要時呼叫 CheckBankruptcy。
func (m *Machine) Load(data []byte) error {
	f, err := DecodeSession(data)
	if err != nil {
		return err
	}
	var snap []byte
	if f.Core != "" {
		if snap, err = corefmt.DecodeBase64URL(f.Core); err != nil {
			return errs.Wrap(err, "session snapshot core decode failed")
		}
	}
	return m.restore(f.Session, snap)
}

// Restore 以 s 取代目前狀態（深拷貝）。s 不合法時回傳 errs.Fatal，動作管線執行中時回傳 errs.Warn。
func (m *Machine) Restore(s *Session) error {
	return m.restore(s, nil)
}

func (m *Machine) restore(s *Session, coreSnap []byte) error {
	if s == nil {
		return errs.NewFatal("session required")
	}
	for i, r := range s.Reels {
		if r == nil {
			return errs.Fatalf("session: reel %d is null", i)
		}
	}
	s = s.Clone()
	if err := m.normaliseSession(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return errs.NewWarn("an action is in flight")
	}
	if len(coreSnap) > 0 {
		if err := m.core.Restore(coreSnap); err != nil {
			return errs.Wrap(err, "restore core failed")
		}
	}
	m.s = s
	m.spinner.Restore(s.Spinner)
	m.log.Info("session restored", "screen", string(s.Screen), "money", s.Money.String())
	return nil
}

// normaliseSession 檢查匯入的狀態並補齊預設值。轉動中、閃爍中等暫態一律清除。
func (m *Machine) normaliseSession(s *Session) error {
	r := m.rules
	if s.ThemeID == "" {
		s.ThemeID = m.theme.ThemeID
	}
	if s.ThemeID != m.theme.ThemeID {
		return errs.Fatalf("session theme %q does not match machine theme %q", s.ThemeID, m.theme.ThemeID)
	}
	switch s.Screen {
	case ScreenStart, ScreenSlots, ScreenBackboard:
	default:
		return errs.Fatalf("session: unknown screen %q", s.Screen)
	}
	switch s.HiLoContext {
	case "":
		s.HiLoContext = HiLoNone
	case HiLoNone, HiLoLadder, HiLoBackboard:
	default:
		return errs.Fatalf("session: unknown hilo context %q", s.HiLoContext)
	}
	if s.AwaitingHiLoChoice == (s.HiLoContext == HiLoNone) {
		return errs.NewFatal("session: awaiting_hilo_choice and hilo_context disagree")
	}
	if s.Money.IsNegative() {
		return errs.NewFatal("session: money must be >= 0")
	}
	if !r.IsStakeOption(s.Stake) {
		return errs.Fatalf("session: stake %d is not an option", s.Stake)
	}
	if s.SpinCount < 0 || s.NudgesRemaining < 0 {
		return errs.NewFatal("session: counters must be >= 0")
	}
	if s.BonusLadder < 0 || s.BonusLadder > r.BonusLadderMax {
		return errs.Fatalf("session: bonus ladder %d outside [0,%d]", s.BonusLadder, r.BonusLadderMax)
	}
	for _, t := range s.HoldTokens {
		if t < 1 || t > r.HoldTokenSpins {
			return errs.Fatalf("session: hold token %d outside [1,%d]", t, r.HoldTokenSpins)
		}
	}
	if s.HoldTokens == nil {
		s.HoldTokens = []int{}
	}
	if err := m.validReels(s.Reels); err != nil {
		return err
	}
	if s.HeldReels == nil {
		s.HeldReels = make([]bool, len(s.Reels))
	}
	if len(s.HeldReels) != len(s.Reels) {
		return errs.Fatalf("session: %d held flags for %d reels", len(s.HeldReels), len(s.Reels))
	}
	if err := m.validTrail(s); err != nil {
		return err
	}
	if s.Spinner.Value == 0 {
		s.Spinner.Value = 1
	}
	if s.Spinner.Value < 1 || s.Spinner.Value > r.DieFaces {
		return errs.Fatalf("session: spinner value %d outside [1,%d]", s.Spinner.Value, r.DieFaces)
	}
	s.IsSpinning = false
	s.WinFlashActive = false
	s.Spinner.IsSpinning = false
	return nil
}

// validReels 每軸 strip 必須是主題圖標的一個排列，bonus 格遞增且不重複。
func (m *Machine) validReels(reels []*reel.Reel) error {
	if len(reels) != m.rules.ReelsCount {
		return errs.Fatalf("session: need %d reels, got %d", m.rules.ReelsCount, len(reels))
	}
	want := m.theme.ItemIDs()
	slices.Sort(want)
	for i, r := range reels {
		if r.ID != i {
			return errs.Fatalf("session: reel %d has id %d", i, r.ID)
		}
		got := slices.Clone(r.Strip)
		slices.Sort(got)
		if !slices.Equal(got, want) {
			return errs.Fatalf("session: reel %d strip is not a permutation of the theme items", i)
		}
		r.Index = reel.Wrap(r.Index, r.Len())
		if r.BonusPositions == nil {
			r.BonusPositions = []int{}
		}
		for j, p := range r.BonusPositions {
			if p < 0 || p >= r.Len() || (j > 0 && r.BonusPositions[j-1] >= p) {
				return errs.Fatalf("session: reel %d has invalid bonus positions %v", i, r.BonusPositions)
			}
		}
	}
	return nil
}

func (m *Machine) validTrail(s *Session) error {
	t := &s.Trail
	bs := &m.theme.Backboard
	if t.Position == 0 {
		t.Position = board.StartTile
	}
	if t.Position < 1 || t.Position > bs.MaxTile {
		return errs.Fatalf("session: trail position %d outside [1,%d]", t.Position, bs.MaxTile)
	}
	switch t.Status {
	case "":
		t.Status = board.StatusIdle
	case board.StatusRolling, board.StatusResolving:
		t.Status = board.StatusAwaitingRoll
	case board.StatusIdle, board.StatusAwaitingRoll, board.StatusAwaitingHiLo:
	default:
		return errs.Fatalf("session: unknown trail status %q", t.Status)
	}
	if s.Screen == ScreenBackboard && t.Status == board.StatusIdle {
		t.Status = board.StatusAwaitingRoll
	}
	return nil
}
