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

package dto

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/sdk/board"
	"github.com/zintix-labs/ladderslot/sdk/reel"
	"github.com/zintix-labs/ladderslot/spec"
)

func TestDecodeActionRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/nudge?reel=2&direction=down&stake=5&count=3&prompt_id=7&yes=true&choice=higher", nil)
	req, err := DecodeActionRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := req.ReelID()
	if err != nil || id != 2 {
		t.Fatalf("unexpected reel: %d %v", id, err)
	}
	d, err := req.NudgeDirection()
	if err != nil || d != reel.Down {
		t.Fatalf("unexpected direction: %v %v", d, err)
	}
	if req.Stake != 5 || req.Count != 3 || req.PromptID != 7 || !req.Yes || req.Choice != "higher" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeActionRequestGETInvalid(t *testing.T) {
	for _, q := range []string{"reel=x", "stake=1.5", "count=a", "prompt_id=-1", "yes=maybe"} {
		r := httptest.NewRequest(http.MethodGet, "/a?"+q, nil)
		_, err := DecodeActionRequest(r)
		if errs.LevelOf(err) != errs.Warn {
			t.Fatalf("%s: expected warn, got %v", q, err)
		}
	}
}

func TestDecodeActionRequestPOST(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/hold", bytes.NewReader([]byte(`{"reel":0}`)))
	req, err := DecodeActionRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id, err := req.ReelID(); err != nil || id != 0 {
		t.Fatalf("reel 0 must be present: %d %v", id, err)
	}

	r = httptest.NewRequest(http.MethodPost, "/spin", nil)
	req, err = DecodeActionRequest(r)
	if err != nil {
		t.Fatalf("empty body must be accepted: %v", err)
	}
	if _, err := req.ReelID(); err == nil {
		t.Fatalf("missing reel must be rejected")
	}
}

func TestDecodeActionRequestRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/hold", bytes.NewReader([]byte(`{"reel":1,"unknown":true}`)))
	if _, err := DecodeActionRequest(r); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	r = httptest.NewRequest(http.MethodPut, "/hold", nil)
	if _, err := DecodeActionRequest(r); err == nil {
		t.Fatalf("expected error for PUT")
	}
}

func TestNudgeDirectionInvalid(t *testing.T) {
	req := &ActionRequest{Direction: "left"}
	if _, err := req.NudgeDirection(); err == nil {
		t.Fatalf("left is not a direction")
	}
}

func TestNewReelView(t *testing.T) {
	r := &reel.Reel{ID: 1, Strip: []string{"a", "b", "c", "d", "e"}, Index: 0, BonusPositions: []int{1, 4}}
	v := NewReelView(r, true)
	if v.Visible != [3]string{"e", "a", "b"} || v.Centre != "a" || !v.Held {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.BonusVisible != [3]bool{true, false, true} {
		t.Fatalf("unexpected bonus flags: %v", v.BonusVisible)
	}
	v.Strip[0] = "z"
	if r.Strip[0] != "a" {
		t.Fatalf("view must not alias the reel strip")
	}
}

func TestNewTrailView(t *testing.T) {
	bs := &spec.DefaultTheme().Backboard
	if v := NewTrailView(bs, board.InitialTrail()); v.Tile != nil {
		t.Fatalf("idle trail must not carry a tile")
	}
	tr := board.EnteredTrail()
	tr.Position = 2
	v := NewTrailView(bs, tr)
	if v.Tile == nil || v.Tile.Tile != 2 {
		t.Fatalf("unexpected tile: %+v", v.Tile)
	}
}

func TestNewLadderView(t *testing.T) {
	r := spec.DefaultRules()
	v := NewLadderView(&r, 9)
	if v.Value != 9 || v.Max != 25 || len(v.HiLoTiles) != 2 {
		t.Fatalf("unexpected ladder view: %+v", v)
	}
}
