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

package themes

import (
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/ladderslot/spec"
)

func TestEmbeddedThemesLoad(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("embedded themes: %v", err)
	}
	ids := c.IDs()
	if len(ids) != 2 || ids[0] != DefaultID || ids[1] != "template" {
		t.Fatalf("ids %v", ids)
	}
}

func TestDefaultThemeBoard(t *testing.T) {
	ts := Default()
	if ts.Name != "FontAwesome" {
		t.Fatalf("name %s", ts.Name)
	}
	b := ts.Backboard
	if b.MaxTile != 50 || b.OverflowTargetTile != 35 || len(b.Tiles) != 50 {
		t.Fatalf("board %d/%d/%d", b.MaxTile, b.OverflowTargetTile, len(b.Tiles))
	}
	if b.TileAt(50).Effect != spec.EffectJackpot || b.TileAt(50).Multiplier != 250 {
		t.Fatalf("tile 50 should be the jackpot")
	}
	if t3 := b.TileAt(3); t3.Effect != spec.EffectJump || t3.JumpTo != 15 {
		t.Fatalf("tile 3 should jump to 15: %+v", t3)
	}
	if ts.Item("reelItem1").Name != "Apple" {
		t.Fatalf("reel item names")
	}
}

func TestExtraThemeSource(t *testing.T) {
	extra := fstest.MapFS{"mine.yaml": &fstest.MapFile{Data: []byte("theme_id: mine\nname: Mine\n")}}
	c, err := New(extra)
	if err != nil {
		t.Fatalf("extra: %v", err)
	}
	if _, err := c.Theme("mine"); err != nil {
		t.Fatalf("extra theme missing: %v", err)
	}
}
