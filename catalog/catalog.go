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

// Package catalog 索引一或多個扁平的設定 fs.FS，解析其中所有主題並以 theme_id 查詢。
package catalog

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/spec"
)

var (
	ErrDupID = errs.NewFatal("duplicate theme id")
)

// Summary 是對外列出主題時的摘要。
type Summary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	File      string  `json:"file"`
	ReelItems int     `json:"reel_items"`
	WinRate   float64 `json:"win_rate"`
	MaxTile   int     `json:"max_tile"`
}

type entry struct {
	file  string
	theme *spec.ThemeSetting
}

type Catalog struct {
	byID map[string]entry
	ids  []string // 用來穩定排序
}

// New 建立 catalog 並立即解析所有設定檔；任何一檔不合法都會直接失敗。
func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	c := &Catalog{
		byID: map[string]entry{},
		ids:  make([]string, 0, len(multFS.index)),
	}
	for _, name := range multFS.names() {
		src, _ := multFS.GetFS(name)
		raw, err := fs.ReadFile(src, name)
		if err != nil {
			return nil, errs.WrapWithExtra(err, "catalog read file error", name)
		}
		ts, err := parseThemeSettingByExt(name, raw)
		if err != nil {
			return nil, errs.WrapWithExtra(err, "catalog parse file error", name)
		}
		id := normaliseID(ts.ThemeID)
		if id == "" {
			id = normaliseID(strings.TrimSuffix(name, filepath.Ext(name)))
		}
		if _, ok := c.byID[id]; ok {
			return nil, errs.WrapWithExtra(ErrDupID, "catalog register", id)
		}
		c.byID[id] = entry{file: name, theme: ts}
		c.ids = append(c.ids, id)
	}
	if len(c.ids) == 0 {
		return nil, errs.NewFatal("catalog: no theme config found")
	}
	sort.Strings(c.ids)
	return c, nil
}

// Theme 依 id（不分大小寫）回傳主題；不存在時回傳 errs.Warn。
func (c *Catalog) Theme(id string) (*spec.ThemeSetting, error) {
	e, ok := c.byID[normaliseID(id)]
	if !ok {
		return nil, errs.Warnf("theme %q does not exist in catalog", id)
	}
	return e.theme, nil
}

// IDs 依字母順序回傳所有主題 id。
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// All 依 IDs 的順序回傳摘要。
func (c *Catalog) All() []Summary {
	out := make([]Summary, 0, len(c.ids))
	for _, id := range c.ids {
		e := c.byID[id]
		out = append(out, Summary{
			ID:        id,
			Name:      e.theme.Name,
			File:      e.file,
			ReelItems: len(e.theme.ReelItems),
			WinRate:   e.theme.TotalWinRate(),
			MaxTile:   e.theme.Backboard.MaxTile,
		})
	}
	return out
}

func normaliseID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func parseThemeSettingByExt(filename string, raw []byte) (*spec.ThemeSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetThemeSettingByYAML(raw)
	case ".json":
		return spec.GetThemeSettingByJSON(raw)
	default:
		return nil, errs.Fatalf("unsupported config format: %q", filename)
	}
}

func isConfigFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json")
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.Fatalf("fs[%d] is nil", i)
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 16),
	}

	// 建立索引並檢查重複檔名
	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 設定目錄必須是扁平的，只允許根目錄
				if path == "." {
					return nil
				}
				return errs.Fatalf("config FS must be flat (no subdirectories): %q", path)
			}
			if strings.HasPrefix(path, ".") || !isConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.Fatalf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i)
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}

// names 依字母順序回傳所有已索引的檔名。
func (m *multiFS) names() []string {
	out := make([]string, 0, len(m.index))
	for name := range m.index {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
