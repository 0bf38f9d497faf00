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

// Package ladderslot 提供可換主題的拉霸小遊戲：狀態機、賠付引擎與模擬器的組裝入口。
//
// Lab 把兩個必需的地基組裝在一起，並提供建立 Machine / Simulator 的入口：
//  1. Catalog：主題目錄，內嵌的預設主題加上任意 fs.FS 來源（YAML / JSON）。
//  2. PRNGFactory：亂數核心工廠，同一個 seed 一定得到同一串結果（可重現、可審計）。
//
// Lab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//
// 典型使用情境：
//   - 本機服務（HTTP）：由 Lab 建立 Machine，server 把動作入口暴露成 API。
//   - 模擬器（sim）：由 Lab 建立 Simulator，以自動玩家大量遊玩同一個主題。
//
// 注意：Machine 是單人、記憶體內的一局遊戲，不是多人服務。
package ladderslot

import (
	"io/fs"

	"github.com/zintix-labs/ladderslot/catalog"
	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/spec"
	"github.com/zintix-labs/ladderslot/themes"
)

// Lab 是「組裝器（assembler）」：持有主題目錄與亂數工廠。建立後即為唯讀，可併發使用。
type Lab struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
}

// New 建立一個 Lab：內嵌主題一定會載入，extra 為額外的設定來源。
//
// 任何一個設定檔不合法或主題 id 重複都會直接失敗，不會等到執行期才爆。
func New(cf core.PRNGFactory, extra ...fs.FS) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	cat, err := themes.New(extra...)
	if err != nil {
		return nil, err
	}
	return &Lab{cat: cat, cf: cf}, nil
}

// Catalog 回傳主題目錄。
func (l *Lab) Catalog() *catalog.Catalog { return l.cat }

// IDs 回傳所有主題 id（字母順序）。
func (l *Lab) IDs() []string { return l.cat.IDs() }

// Summaries 回傳所有主題摘要。
func (l *Lab) Summaries() []catalog.Summary { return l.cat.All() }

// Theme 依 id 取得主題；不存在時回傳 errs.Warn。
func (l *Lab) Theme(id string) (*spec.ThemeSetting, error) {
	return l.cat.Theme(id)
}

// NewMachine 以 crypto seed 建立機台。opts 可覆寫亂數核心（WithSeed / WithCore）。
func (l *Lab) NewMachine(id string, opts ...Option) (*Machine, error) {
	seed, err := newSeed()
	if err != nil {
		return nil, err
	}
	return l.NewMachineWithSeed(id, seed, opts...)
}

// NewMachineWithSeed 以 Lab 的亂數工廠與指定 seed 建立機台。
func (l *Lab) NewMachineWithSeed(id string, seed int64, opts ...Option) (*Machine, error) {
	ts, err := l.cat.Theme(id)
	if err != nil {
		return nil, err
	}
	all := make([]Option, 0, len(opts)+1)
	all = append(all, withFactory(l.cf, seed))
	all = append(all, opts...)
	return NewMachine(ts, all...)
}

// NewSimulator 以 crypto seed 建立模擬器。
func (l *Lab) NewSimulator(id string, st Strategy) (*Simulator, error) {
	ts, err := l.cat.Theme(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(ts, l.cf, st)
}

// NewSimulatorWithSeed 以指定 seed 建立模擬器，結果可重現。
func (l *Lab) NewSimulatorWithSeed(id string, st Strategy, seed int64) (*Simulator, error) {
	ts, err := l.cat.Theme(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ts, l.cf, st, seed)
}

func withFactory(cf core.PRNGFactory, seed int64) Option {
	return func(m *Machine) {
		m.core = core.New(cf.New(seed))
		m.seed, m.seeded = seed, true
	}
}
