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

// Package themes 內嵌預設主題設定，並提供以它們建立 catalog 的捷徑。
package themes

import (
	"embed"
	"io/fs"

	"github.com/zintix-labs/ladderslot/catalog"
	"github.com/zintix-labs/ladderslot/spec"
)

// DefaultID 預設使用的主題。
const DefaultID = "font-awesome"

// FS provides embedded default theme YAMLs for external usage.
//
//go:embed *.yaml
var FS embed.FS

// New 以內嵌主題加上額外的設定來源建立 catalog。
func New(extra ...fs.FS) (*catalog.Catalog, error) {
	return catalog.New(append([]fs.FS{FS}, extra...)...)
}

// Default 回傳內嵌的預設主題。內嵌檔案在測試中驗證過，解析失敗代表建置本身有問題。
func Default() *spec.ThemeSetting {
	c, err := New()
	if err != nil {
		panic(err)
	}
	ts, err := c.Theme(DefaultID)
	if err != nil {
		panic(err)
	}
	return ts
}
