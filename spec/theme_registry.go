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

package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/zintix-labs/ladderslot/errs"
	"gopkg.in/yaml.v3"
)

// GetThemeSettingByYAML
// 會讀取 yaml 主題設定、補齊預設值並執行基本檢查後回傳。
// 解碼為嚴格模式：多寫或拼錯欄位直接報錯。
func GetThemeSettingByYAML(data []byte) (*ThemeSetting, error) {
	ts := &ThemeSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(ts); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Wrap(err, "failed to unmarshal theme yaml")
	}

	if err := ts.init(); err != nil {
		return nil, errs.Wrap(err, "theme setting initialized err")
	}
	return ts, nil
}

// GetThemeSettingByJSON
// 與 GetThemeSettingByYAML 相同，來源為 JSON。
func GetThemeSettingByJSON(data []byte) (*ThemeSetting, error) {
	ts := &ThemeSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ts); err != nil {
		return nil, errs.Wrap(err, "can not unmarshal theme json")
	}

	if err := ts.init(); err != nil {
		return nil, errs.Wrap(err, "theme setting initialized err")
	}
	return ts, nil
}
