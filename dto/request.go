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
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/sdk/reel"
)

// maxBody 請求 body 上限（1MiB）。
const maxBody = 1 << 20

// ActionRequest 玩家動作請求。各動作只讀取自己需要的欄位：
//
//   - stake：Stake
//   - hold / nudge：Reel；nudge 另外讀 Direction（"up" / "down"）
//   - hilo：Choice（"higher" / "lower"）
//   - debug nudges：Count
//   - 回答對話框：PromptID、Yes
//   - 切換主題：Theme
//
// Wait 為 true 時，非同步動作會等管線結束才回應。
type ActionRequest struct {
	Reel      *int   `json:"reel,omitempty"`
	Direction string `json:"direction,omitempty"`
	Choice    string `json:"choice,omitempty"`
	Stake     int    `json:"stake,omitempty"`
	Count     int    `json:"count,omitempty"`
	PromptID  uint64 `json:"prompt_id,omitempty"`
	Yes       bool   `json:"yes,omitempty"`
	Theme     string `json:"theme,omitempty"`
	Wait      bool   `json:"wait,omitempty"`
}

// DecodeActionRequest 會把 HTTP 請求解碼成 ActionRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（reel/direction/choice/stake/count/prompt_id/yes/theme/wait）。
//   - POST：從 JSON body 反序列化；空 body 視為沒有參數。
//
// 注意：
//   - 這裡只負責解碼與基本型別轉換，動作是否合法由 Machine 的守門條件決定。
//   - POST 會對 body 做大小限制，並以 DisallowUnknownFields() 嚴格拒絕未知欄位。
func DecodeActionRequest(r *http.Request) (*ActionRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(ActionRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if s := q.Get("reel"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.Warnf("invalid reel: %v", err)
			}
			req.Reel = &v
		}
		req.Direction = q.Get("direction")
		req.Choice = q.Get("choice")
		if s := q.Get("stake"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.Warnf("invalid stake: %v", err)
			}
			req.Stake = v
		}
		if s := q.Get("count"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.Warnf("invalid count: %v", err)
			}
			req.Count = v
		}
		if s := q.Get("prompt_id"); s != "" {
			v, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return nil, errs.Warnf("invalid prompt_id: %v", err)
			}
			req.PromptID = v
		}
		if s := q.Get("yes"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return nil, errs.Warnf("invalid yes: %v", err)
			}
			req.Yes = v
		}
		req.Theme = q.Get("theme")
		if s := q.Get("wait"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return nil, errs.Warnf("invalid wait: %v", err)
			}
			req.Wait = v
		}
		return req, nil

	case http.MethodPost:
		if r.Body == nil {
			return req, nil
		}
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil && err != io.EOF {
			return nil, errs.Warnf("invalid json: %v", err)
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// ReelID 回傳必填的 reel 欄位。
func (a *ActionRequest) ReelID() (int, error) {
	if a.Reel == nil {
		return 0, errs.NewWarn("reel is required")
	}
	return *a.Reel, nil
}

// NudgeDirection 解析 direction 欄位。
func (a *ActionRequest) NudgeDirection() (reel.Direction, error) {
	d, ok := reel.ParseDirection(a.Direction)
	if !ok {
		return 0, errs.Warnf("invalid direction %q", a.Direction)
	}
	return d, nil
}
