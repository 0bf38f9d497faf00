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

// Package httperr 把 errs 分級錯誤映射成 HTTP 回應。
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/ladderslot/errs"
)

// Body 錯誤回應的 JSON 形狀。
type Body struct {
	Error string `json:"error"`
	Level string `json:"level"`
}

// StatusCode 決定狀態碼：
//   - context 逾時 504、取消 408
//   - Warn 400、Log 409（例如動作被守門條件拒絕）、其餘 500
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	switch errs.LevelOf(err) {
	case errs.Warn:
		return http.StatusBadRequest
	case errs.Log:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Errs 以 JSON 寫回錯誤；err 為 nil 時不做事。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	WriteJSON(w, StatusCode(err), Body{
		Error: err.Error(),
		Level: errs.ErrLv(errs.LevelOf(err)),
	})
}

// WriteJSON 先編碼，成功後才寫出狀態碼與內容。
func WriteJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

// Log 只記錄值得注意的錯誤：逾時類 Warn，5xx Error；4xx 交給 access log。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		log.Warn(msg, slog.Any("err", err))
	case status >= 500:
		log.Error(msg, slog.Any("err", err))
	}
}
