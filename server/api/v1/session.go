package v1

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/ladderslot"
	"github.com/zintix-labs/ladderslot/catalog"
	"github.com/zintix-labs/ladderslot/dto"
	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/server/httperr"
)

// maxUpload 匯入快照的 body 上限（壓縮前）。
const maxUpload = 4 << 20

type themesResponse struct {
	Current string            `json:"current"`
	Themes  []catalog.Summary `json:"themes"`
}

// Themes 列出可用主題與目前使用中的主題。
func (h *GameHandler) Themes(w http.ResponseWriter, r *http.Request) {
	httperr.WriteJSON(w, http.StatusOK, themesResponse{
		Current: h.rt.Machine().Theme().ThemeID,
		Themes:  h.rt.Lab().Summaries(),
	})
}

// SwitchTheme 換成另一個主題的新機台；動作進行中時回 400。
func (h *GameHandler) SwitchTheme(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeActionRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Theme == "" {
		httperr.Errs(w, errs.NewWarn("theme is required"))
		return
	}
	if err := h.rt.SwitchTheme(req.Theme); err != nil {
		httperr.Log(h.log, "switch theme", err)
		httperr.Errs(w, err)
		return
	}
	h.respond(w, "theme", true)
}

// Messages 回傳對話框歷史與目前 Prompt。
func (h *GameHandler) Messages(w http.ResponseWriter, r *http.Request) {
	type resp struct {
		Current *modal.Prompt   `json:"current,omitempty"`
		History []modal.Message `json:"history"`
	}
	b := h.rt.Board()
	httperr.WriteJSON(w, http.StatusOK, resp{Current: b.Current(), History: b.History()})
}

// Export 下載目前狀態；?compressed=true 時回傳 zstd frame。
func (h *GameHandler) Export(w http.ResponseWriter, r *http.Request) {
	compressed := false
	if s := r.URL.Query().Get("compressed"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			httperr.Errs(w, errs.Warnf("invalid compressed: %v", err))
			return
		}
		compressed = v
	}
	var (
		b   []byte
		err error
	)
	err = h.rt.Use(func(m *ladderslot.Machine) error {
		if compressed {
			b, err = m.ExportCompressed()
		} else {
			b, err = m.Export()
		}
		return err
	})
	if err != nil {
		httperr.Log(h.log, "export", err)
		httperr.Errs(w, err)
		return
	}
	name := "session.json"
	ct := "application/json"
	if compressed {
		name, ct = "session.json.zst", "application/zstd"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// Load 以 body（JSON 或 zstd）取代目前狀態。
// 快照本身不合法時，底層回傳 Fatal；在 HTTP 邊界它是呼叫端的輸入問題，改回 400。
func (h *GameHandler) Load(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil {
		httperr.Errs(w, errs.NewWarn("empty body"))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpload+1))
	if err != nil {
		httperr.Errs(w, errs.Warnf("read body: %v", err))
		return
	}
	if len(body) > maxUpload {
		httperr.Errs(w, errs.NewWarn("session snapshot too large"))
		return
	}
	err = h.rt.Use(func(m *ladderslot.Machine) error {
		if err := m.Load(body); err != nil {
			if errs.IsFatal(err) {
				return errs.NewWithExtra(errs.Warn, "invalid session snapshot", err.Error())
			}
			return err
		}
		return nil
	})
	if err != nil {
		httperr.Log(h.log, "load", err)
		httperr.Errs(w, err)
		return
	}
	// 匯入的金額已低於最低押注時，直接進入破產確認
	if _, err := h.rt.Do(func(ctx context.Context, m *ladderslot.Machine) *ladderslot.Op {
		return m.CheckBankruptcy(ctx)
	}); err != nil {
		httperr.Errs(w, err)
		return
	}
	h.respond(w, "load", true)
}
