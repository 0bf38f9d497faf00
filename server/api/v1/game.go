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

package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/ladderslot"
	"github.com/zintix-labs/ladderslot/dto"
	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/server/httperr"
	"github.com/zintix-labs/ladderslot/server/svrcfg"
)

// waitLimit wait=true 時最長等待時間。
const waitLimit = 20 * time.Second

// ActionResponse 每個玩家動作的回應：是否被接受，以及動作後（或 wait 結束後）的完整狀態。
type ActionResponse struct {
	Action   string       `json:"action"`
	Accepted bool         `json:"accepted"`
	State    dto.Snapshot `json:"state"`
}

// GameHandler 綁定單一 Runtime 的玩家動作端點。
type GameHandler struct {
	rt    *ladderslot.Runtime
	log   *slog.Logger
	debug bool
}

func NewGameHandler(sCfg *svrcfg.SvrCfg) (*GameHandler, error) {
	if sCfg == nil || sCfg.Runtime == nil {
		return nil, errs.NewFatal("runtime is required")
	}
	return &GameHandler{rt: sCfg.Runtime, log: sCfg.Log, debug: sCfg.Debug}, nil
}

func (h *GameHandler) State(w http.ResponseWriter, r *http.Request) {
	httperr.WriteJSON(w, http.StatusOK, h.rt.Machine().Snapshot())
}

func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.sync(w, r, "start", func(m *ladderslot.Machine, _ *dto.ActionRequest) (bool, error) {
		return m.StartGame(), nil
	})
}

func (h *GameHandler) Stake(w http.ResponseWriter, r *http.Request) {
	h.sync(w, r, "stake", func(m *ladderslot.Machine, req *dto.ActionRequest) (bool, error) {
		if req.Stake <= 0 {
			return false, errs.NewWarn("stake must be positive")
		}
		return m.SetStake(req.Stake), nil
	})
}

func (h *GameHandler) Hold(w http.ResponseWriter, r *http.Request) {
	h.sync(w, r, "hold", func(m *ladderslot.Machine, req *dto.ActionRequest) (bool, error) {
		id, err := req.ReelID()
		if err != nil {
			return false, err
		}
		return m.ToggleHold(id), nil
	})
}

func (h *GameHandler) Spin(w http.ResponseWriter, r *http.Request) {
	h.async(w, r, func(ctx context.Context, m *ladderslot.Machine, _ *dto.ActionRequest) (*ladderslot.Op, error) {
		return m.Spin(ctx), nil
	})
}

func (h *GameHandler) Nudge(w http.ResponseWriter, r *http.Request) {
	h.async(w, r, func(ctx context.Context, m *ladderslot.Machine, req *dto.ActionRequest) (*ladderslot.Op, error) {
		id, err := req.ReelID()
		if err != nil {
			return nil, err
		}
		d, err := req.NudgeDirection()
		if err != nil {
			return nil, err
		}
		return m.Nudge(ctx, id, d), nil
	})
}

func (h *GameHandler) HiLo(w http.ResponseWriter, r *http.Request) {
	h.async(w, r, func(ctx context.Context, m *ladderslot.Machine, req *dto.ActionRequest) (*ladderslot.Op, error) {
		c, ok := ladderslot.ParseHiLoChoice(req.Choice)
		if !ok {
			return nil, errs.Warnf("invalid choice %q", req.Choice)
		}
		return m.ChooseHiLo(ctx, c), nil
	})
}

func (h *GameHandler) Roll(w http.ResponseWriter, r *http.Request) {
	h.async(w, r, func(ctx context.Context, m *ladderslot.Machine, _ *dto.ActionRequest) (*ladderslot.Op, error) {
		return m.RollBackboard(ctx), nil
	})
}

func (h *GameHandler) Bankruptcy(w http.ResponseWriter, r *http.Request) {
	h.async(w, r, func(ctx context.Context, m *ladderslot.Machine, _ *dto.ActionRequest) (*ladderslot.Op, error) {
		return m.CheckBankruptcy(ctx), nil
	})
}

// Prompt 回答目前的 yes/no 或 OK 對話框。
func (h *GameHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	h.sync(w, r, "prompt", func(_ *ladderslot.Machine, req *dto.ActionRequest) (bool, error) {
		if err := h.rt.Board().Answer(req.PromptID, req.Yes); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (h *GameHandler) DebugMoney(w http.ResponseWriter, r *http.Request) {
	h.sync(w, r, "debug_money", func(m *ladderslot.Machine, _ *dto.ActionRequest) (bool, error) {
		m.DebugAddMoney()
		return true, nil
	})
}

func (h *GameHandler) DebugHold(w http.ResponseWriter, r *http.Request) {
	h.sync(w, r, "debug_hold", func(m *ladderslot.Machine, _ *dto.ActionRequest) (bool, error) {
		m.DebugAddHold()
		return true, nil
	})
}

func (h *GameHandler) DebugNudges(w http.ResponseWriter, r *http.Request) {
	h.sync(w, r, "debug_nudges", func(m *ladderslot.Machine, req *dto.ActionRequest) (bool, error) {
		return m.DebugAddNudges(req.Count), nil
	})
}

// Debug 是否開啟除錯端點。
func (h *GameHandler) Debug() bool { return h.debug }

func (h *GameHandler) sync(w http.ResponseWriter, r *http.Request, name string,
	fn func(m *ladderslot.Machine, req *dto.ActionRequest) (bool, error)) {
	req, err := dto.DecodeActionRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	var accepted bool
	err = h.rt.Use(func(m *ladderslot.Machine) error {
		var e error
		accepted, e = fn(m, req)
		return e
	})
	if err != nil {
		httperr.Log(h.log, name, err)
		httperr.Errs(w, err)
		return
	}
	h.respond(w, name, accepted)
}

func (h *GameHandler) async(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, m *ladderslot.Machine, req *dto.ActionRequest) (*ladderslot.Op, error)) {
	req, err := dto.DecodeActionRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	var inner error
	op, err := h.rt.Do(func(ctx context.Context, m *ladderslot.Machine) *ladderslot.Op {
		op, e := fn(ctx, m, req)
		inner = e
		return op
	})
	if err == nil {
		err = inner
	}
	if err != nil {
		httperr.Log(h.log, "action", err)
		httperr.Errs(w, err)
		return
	}
	if req.Wait && op.Accepted() {
		ctx, cancel := context.WithTimeout(r.Context(), waitLimit)
		defer cancel()
		if err := op.Wait(ctx); err != nil {
			httperr.Log(h.log, op.Name(), err)
			httperr.Errs(w, err)
			return
		}
	}
	h.respond(w, op.Name(), op.Accepted())
}

func (h *GameHandler) respond(w http.ResponseWriter, name string, accepted bool) {
	httperr.WriteJSON(w, http.StatusOK, ActionResponse{
		Action:   name,
		Accepted: accepted,
		State:    h.rt.Machine().Snapshot(),
	})
}
