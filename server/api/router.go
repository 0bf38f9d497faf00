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

package api

import (
	"log/slog"
	"net/http"

	v1 "github.com/zintix-labs/ladderslot/server/api/v1"
	"github.com/zintix-labs/ladderslot/server/httperr"
	"github.com/zintix-labs/ladderslot/server/netsvr"
	"github.com/zintix-labs/ladderslot/server/netsvr/middleware"
	"github.com/zintix-labs/ladderslot/server/svrcfg"
)

// RegisterRoutes 依序註冊 middleware、首頁與 v1 api。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg.Log)
	routes, err := registerV1API(svr, sCfg)
	if err != nil {
		return err
	}
	registerIndex(svr, routes)
	return nil
}

func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

// registerIndex 首頁列出所有已註冊的端點。
func registerIndex(svr netsvr.NetRouter, routes []string) {
	svr.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httperr.WriteJSON(w, http.StatusOK, map[string]any{
			"name":   "ladderslot",
			"routes": routes,
		})
	})
}

func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) ([]string, error) {
	g, err := v1.NewGameHandler(sCfg)
	if err != nil {
		return nil, err
	}
	s, err := v1.NewSimHandler(sCfg.Runtime.Lab(), sCfg.SimWorkers)
	if err != nil {
		return nil, err
	}

	var routes []string
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		get := func(p string, h http.HandlerFunc) {
			vOne.Get(p, h)
			routes = append(routes, "GET /v1"+p)
		}
		post := func(p string, h http.HandlerFunc) {
			vOne.Post(p, h)
			routes = append(routes, "POST /v1"+p)
		}

		get("/state", g.State)
		get("/messages", g.Messages)
		post("/start", g.Start)
		post("/stake", g.Stake)
		post("/hold", g.Hold)
		post("/spin", g.Spin)
		post("/nudge", g.Nudge)
		post("/hilo", g.HiLo)
		post("/roll", g.Roll)
		post("/bankruptcy", g.Bankruptcy)
		post("/prompt", g.Prompt)

		get("/themes", g.Themes)
		post("/theme", g.SwitchTheme)
		get("/session", g.Export)
		post("/session", g.Load)

		get("/sim", s.Sim)
		post("/sim", s.Sim)
		get("/simplayer", s.SimPlayers)
		post("/simplayer", s.SimPlayers)

		if g.Debug() {
			post("/debug/money", g.DebugMoney)
			post("/debug/hold", g.DebugHold)
			post("/debug/nudges", g.DebugNudges)
		}
	})
	return routes, nil
}
