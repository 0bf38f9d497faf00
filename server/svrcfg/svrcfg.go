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

package svrcfg

import (
	"log/slog"
	"runtime"

	"github.com/zintix-labs/ladderslot"
	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/server/logger"
	"github.com/zintix-labs/ladderslot/server/netsvr"
)

type SvrCfg struct {
	Log     *slog.Logger
	Runtime *ladderslot.Runtime
	Addr    string

	// SimWorkers 模擬端點的併發數，範圍 1..NumCPU。
	SimWorkers int
	// Debug 開啟 /v1/debug/* 端點（加錢、加 hold、加 nudge）。
	Debug bool
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeSilence)
	}
	if sc.Runtime == nil {
		return errs.NewFatal("runtime is required")
	}
	if sc.Runtime.Closed() {
		return errs.NewFatal("runtime is closed")
	}
	if sc.Addr == "" {
		sc.Addr = netsvr.DefaultAddr
	}
	sc.SimWorkers = max(1, sc.SimWorkers)
	sc.SimWorkers = min(runtime.NumCPU(), sc.SimWorkers)
	return nil
}
