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

package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/zintix-labs/ladderslot"
	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/server"
	"github.com/zintix-labs/ladderslot/server/logger"
	"github.com/zintix-labs/ladderslot/server/svrcfg"
)

// 單機台遊戲伺服器：一個 Runtime、一台機台，所有玩家動作都打在同一個 session 上。
func main() {
	sCfg, closeLog, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()
	server.Run(sCfg)
}

type config struct {
	Addr    string
	Theme   string
	Themes  string
	LogMode string
	Seed    int64
	PRNG    string
	Workers int
	Debug   bool
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, func(), error) {
	cfg := new(config)
	flag.StringVar(&cfg.Addr, "addr", ":5808", "listen address")
	flag.StringVar(&cfg.Theme, "theme", "template", "theme id")
	flag.StringVar(&cfg.Themes, "themes", "", "extra directory of theme yaml files")
	flag.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.Int64Var(&cfg.Seed, "seed", 0, "fixed seed (0 uses crypto seed)")
	flag.StringVar(&cfg.PRNG, "prng", "pcg64", "random generator: pcg64|pcg32")
	flag.IntVar(&cfg.Workers, "sim-workers", 2, "workers for the simulation endpoints")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable /v1/debug endpoints")
	flag.Parse()

	mode, err := logger.ParseLogMode(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	cf, ok := core.FactoryByName(cfg.PRNG)
	if !ok {
		return nil, nil, errs.Warnf("unknown prng %q (pcg64|pcg32)", cfg.PRNG)
	}
	log, ah := logger.NewAsync(4096, mode)

	var extra []fs.FS
	if cfg.Themes != "" {
		extra = append(extra, os.DirFS(cfg.Themes))
	}
	lab, err := ladderslot.New(cf, extra...)
	if err != nil {
		ah.Close()
		return nil, nil, err
	}
	rt, err := ladderslot.NewRuntime(lab, ladderslot.RuntimeConfig{
		ThemeID: cfg.Theme,
		Seed:    cfg.Seed,
		Seeded:  cfg.Seed != 0,
		Logger:  log,
	})
	if err != nil {
		ah.Close()
		return nil, nil, err
	}
	sCfg := &svrcfg.SvrCfg{
		Log:        log,
		Runtime:    rt,
		Addr:       cfg.Addr,
		SimWorkers: cfg.Workers,
		Debug:      cfg.Debug,
	}
	return sCfg, ah.Close, nil
}
