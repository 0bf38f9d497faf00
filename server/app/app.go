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

package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultGrace = 5 * time.Second

type App struct {
	comps []Component
	hooks []Hook
	grace time.Duration
	log   *slog.Logger
}

func New() *App {
	return &App{grace: defaultGrace, log: slog.New(slog.DiscardHandler)}
}

func NewWith(comps ...Component) *App {
	a := New()
	for _, c := range comps {
		a.Register(c)
	}
	return a
}

func (a *App) Register(c Component) {
	if c != nil {
		a.comps = append(a.comps, c)
	}
}

// OnShutdown 註冊關閉後要執行的收尾。
func (a *App) OnShutdown(h Hook) {
	if h != nil {
		a.hooks = append(a.hooks, h)
	}
}

// WithLogger 設定關閉流程的 logger。
func (a *App) WithLogger(l *slog.Logger) *App {
	if l != nil {
		a.log = l
	}
	return a
}

// WithGrace 設定優雅關閉的最長等待時間。
func (a *App) WithGrace(d time.Duration) *App {
	if d > 0 {
		a.grace = d
	}
	return a
}

// Run 啟動所有元件，直到收到 SIGINT/SIGTERM 或任一元件回傳錯誤。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 與 Run 相同，但以 ctx 取消作為結束訊號。
func (a *App) RunContext(ctx context.Context) error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		// http.Server 正常關閉不算錯誤
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Warn("component shutdown", slog.Any("err", err))
		}
	}
	for _, h := range a.hooks {
		if err := h(ctx); err != nil {
			a.log.Warn("shutdown hook", slog.Any("err", err))
		}
	}
}
