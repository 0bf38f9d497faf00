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

// Package perf 包裝 runtime/pprof，讓 CLI 以旗標切換 profiling。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/ladderslot/errs"
)

// Dir pprof 檔案寫入路徑。
var Dir = "build/profiling"

// RunPProf 依 mode 執行 exe：
//   - ""：直接執行
//   - "cpu"：執行期間錄 CPU profile（也可作為 PGO 的 default.pgo）
//   - "heap"：執行後 GC 再寫 in-use heap
//   - "allocs"：執行後寫累積配置
//
// 未知的 mode 回傳 errs.Warn，不執行 exe。
func RunPProf(exe func(), mode string) error {
	switch mode {
	case "":
		exe()
		return nil
	case "cpu":
		return PProfCPU(exe)
	case "heap":
		return PProfHeap(exe)
	case "allocs":
		return PProfAllocs(exe)
	default:
		return errs.Warnf("unknown pprof mode %q (cpu|heap|allocs)", mode)
	}
}

func create(name string) (*os.File, error) {
	if err := os.MkdirAll(Dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create profiling dir")
	}
	f, err := os.Create(filepath.Join(Dir, name))
	if err != nil {
		return nil, errs.Wrap(err, "create "+name)
	}
	return f, nil
}

// PProfCPU 寫出 cpu.pprof。
//
//	go run ./cmd/sim -p cpu
func PProfCPU(exe func()) error {
	f, err := create("cpu.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	exe()
	pprof.StopCPUProfile()
	return nil
}

// PProfHeap 執行後寫出 heap.pprof。寫出前先 GC，讓 live objects 貼近最新狀態。
func PProfHeap(exe func()) error {
	exe()
	f, err := create("heap.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return errs.Wrap(err, "write heap profile")
	}
	return nil
}

// PProfAllocs 執行後寫出 allocs.pprof（看 -alloc_space / -alloc_objects）。
func PProfAllocs(exe func()) error {
	exe()
	f, err := create("allocs.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if prof := pprof.Lookup("allocs"); prof != nil {
		if err := prof.WriteTo(f, 0); err != nil {
			return errs.Wrap(err, "write allocs profile")
		}
	}
	return nil
}
