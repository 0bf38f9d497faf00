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

package errs

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestWrapKeepsLevel(t *testing.T) {
	base := NewWarn("bad input")
	w := Wrap(base, "request")
	if w.ErrLv != Warn || LevelOf(w) != Warn {
		t.Fatalf("want warn, got %s", ErrLv(w.ErrLv))
	}
	if !errors.Is(w, base) {
		t.Fatalf("wrapped error should unwrap to its cause")
	}

	std := Wrap(io.EOF, "read")
	if !IsFatal(std) || !errors.Is(std, io.EOF) {
		t.Fatalf("std error should be wrapped as fatal")
	}
}

func TestLevelOf(t *testing.T) {
	if LevelOf(nil) != None {
		t.Fatalf("nil should be None")
	}
	if LevelOf(io.EOF) != Fatal {
		t.Fatalf("foreign error should be Fatal")
	}
	chained := fmt.Errorf("outer: %w", NewLog("note"))
	if LevelOf(chained) != Log {
		t.Fatalf("want log through fmt wrap")
	}
}

func TestErrorString(t *testing.T) {
	e := WrapWithExtra(NewFatal("inner"), "outer", "theme.yaml")
	s := e.Error()
	for _, part := range []string{"errlv=fatal", "outer", "extra: theme.yaml", "cause:"} {
		if !strings.Contains(s, part) {
			t.Fatalf("%q missing %q", s, part)
		}
	}
	if ErrLv(ErrLevel(99)) != "" {
		t.Fatalf("unknown level should render empty")
	}
}
