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

package ladderslot

import "context"

// Op 是一個非同步動作的句柄。
//
// 守門條件不成立時動作被靜默忽略：Accepted() 為 false，Done() 已關閉，Err() 為 nil。
// 被接受的動作在背景 goroutine 執行完整流程，結束後 Done() 關閉。
type Op struct {
	name     string
	accepted bool
	done     chan struct{}
	err      error
}

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func rejectedOp(name string) *Op {
	return &Op{name: name, done: closedCh}
}

func acceptedOp(name string) *Op {
	return &Op{name: name, accepted: true, done: make(chan struct{})}
}

// Name 動作名稱。
func (o *Op) Name() string { return o.name }

// Accepted 回傳動作是否通過守門條件。
func (o *Op) Accepted() bool { return o.accepted }

// Done 動作結束時關閉。
func (o *Op) Done() <-chan struct{} { return o.done }

// Err 動作結束後的錯誤；只在 Done() 關閉後有意義。
func (o *Op) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// Wait 等待動作結束並回傳其錯誤；ctx 先結束時回傳 ctx.Err()，動作本身不受影響。
func (o *Op) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
