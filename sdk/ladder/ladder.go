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

// Package ladder 處理 bonus ladder：循環累進的數值，以及落點觸發的獎勵。
package ladder

import (
	"context"
	"fmt"
	"slices"

	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/spec"
)

// Advance 回傳 value 加上 increment 後的落點。超過 max 時減去 max（可能繞多圈），
// 結果落在 [1,max]；increment <= 0 時維持原值。
//
//	Advance(24, 3, 25) == 2
//	Advance(0, 25, 25) == 25
func Advance(value, increment, max int) int {
	if increment <= 0 || max <= 0 {
		return value
	}
	next := value + increment
	if next > max {
		next = (next-1)%max + 1
	}
	return next
}

// Triggers 是單一落點對應的獎勵類型。
type Triggers struct {
	Hold  bool
	Nudge bool
	HiLo  bool
}

// Any 是否觸發任何獎勵。
func (t Triggers) Any() bool {
	return t.Hold || t.Nudge || t.HiLo
}

// TriggersAt 查表回傳 landed 觸發的獎勵；只看最終落點，不看繞圈時經過的值。
func TriggersAt(r *spec.Rules, landed int) Triggers {
	return Triggers{
		Hold:  slices.Contains(r.LadderHoldTiles, landed),
		Nudge: slices.Contains(r.LadderNudgeTiles, landed),
		HiLo:  slices.Contains(r.LadderHiLoTiles, landed),
	}
}

// Reward 一次動作結算出的 ladder 獎勵。
type Reward struct {
	HoldsAwarded  int  `json:"holds_awarded"`
	NudgesAwarded int  `json:"nudges_awarded"`
	HiLoRequired  bool `json:"hilo_required"`
}

// Any 是否有任何獎勵。
func (r Reward) Any() bool {
	return r.HoldsAwarded > 0 || r.NudgesAwarded > 0 || r.HiLoRequired
}

// Spin 執行一次數字轉盤並回傳結果（由 orchestrator 提供，會在轉盤上顯示動畫）。
type Spin func(ctx context.Context, min, max int) (int, error)

// Resolver 依序顯示獎勵訊息、執行 nudge 轉盤。所有步驟完成後才回傳，呼叫端再提交狀態。
type Resolver struct {
	Rules        *spec.Rules
	Modal        modal.Service
	Spin         Spin
	FlashSeconds float64
}

func (r *Resolver) show(ctx context.Context, format string, a ...any) error {
	return r.Modal.Show(ctx, modal.Message{Content: fmt.Sprintf(format, a...)}, r.FlashSeconds)
}

// Resolve 結算落點 landed 的獎勵。seen <= 0（本次沒有新看到 bonus）時不結算任何獎勵。
func (r *Resolver) Resolve(ctx context.Context, seen, landed int) (Reward, error) {
	reward := Reward{}
	if seen <= 0 {
		return reward, nil
	}
	tr := TriggersAt(r.Rules, landed)

	if tr.Hold {
		reward.HoldsAwarded = 1
		if err := r.show(ctx, "Bonus ladder reward: +1 hold"); err != nil {
			return reward, err
		}
	}
	if tr.Nudge {
		if err := r.show(ctx, "Bonus ladder reward: nudge spinner"); err != nil {
			return reward, err
		}
		n, err := r.Spin(ctx, r.Rules.NudgeAwardMin, r.Rules.NudgeAwardMax)
		if err != nil {
			return reward, err
		}
		reward.NudgesAwarded = n
		if err := r.show(ctx, "Nudge spinner result: +%d nudges", n); err != nil {
			return reward, err
		}
	}
	if tr.HiLo {
		reward.HiLoRequired = true
		if err := r.show(ctx, "Bonus ladder check: choose higher or lower"); err != nil {
			return reward, err
		}
	}
	return reward, nil
}
