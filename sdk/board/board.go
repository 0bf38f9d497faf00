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

// Package board 是 backboard 的格子效果狀態機：擲骰決定落點，依格子效果循環結算，
// 直到回到「等待擲骰」、暫停等待 higher/lower，或離開 backboard。
package board

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/ladderslot/modal"
	"github.com/zintix-labs/ladderslot/spec"
)

// Status backboard 進度狀態。
type Status string

const (
	StatusIdle         Status = "idle"
	StatusAwaitingRoll Status = "awaiting_roll"
	StatusRolling      Status = "rolling"
	StatusResolving    Status = "resolving"
	StatusAwaitingHiLo Status = "awaiting_hilo"
)

// StartTile 進入 backboard 時的位置。
const StartTile = 1

// Trail 目前在 backboard 上的進度。LastRoll / PendingHiLoTile 為 0 代表沒有值。
type Trail struct {
	Position        int    `json:"position"`
	Status          Status `json:"status"`
	LastRoll        int    `json:"last_roll"`
	PendingHiLoTile int    `json:"pending_hilo_tile"`
}

// InitialTrail 不在 backboard 時的進度。
func InitialTrail() Trail {
	return Trail{Position: StartTile, Status: StatusIdle}
}

// EnteredTrail 剛進入 backboard、等待第一次擲骰的進度。
func EnteredTrail() Trail {
	return Trail{Position: StartTile, Status: StatusAwaitingRoll}
}

// Target 回傳 position+roll；超過 maxTile 時改送到 overflow（不是夾到 maxTile）。
func Target(position, roll, maxTile, overflow int) (target int, overflowed bool) {
	raw := position + roll
	if raw > maxTile {
		return overflow, true
	}
	return raw, false
}

// Host 是 orchestrator 提供給狀態機的操作面。每個方法都是一次原子的狀態更新。
type Host interface {
	// Place 移動到 tile 並清除 pending higher/lower 格。
	Place(tile int)
	// SetStatus 更新 trail 狀態。
	SetStatus(st Status)
	// AwaitHiLo 在 tile 暫停，等待 backboard higher/lower 的選擇。
	AwaitHiLo(tile int)
	// Money 目前金額。
	Money() decimal.Decimal
	// Pay 以 delta 調整金額（負數為扣款）。
	Pay(delta decimal.Decimal)
	// Exit 離開 backboard 回到轉輪畫面並重置 trail。
	Exit()
}

// Spin 以數字轉盤擲出 [min,max]。
type Spin func(ctx context.Context, min, max int) (int, error)

// Outcome 一次結算的結果。
type Outcome struct {
	Exited       bool
	AwaitingHiLo bool
	// Visited 依序經過的格號（含起點）。
	Visited []int
}

// Resolver backboard 格子效果狀態機。
type Resolver struct {
	Board        *spec.BoardSetting
	Modal        modal.Service
	Spin         Spin
	DieFaces     int
	FlashSeconds float64
}

func (r *Resolver) show(ctx context.Context, format string, a ...any) error {
	return r.Modal.Show(ctx, modal.Message{Content: fmt.Sprintf(format, a...)}, r.FlashSeconds)
}

// Money 將金額格式化為顯示字串。
func Money(d decimal.Decimal) string {
	return "£" + d.StringFixed(2)
}

func stakeTimes(stake int, mult float64) decimal.Decimal {
	return decimal.NewFromInt(int64(stake)).Mul(decimal.NewFromFloat(mult))
}

// AnnounceRoll 顯示擲骰結果訊息。
func (r *Resolver) AnnounceRoll(ctx context.Context, roll, target int, overflowed bool) error {
	if overflowed {
		return r.show(ctx, "Rolled %d. Passed tile %d, sent to tile %d.", roll, r.Board.MaxTile, target)
	}
	return r.show(ctx, "Rolled %d. Landed on tile %d.", roll, target)
}

// Resolve 從 tile 開始結算格子效果。stake 在擲骰當下固定，整段結算都用同一個值。
// 每則訊息都會阻塞到顯示完畢才進入下一步。
func (r *Resolver) Resolve(ctx context.Context, h Host, tile int, stake int) (Outcome, error) {
	out := Outcome{}
	tile = r.Board.Clamp(tile)

	for {
		t := r.Board.TileAt(tile)
		h.Place(tile)
		out.Visited = append(out.Visited, tile)

		switch t.Effect {
		case spec.EffectJump:
			if err := r.show(ctx, "Tile %d: Jump Forward to tile %d.", tile, t.JumpTo); err != nil {
				return out, err
			}
			tile = r.Board.Clamp(t.JumpTo)
			continue

		case spec.EffectHiLo:
			if err := r.show(ctx, "Tile %d: Higher or Lower. Choose on the spinner controls.", tile); err != nil {
				return out, err
			}
			h.AwaitHiLo(tile)
			out.AwaitingHiLo = true
			return out, nil

		case spec.EffectCashoutOffer:
			payout := stakeTimes(stake, t.Multiplier)
			yes, err := r.Modal.AskYesNo(ctx,
				fmt.Sprintf("Tile %d: %s", tile, t.Text),
				fmt.Sprintf("Cash out for %s and return to reels?", Money(payout)))
			if err != nil {
				return out, err
			}
			if yes {
				h.Pay(payout)
				if err := r.show(ctx, "Backboard cash out: %s", Money(payout)); err != nil {
					return out, err
				}
				return r.exit(h, out), nil
			}
			if err := r.show(ctx, "Stayed on the backboard. Roll again."); err != nil {
				return out, err
			}
			return r.await(h, out), nil

		case spec.EffectInstaWin:
			payout := stakeTimes(stake, t.Multiplier)
			h.Pay(payout)
			if err := r.show(ctx, "Insta win: %s", Money(payout)); err != nil {
				return out, err
			}
			return r.await(h, out), nil

		case spec.EffectPayYourWay:
			cost := decimal.NewFromInt(int64(stake))
			if h.Money().LessThan(cost) {
				if err := r.show(ctx, "Not enough money to pay your way. Returning to reels."); err != nil {
					return out, err
				}
				return r.exit(h, out), nil
			}
			yes, err := r.Modal.AskYesNo(ctx,
				fmt.Sprintf("Tile %d: Pay your way", tile),
				fmt.Sprintf("Pay %s to continue on the board?", Money(cost)))
			if err != nil {
				return out, err
			}
			if !yes {
				if err := r.show(ctx, "You left the backboard."); err != nil {
					return out, err
				}
				return r.exit(h, out), nil
			}
			h.Pay(cost.Neg())
			if err := r.show(ctx, "Paid %s. Continue.", Money(cost)); err != nil {
				return out, err
			}
			return r.await(h, out), nil

		case spec.EffectEnd:
			if err := r.show(ctx, "End tile reached. Returning to reels."); err != nil {
				return out, err
			}
			return r.exit(h, out), nil

		case spec.EffectSetback:
			if err := r.show(ctx, "Setback tile. Rolling to move backward."); err != nil {
				return out, err
			}
			roll, err := r.Spin(ctx, 1, r.DieFaces)
			if err != nil {
				return out, err
			}
			next := max(1, tile-roll)
			if err := r.show(ctx, "Setback roll %d: move to tile %d.", roll, next); err != nil {
				return out, err
			}
			tile = next
			continue

		case spec.EffectWinYourRoll:
			if err := r.show(ctx, "%s: rolling now.", t.Text); err != nil {
				return out, err
			}
			roll, err := r.Spin(ctx, 1, r.DieFaces)
			if err != nil {
				return out, err
			}
			payout := stakeTimes(stake, t.RollMultiplier).Mul(decimal.NewFromInt(int64(roll)))
			h.Pay(payout)
			if err := r.show(ctx, "Win your roll: %s", Money(payout)); err != nil {
				return out, err
			}
			return r.exit(h, out), nil

		case spec.EffectJackpot:
			mult := t.Multiplier
			if mult == 0 {
				mult = spec.DefaultJackpotMultiplier
			}
			payout := stakeTimes(stake, mult)
			h.Pay(payout)
			if err := r.show(ctx, "Jackpot: %s", Money(payout)); err != nil {
				return out, err
			}
			return r.exit(h, out), nil

		default: // blank / start / 未知
			return r.await(h, out), nil
		}
	}
}

func (r *Resolver) await(h Host, out Outcome) Outcome {
	h.SetStatus(StatusAwaitingRoll)
	return out
}

func (r *Resolver) exit(h Host, out Outcome) Outcome {
	h.Exit()
	out.Exited = true
	return out
}
