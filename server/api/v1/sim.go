package v1

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"math"
	"math/big"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zintix-labs/ladderslot"
	"github.com/zintix-labs/ladderslot/errs"
	"github.com/zintix-labs/ladderslot/server/httperr"
	"github.com/zintix-labs/ladderslot/stats"
)

const (
	maxSimSpins    = 1_000_000
	maxPlayers     = 100_000
	maxPlayerSpins = 15_000
)

// SimHandler 以自動玩家模擬主題，不影響 Runtime 上的機台。
type SimHandler struct {
	lab     *ladderslot.Lab
	workers int
}

func NewSimHandler(lab *ladderslot.Lab, workers int) (*SimHandler, error) {
	if lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	return &SimHandler{lab: lab, workers: max(1, workers)}, nil
}

// simRequest GET 與 POST 共用；POST 時 Strategy 可整包給。
type simRequest struct {
	Theme    string               `json:"theme"`
	Spins    int                  `json:"spins"`
	Players  int                  `json:"players"`
	Seed     *int64               `json:"seed,omitempty"`
	Strategy *ladderslot.Strategy `json:"strategy,omitempty"`
}

func decodeSimRequest(r *http.Request) (*simRequest, error) {
	req := new(simRequest)
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Theme = q.Get("theme")
		var err error
		if req.Spins, err = queryInt(q, "spins"); err != nil {
			return nil, err
		}
		if req.Players, err = queryInt(q, "players"); err != nil {
			return nil, err
		}
		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.NewWarn("seed must be int64")
			}
			req.Seed = &v
		}
		if q.Has("yes_percent") || q.Has("use_holds") {
			st := ladderslot.DefaultStrategy()
			if q.Has("yes_percent") {
				if st.YesPercent, err = queryInt(q, "yes_percent"); err != nil {
					return nil, err
				}
			}
			if s := q.Get("use_holds"); s != "" {
				v, err := strconv.ParseBool(s)
				if err != nil {
					return nil, errs.NewWarn("use_holds must be bool")
				}
				st.UseHolds = v
			}
			req.Strategy = &st
		}
	case http.MethodPost:
		dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			return nil, errs.Warnf("invalid json: %v", err)
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}
	if req.Seed == nil {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			return nil, errs.Wrap(err, "seed generate failed")
		}
		v := rnd.Int64()
		req.Seed = &v
	}
	return req, nil
}

func queryInt(q url.Values, key string) (int, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.Warnf("%s must be integer", key)
	}
	return v, nil
}

func (sh *SimHandler) simulator(req *simRequest) (*ladderslot.Simulator, error) {
	if req.Theme == "" {
		return nil, errs.NewWarn("theme is required")
	}
	if _, err := sh.lab.Theme(req.Theme); err != nil {
		return nil, errs.NewWithExtra(errs.Warn, "theme not found", req.Theme)
	}
	st := ladderslot.DefaultStrategy()
	if req.Strategy != nil {
		st = *req.Strategy
	}
	sim, err := sh.lab.NewSimulatorWithSeed(req.Theme, st, *req.Seed)
	if err != nil {
		// 策略不合法屬於輸入問題
		return nil, errs.NewWithExtra(errs.Warn, "build simulator failed", err.Error())
	}
	return sim, nil
}

// Sim 單機台長局模擬（玩家破產時補錢繼續）。
func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	type simResponse struct {
		Stats    *stats.StatReport `json:"stats"`
		Seed     int64             `json:"seed"`
		UsedTime int64             `json:"used_ms"`
	}
	req, err := decodeSimRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Spins < 1 || req.Spins > maxSimSpins {
		httperr.Errs(w, errs.NewWarn("spins must be between 1 and 1,000,000"))
		return
	}
	sim, err := sh.simulator(req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	mp := min(sh.workers, req.Spins)
	st, used, err := sim.SimMP(r.Context(), max(1, req.Spins/mp), mp, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	httperr.WriteJSON(w, http.StatusOK, simResponse{
		Stats:    st,
		Seed:     sim.Seed(),
		UsedTime: used.Milliseconds(),
	})
}

// SimPlayers 多玩家體驗模擬：每位玩家帶起始資金，破產或到達 cash out 線即離場。
func (sh *SimHandler) SimPlayers(w http.ResponseWriter, r *http.Request) {
	type simPlayerResponse struct {
		Stats     *stats.StatReport       `json:"stats"`
		Estimator *stats.EstimatorPlayers `json:"est"`
		Seed      int64                   `json:"seed"`
		UsedTime  int64                   `json:"used_ms"`
	}
	req, err := decodeSimRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Players < 1 || req.Players > maxPlayers {
		httperr.Errs(w, errs.NewWarn("players must be between 1 and 100,000"))
		return
	}
	if req.Spins < 1 || req.Spins > maxPlayerSpins {
		httperr.Errs(w, errs.NewWarn("spins must be between 1 and 15,000"))
		return
	}
	sim, err := sh.simulator(req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	st, est, used, err := sim.SimPlayers(r.Context(), sh.workers, req.Players, req.Spins, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	httperr.WriteJSON(w, http.StatusOK, simPlayerResponse{
		Stats:     st,
		Estimator: est,
		Seed:      sim.Seed(),
		UsedTime:  used.Milliseconds(),
	})
}
