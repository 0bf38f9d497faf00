package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"math"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/ladderslot"
	"github.com/zintix-labs/ladderslot/sdk/core"
	"github.com/zintix-labs/ladderslot/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var cfg *config = new(config)

type config struct {
	theme     string
	dir       string
	worker    int
	player    int
	spins     int
	seed      int64
	prng      string
	pprofmode string
	out       stats.Format
	strategy  string
	yes       int
	holds     bool
	stakes    weightsFlag
}

// weightsFlag 逗號分隔的押注權重，例如 "4,2,1,1"。
type weightsFlag []int

func (f *weightsFlag) String() string {
	s := make([]string, len(*f))
	for i, v := range *f {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ",")
}

func (f *weightsFlag) Set(s string) error {
	*f = (*f)[:0]
	for _, p := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return err
		}
		*f = append(*f, v)
	}
	return nil
}

func bindVar() {
	def := ladderslot.DefaultStrategy()
	flag.StringVar(&cfg.theme, "theme", "template", "theme id")
	flag.StringVar(&cfg.dir, "themes", "", "extra directory of theme yaml files")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.player, "player", 1, "number of players (>1 runs the player experience simulation)")
	flag.IntVar(&cfg.spins, "spins", 100000, "spins per worker / per player")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.prng, "prng", "pcg64", "random generator: pcg64|pcg32")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")
	flag.Func("out", "report format: table|json|yaml (default table)", func(v string) error {
		f, ok := stats.ParseFormat(v)
		if !ok {
			return fmt.Errorf("unknown format %q", v)
		}
		cfg.out = f
		return nil
	})
	flag.StringVar(&cfg.strategy, "strategy", "", "strategy yaml file (overrides -yes/-holds/-stakes)")
	flag.IntVar(&cfg.yes, "yes", def.YesPercent, "percent of yes answers to cash out / pay your way prompts")
	flag.BoolVar(&cfg.holds, "holds", def.UseHolds, "use hold tokens on matching reels")
	flag.Var(&cfg.stakes, "stakes", "comma separated stake weights, one per stake option")

	flag.Parse()

	// 未給合法 seed 時用 crypto seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			fail(err)
		}
		cfg.seed = seed.Int64()
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func (cfg *config) loadStrategy() (ladderslot.Strategy, error) {
	st := ladderslot.Strategy{
		StakeWeights: []int(cfg.stakes),
		YesPercent:   cfg.yes,
		UseHolds:     cfg.holds,
	}
	if cfg.strategy == "" {
		return st, nil
	}
	b, err := os.ReadFile(cfg.strategy)
	if err != nil {
		return st, err
	}
	if err := yaml.Unmarshal(b, &st); err != nil {
		return st, fmt.Errorf("strategy %s: %w", cfg.strategy, err)
	}
	return st, nil
}

func executeSimulator() {
	cfg.valid()

	var extra []fs.FS
	if cfg.dir != "" {
		extra = append(extra, os.DirFS(cfg.dir))
	}
	cf, ok := core.FactoryByName(cfg.prng)
	if !ok {
		fail(fmt.Errorf("unknown prng %q (pcg64|pcg32)", cfg.prng))
	}
	lab, err := ladderslot.New(cf, extra...)
	if err != nil {
		fail(err)
	}
	st, err := cfg.loadStrategy()
	if err != nil {
		fail(err)
	}
	s, err := lab.NewSimulatorWithSeed(cfg.theme, st, cfg.seed)
	if err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	showpb := cfg.out == stats.FormatTable
	banner := io.Writer(os.Stdout)
	if !showpb {
		banner = os.Stderr
	}

	if cfg.player == 1 {
		p.Fprintf(banner, "%s[THEME:%s] [WORKERS:%d] [SPINS:%d] [SEED:%d]%s\n", green, s.ThemeName, cfg.worker, cfg.worker*cfg.spins, cfg.seed, reset)
		var (
			rep  *stats.StatReport
			used time.Duration
			err  error
		)
		if cfg.worker == 1 {
			rep, used, err = s.Sim(ctx, cfg.spins, showpb)
		} else {
			rep, used, err = s.SimMP(ctx, cfg.spins, cfg.worker, showpb)
		}
		if err != nil {
			fail(err)
		}
		writeStat(rep, used)
		return
	}

	p.Fprintf(banner, "%s[THEME:%s] [WORKERS:%d] [PLAYERS:%d] [SPINS:%d] [SEED:%d]%s\n", green, s.ThemeName, cfg.worker, cfg.player, cfg.spins, cfg.seed, reset)
	rep, est, used, err := s.SimPlayers(ctx, cfg.worker, cfg.player, cfg.spins, showpb)
	if err != nil {
		fail(err)
	}
	writeStat(rep, used)
	if r := stats.RendererFor(cfg.out); r != nil {
		err = r.Render(os.Stdout, est)
	} else {
		est.Out()
	}
	if err != nil {
		fail(err)
	}
}

func writeStat(rep *stats.StatReport, used time.Duration) {
	r := stats.RendererFor(cfg.out)
	if r == nil {
		rep.StdOut(used)
		return
	}
	if err := rep.Render(os.Stdout, r); err != nil {
		fail(err)
	}
}

func (cfg *config) valid() {
	p := message.NewPrinter(language.English)

	if cfg.worker < 1 {
		fail(fmt.Errorf("value err : workers must > 0"))
	}
	if cfg.player < 1 {
		fail(fmt.Errorf("value err : player must > 0"))
	}
	if cfg.player > 100000 {
		p.Fprintf(os.Stderr, "too many players: %d resized to 100k players\n", cfg.player)
		cfg.player = 100000
	}
	if cfg.spins < 1 {
		fail(fmt.Errorf("value err : spins must > 0"))
	}
	// 單一玩家 15000 回合已是長期體驗，再長直接跑機台模擬即可
	if cfg.player > 1 && cfg.spins > 15000 {
		p.Fprintf(os.Stderr, "too many spins per player: %d resized to 15k\n", cfg.spins)
		cfg.spins = 15000
	}
	if cfg.out == "" {
		cfg.out = stats.FormatTable
	}
}
