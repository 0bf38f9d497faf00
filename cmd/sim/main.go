package main

import (
	"os"

	"github.com/zintix-labs/ladderslot/sdk/perf"
)

func main() {
	bindVar()
	if err := perf.RunPProf(executeSimulator, cfg.pprofmode); err != nil {
		fail(err)
	}
	os.Exit(0)
}
