package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/zintix-labs/ladderslot"
	"github.com/zintix-labs/ladderslot/sdk/core"
)

func goCmd(args ...string) *exec.Cmd {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

func cleanCache() error {
	if err := goCmd("clean", "-testcache").Run(); err != nil {
		return fmt.Errorf("go clean -testcache: %w", err)
	}
	return nil
}

// runFiltered 執行 go 指令，逐行交給 keep 決定要不要印、用什麼顏色。
func runFiltered(keep func(line string) func(string), args ...string) error {
	cmd := exec.Command("go", args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	// 編譯錯誤在 stderr，一起讀
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start go %s: %w", args[0], err)
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		if p := keep(sc.Text()); p != nil {
			p(sc.Text())
		}
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("go %s finished with errors", strings.Join(args, " "))
	}
	return nil
}

func runTest() error {
	PrintGreen("running tests")
	_ = cleanCache()
	return runFiltered(func(line string) func(string) {
		switch {
		case strings.HasPrefix(line, "ok"):
			return PrintGreen
		case strings.HasPrefix(line, "FAIL"),
			strings.Contains(line, "build failed"),
			strings.Contains(line, "setup failed"):
			return PrintRed
		}
		return nil
	}, "test", "./...", "-cover", "-count=1")
}

func runTestAll() error {
	PrintGreen("running tests (all with coverage)")
	if err := cleanCache(); err != nil {
		return err
	}
	return goCmd("test", "./...", "-cover").Run()
}

func runTestDetail() error {
	PrintGreen("running tests (detail)")
	if err := cleanCache(); err != nil {
		return err
	}
	return runFiltered(func(line string) func(string) {
		if strings.Contains(line, "[no test files]") {
			return nil
		}
		return func(s string) { fmt.Println(s) }
	}, "test", "./...", "-v", "-count=1")
}

func runRace() error {
	PrintGreen("running race tests")
	return goCmd("test", "-race", "-count=1", ".", "./modal/...", "./server/...").Run()
}

// runSimSmoke 每個內建主題以固定 seed 跑一小段模擬，確認設定檔能完整玩下去。
func runSimSmoke() error {
	lab, err := ladderslot.New(core.Default())
	if err != nil {
		return err
	}
	for _, id := range lab.IDs() {
		sim, err := lab.NewSimulatorWithSeed(id, ladderslot.DefaultStrategy(), 1)
		if err != nil {
			return err
		}
		rep, used, err := sim.Sim(context.Background(), 2000, false)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		PrintBlue(fmt.Sprintf("%-14s rtp=%.4f hit=%.4f board=%d used=%s",
			id, rep.Summary.RTP, rep.Summary.HitRate, rep.Summary.Trigger, used))
	}
	return nil
}
