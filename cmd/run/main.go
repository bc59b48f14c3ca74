// Command run plays a schedule document from a JSON file in the terminal.
// Useful for trying out a schedule without the server:
//
//	run -file practice.json -warmup 10s
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/pacer-app/pacer/internal/clock"
	"github.com/pacer-app/pacer/internal/console"
	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/feature"
	"github.com/pacer-app/pacer/internal/schedule"
)

func main() {
	var (
		file       = flag.String("file", "", "schedule document JSON file")
		warmup     = flag.Duration("warmup", 10*time.Second, "warmup period")
		warmupMode = flag.String("warmup-mode", "first", "apply warmup to: first | each")
		tick       = flag.Duration("tick", 250*time.Millisecond, "tick period")
	)
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelWarn,
		TimeFormat: time.Kitchen,
	}))

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read schedule: %v", err)
	}
	var doc domain.ScheduleDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Fatalf("parse schedule: %v", err)
	}

	registry := feature.Builtin()
	settings := schedule.Settings{
		Warmup:          *warmup,
		WarmupMode:      schedule.WarmupMode(*warmupMode),
		MaxRenderHeight: 8,
	}

	result, err := schedule.Build(&doc, settings, registry)
	if err != nil {
		log.Fatalf("build schedule: %v", err)
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s\n", d)
	}
	if result.Failed() {
		log.Fatal("every row failed to build")
	}
	if result.Empty() {
		log.Fatal("schedule is empty")
	}

	display := console.NewDisplay(os.Stdout, registry, 8)
	audio := console.NewBell(os.Stdout)
	sched := schedule.New(result.Intervals, display, audio, clock.WallClock{}, *tick, logger)

	if err := sched.Prepare(); err != nil {
		log.Fatalf("prepare: %v", err)
	}

	fmt.Printf("%s — %d intervals, %s total\n",
		doc.Name, len(result.Intervals), result.TotalDuration())

	if err := sched.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigs:
			if err := sched.Pause(); err != nil {
				logger.Error("pause", "error", err)
			}
			fmt.Printf("\npaused at %s — bye\n", sched.TotalElapsed().Round(time.Second))
			return
		case <-time.After(200 * time.Millisecond):
			if sched.IsFinished() {
				return
			}
		}
	}
}
