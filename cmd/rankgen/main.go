// rankgen runs a single ranking pass against Google Drive and writes the
// resulting snapshot as JSON, for cron jobs and local inspection.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/NegroHm/uda-apuntes/internal/config"
	"github.com/NegroHm/uda-apuntes/internal/drive"
	"github.com/NegroHm/uda-apuntes/internal/logging"
	"github.com/NegroHm/uda-apuntes/internal/ranking"
	"github.com/NegroHm/uda-apuntes/internal/snapshot"
)

func main() {
	out := flag.String("out", "ranking-data.json", "output file ('-' for stdout)")
	pretty := flag.Bool("pretty", true, "indent the JSON output")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall pass timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("configuration error: " + err.Error())
	}
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	driveClient := drive.New(drive.Config{
		BaseURL:  cfg.DriveBaseURL,
		APIKey:   cfg.GoogleAPIKey,
		Timeout:  cfg.DriveTimeout,
		QPS:      cfg.DriveQPS,
		PageSize: cfg.DrivePageSize,
	})

	orch := ranking.NewOrchestrator(driveClient, snapshot.NewMemoryStore(), nil, ranking.Config{
		RootFolderID:      cfg.DriveRootFolderID,
		TopN:              cfg.TopN,
		CareerConcurrency: cfg.CareerConcurrency,
		WalkerConcurrency: cfg.WalkerConcurrency,
		MaxDepth:          cfg.WalkerMaxDepth,
		Weights:           ranking.DefaultWeights(),
	})

	snap, err := orch.RunOnce(ctx)
	if err != nil {
		logging.Fatal("ranking pass failed", zap.Error(err))
	}

	var data []byte
	if *pretty {
		data, err = json.MarshalIndent(snap, "", "  ")
	} else {
		data, err = json.Marshal(snap)
	}
	if err != nil {
		logging.Fatal("marshal snapshot failed", zap.Error(err))
	}
	data = append(data, '\n')

	if *out == "-" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logging.Fatal("write output failed", zap.Error(err))
	}
	fmt.Printf("wrote %s: %d careers, top %d\n", *out, snap.TotalCareers, len(snap.TopCareers))
}
