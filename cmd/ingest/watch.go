package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docgraph/application/services"
	"docgraph/infrastructure/di"
)

// newly created files get a moment to finish copying before we read them
const settleDelay = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a drop folder and ingest new PDFs as they arrive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		container, rows, err := setup()
		if err != nil {
			return err
		}
		defer container.Shutdown()
		logger := container.Logger

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		// watch the base folder plus its year subfolders
		if err := watcher.Add(args[0]); err != nil {
			return err
		}
		entries, err := os.ReadDir(args[0])
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				if err := watcher.Add(filepath.Join(args[0], entry.Name())); err != nil {
					return err
				}
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		color.Cyan("watching %s", args[0])

		for {
			select {
			case <-ctx.Done():
				color.Cyan("stopping")
				return nil
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Error("watcher error", zap.Error(err))
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				handleArrival(ctx, container, watcher, rows, event.Name)
			}
		}
	},
}

func handleArrival(ctx context.Context, container *di.Container, watcher *fsnotify.Watcher, rows []services.SpreadsheetRow, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	// a new year folder joins the watch set
	if info.IsDir() {
		if err := watcher.Add(path); err != nil {
			container.Logger.Error("failed to watch new folder", zap.String("path", path), zap.Error(err))
		}
		return
	}

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return
	}

	// settle and ingest off the event loop so a large copy does not
	// stall delivery of further watcher events
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(settleDelay):
		}

		ingested, err := container.Ingestor.IngestFile(ctx, path, rows)
		switch {
		case err != nil:
			color.Red("failed: %s: %v", filepath.Base(path), err)
		case ingested:
			color.Green("ingested: %s", filepath.Base(path))
		default:
			color.Yellow("skipped: %s (no spreadsheet match)", filepath.Base(path))
		}
	}()
}
