package util

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// InterruptContext returns a context that is canceled on SIGINT/SIGTERM.
// After canceling it removes unfinished "_tmp" folders under outputDir and
// exits.
func InterruptContext(parent context.Context, outputDir string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sig)

		select {
		case <-sig:
		case <-ctx.Done():
			return
		}

		fmt.Println("\nInterrupt received. Cleaning up...")
		cancel()

		CleanupUnfinishedTempFolders(outputDir)
		RemoveIfEmpty(outputDir)
		fmt.Println("\nExiting due to interrupt.")

		os.Exit(1)
	}()

	return ctx, cancel
}

func CleanupUnfinishedTempFolders(outputDir string) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() && strings.HasSuffix(name, "_tmp") {
			full := filepath.Join(outputDir, name)

			if err := os.RemoveAll(full); err != nil {
				fmt.Printf("Error cleaning up %s: %v\n", full, err)
			} else {
				fmt.Printf("Removed %s\n", full)
			}
		}
	}
}

func RemoveIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	if len(entries) == 0 {
		if err := os.Remove(dir); err == nil {
			fmt.Printf("Removed empty output folder: %s\n", dir)
		}
	}
}

func CleanupFolder(folder string) {
	_ = os.RemoveAll(folder)
}
