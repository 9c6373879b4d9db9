package main

import (
	"fmt"

	"github.com/cuemby/docpipeline/pkg/launcher"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print per-phase completed/failed/deferred counts and running instances",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := workstore.Open(cfg.WorkStoreRoot)
	if err != nil {
		return configErr(fmt.Errorf("open work store: %w", err))
	}

	// status runs as its own process, so it never holds the in-process
	// Launcher of a running "launch" invocation; RunningInstances is
	// reconstructed from the pidfiles launch processes leave behind.
	report, err := launcher.Report(store, nil)
	if err != nil {
		return fmt.Errorf("build status report: %w", err)
	}

	pidEntries, err := listPIDFiles(cfg.WorkStoreRoot)
	if err != nil {
		return fmt.Errorf("list launch processes: %w", err)
	}
	running := make(map[string]int, len(pidEntries))
	for _, e := range pidEntries {
		if e.Alive {
			running[e.PhaseKey]++
		}
	}

	failedTotal := 0
	fmt.Printf("%-8s %-10s %-8s %-10s %s\n", "PHASE", "COMPLETED", "FAILED", "DEFERRED", "RUNNING")
	for _, p := range report.Phases {
		fmt.Printf("%-8s %-10d %-8d %-10d %d\n", p.Phase, p.Completed, p.Failed, p.Deferred, running[p.Phase.String()])
		failedTotal += p.Failed
	}

	if failedTotal > 0 {
		return exitErr(2, fmt.Errorf("%d item(s) failed across all phases", failedTotal))
	}
	return nil
}
