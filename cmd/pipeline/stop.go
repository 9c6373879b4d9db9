package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop [machine-tag]",
	Short: "Stop running launch processes, SIGTERM first and SIGKILL after grace",
	Long: `stop signals every launch process recorded under the work store's
launchers directory. With a machine-tag argument, only that machine's
processes are signalled; with none, every launch process on this host is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStop,
}

func init() {
	stopCmd.Flags().Duration("grace", 30*time.Second, "Grace period before escalating to SIGKILL")
}

func runStop(cmd *cobra.Command, args []string) error {
	var machineTag string
	if len(args) == 1 {
		machineTag = args[0]
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	grace, _ := cmd.Flags().GetDuration("grace")

	entries, err := listPIDFiles(cfg.WorkStoreRoot)
	if err != nil {
		return fmt.Errorf("list launch processes: %w", err)
	}

	var targets []struct {
		pid  int
		path string
	}
	for _, e := range entries {
		if machineTag != "" && e.MachineTag != machineTag {
			continue
		}
		if !e.Alive {
			removePIDFile(e.Path)
			continue
		}
		targets = append(targets, struct {
			pid  int
			path string
		}{e.PID, e.Path})
	}

	if len(targets) == 0 {
		fmt.Println("No running launch processes found")
		return nil
	}

	for _, t := range targets {
		proc, err := os.FindProcess(t.pid)
		if err != nil {
			continue
		}
		fmt.Printf("Stopping pid %d (SIGTERM)\n", t.pid)
		_ = proc.Signal(syscall.SIGTERM)
	}

	deadline := time.Now().Add(grace)
	for _, t := range targets {
		for processAlive(t.pid) && time.Now().Before(deadline) {
			time.Sleep(200 * time.Millisecond)
		}
		if processAlive(t.pid) {
			fmt.Printf("Pid %d did not exit within grace period, sending SIGKILL\n", t.pid)
			if proc, err := os.FindProcess(t.pid); err == nil {
				_ = proc.Signal(syscall.SIGKILL)
			}
		}
		removePIDFile(t.path)
	}

	fmt.Println("✓ Stop complete")
	return nil
}
