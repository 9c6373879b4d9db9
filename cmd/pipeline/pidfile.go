package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// launchersDir is the directory a launch process records its presence in,
// separate from workstore's own locks/phase{N}/ item-claim locks: a launch
// pidfile identifies a supervisor process, not an item claim.
func launchersDir(workStoreRoot string) string {
	return filepath.Join(workStoreRoot, "launchers")
}

func pidFilePath(workStoreRoot, phaseKey, machineTag string) string {
	return filepath.Join(launchersDir(workStoreRoot), fmt.Sprintf("%s.%s.pid", phaseKey, machineTag))
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create launchers directory: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func removePIDFile(path string) {
	_ = os.Remove(path)
}

// pidFileEntry is one discovered launch process: the phase/machine tag it
// was started for, and whether its recorded PID still answers to signal 0.
type pidFileEntry struct {
	Path       string
	PhaseKey   string
	MachineTag string
	PID        int
	Alive      bool
}

func listPIDFiles(workStoreRoot string) ([]pidFileEntry, error) {
	dir := launchersDir(workStoreRoot)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list launchers directory: %w", err)
	}

	var out []pidFileEntry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pid") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".pid")
		parts := strings.SplitN(name, ".", 2)
		if len(parts) != 2 {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			continue
		}
		out = append(out, pidFileEntry{
			Path:       path,
			PhaseKey:   parts[0],
			MachineTag: parts[1],
			PID:        pid,
			Alive:      processAlive(pid),
		})
	}
	return out, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
