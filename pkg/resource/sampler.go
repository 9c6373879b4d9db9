package resource

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Sample is one snapshot of the four signals the monitor tracks.
type Sample struct {
	CPUPercent    float64
	MemoryPercent float64
	GPUPercent    float64 // 0 when no accelerator is present
	DiskFreeGiB   float64
	Cores         int
	TotalRAMGiB   float64
}

// Sampler reads the four resource signals from the host. Production code
// uses gopsutilSampler; tests substitute a fixed-value stub.
type Sampler interface {
	Sample(ctx context.Context) (Sample, error)
}

// gopsutilSampler reads live host metrics via gopsutil. GPU utilization is
// left at 0 here: the pack carries no GPU-telemetry library, so GPU
// sampling is plugged in by GPUProbe (see gpu.go) when an accelerator
// vendor tool is available on the host.
type gopsutilSampler struct {
	diskPath string
	gpu      GPUProbe
}

// NewSampler builds a Sampler that reports free disk space for diskPath
// (typically the work store root) and GPU utilization via probe. A nil
// probe disables GPU sampling (reported as 0).
func NewSampler(diskPath string, probe GPUProbe) Sampler {
	if probe == nil {
		probe = noGPU{}
	}
	return &gopsutilSampler{diskPath: diskPath, gpu: probe}
}

func (s *gopsutilSampler) Sample(ctx context.Context) (Sample, error) {
	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return Sample{}, err
	}
	var cpuPct float64
	if len(cpuPercents) > 0 {
		cpuPct = cpuPercents[0]
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		cores = 1
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Sample{}, err
	}

	du, err := disk.UsageWithContext(ctx, s.diskPath)
	if err != nil {
		return Sample{}, err
	}

	gpuPct, _ := s.gpu.Percent(ctx)

	const giB = 1024 * 1024 * 1024
	return Sample{
		CPUPercent:    cpuPct,
		MemoryPercent: vm.UsedPercent,
		GPUPercent:    gpuPct,
		DiskFreeGiB:   float64(du.Free) / giB,
		Cores:         cores,
		TotalRAMGiB:   float64(vm.Total) / giB,
	}, nil
}
