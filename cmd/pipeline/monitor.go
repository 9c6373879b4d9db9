package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/docpipeline/pkg/health"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print a one-shot resource snapshot and collaborator health check",
	Args:  cobra.NoArgs,
	RunE:  runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sampler := buildSamplerOnly(cfg)
	sample, err := sampler.Sample(context.Background())
	if err != nil {
		return fmt.Errorf("sample host resources: %w", err)
	}

	thresholds := cfg.Thresholds()
	throttled := sample.CPUPercent > thresholds.CPUPercent ||
		sample.MemoryPercent > thresholds.MemoryPercent ||
		(thresholds.GPUPercent > 0 && sample.GPUPercent > thresholds.GPUPercent) ||
		sample.DiskFreeGiB < thresholds.MinFreeDiskGiB

	fmt.Printf("CPU:    %.1f%% (threshold %.1f%%)\n", sample.CPUPercent, thresholds.CPUPercent)
	fmt.Printf("Memory: %.1f%% (threshold %.1f%%)\n", sample.MemoryPercent, thresholds.MemoryPercent)
	fmt.Printf("GPU:    %.1f%% (threshold %.1f%%)\n", sample.GPUPercent, thresholds.GPUPercent)
	fmt.Printf("Disk:   %.1f GiB free (minimum %.1f GiB)\n", sample.DiskFreeGiB, thresholds.MinFreeDiskGiB)
	fmt.Printf("Throttled: %v\n", throttled)

	fmt.Println()
	fmt.Println("Collaborator endpoints:")
	checks := map[string]health.Checker{
		"ocr":               health.NewHTTPChecker(cfg.OCR.URL),
		"inference:small":   health.NewHTTPChecker(cfg.Inference.Small.URL),
		"inference:medium":  health.NewHTTPChecker(cfg.Inference.Medium.URL),
		"inference:large":   health.NewHTTPChecker(cfg.Inference.Large.URL),
		"external_model":    health.NewHTTPChecker(cfg.ExternalModel.URL),
		"delivery":          health.NewHTTPChecker(cfg.Delivery.URL),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unhealthy := 0
	for _, name := range []string{"ocr", "inference:small", "inference:medium", "inference:large", "external_model", "delivery"} {
		c := checks[name]
		result := c.Check(ctx)
		mark := "✓"
		if !result.Healthy {
			mark = "✗"
			unhealthy++
		}
		fmt.Printf("  %s %-18s %s\n", mark, name, result.Message)
	}

	if throttled || unhealthy > 0 {
		return exitErr(3, fmt.Errorf("host throttled or %d collaborator(s) unhealthy", unhealthy))
	}
	return nil
}
