package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/docpipeline/pkg/events"
	"github.com/cuemby/docpipeline/pkg/launcher"
	"github.com/cuemby/docpipeline/pkg/log"
	"github.com/cuemby/docpipeline/pkg/metrics"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/spf13/cobra"
)

var launchCmd = &cobra.Command{
	Use:   "launch <phase> <machine-tag>",
	Short: "Start this machine's configured instances for one phase",
	Long: `launch starts the instance count configured for machine-tag under
the named phase, splits the machine's configured index range evenly across
them, and supervises them until a termination signal is received.

Phase 4 (manual review) has no automatic run loop; use "pipeline review"
instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runLaunch,
}

func init() {
	launchCmd.Flags().Duration("poll-interval", 5*time.Second, "How often each instance polls for new work")
	launchCmd.Flags().Duration("grace", 30*time.Second, "Grace period before a SIGTERM'd instance is abandoned")
	launchCmd.Flags().Duration("reconcile-interval", 30*time.Second, "How often the launcher reconciles instance liveness")
	launchCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address the /metrics endpoint listens on")
}

func runLaunch(cmd *cobra.Command, args []string) error {
	phaseArg, machineTag := args[0], args[1]

	phase, err := parsePhase(phaseArg)
	if err != nil {
		return configErr(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	machineRange, ok := cfg.MachineRange(machineTag)
	if !ok {
		return configErr(fmt.Errorf("machine tag %q is not configured", machineTag))
	}

	settings, ok := cfg.PhaseSettings(phase.String())
	if !ok || settings.InstanceCount <= 0 {
		return configErr(fmt.Errorf("phase %s has no configured instance count for this machine", phase))
	}

	store, err := workstore.Open(cfg.WorkStoreRoot)
	if err != nil {
		return configErr(fmt.Errorf("open work store: %w", err))
	}

	secretsStore, err := openSecretsStore(cfg)
	if err != nil {
		return configErr(err)
	}

	runFactory, err := runFactoryFor(phase, cfg, store, secretsStore)
	if err != nil {
		return configErr(err)
	}

	pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
	grace, _ := cmd.Flags().GetDuration("grace")
	reconcileInterval, _ := cmd.Flags().GetDuration("reconcile-interval")

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sampleInterval := cfg.Resource.SampleInterval.Std()
	if sampleInterval <= 0 {
		sampleInterval = 2 * time.Second
	}
	monitor := buildMonitor(cfg, broker, sampleInterval)
	monitor.Start(ctx)
	defer monitor.Stop()

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	go func() {
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.WithComponent("launch").Warn().Err(err).Msg("metrics server stopped")
		}
	}()
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", metricsAddr)

	lch := launcher.NewLauncher(monitor)
	instances, err := lch.Launch(ctx, phase, machineTag, machineRange, settings.InstanceCount, runFactory, pollInterval)
	if err != nil {
		return configErr(fmt.Errorf("launch instances: %w", err))
	}
	metrics.InstancesRunning.WithLabelValues(phase.String()).Set(float64(len(instances)))

	lch.StartReconciler(ctx, reconcileInterval, cfg.StaleLockTTL.Std())
	defer lch.StopReconciler()

	pidPath := pidFilePath(cfg.WorkStoreRoot, phase.String(), machineTag)
	if err := writePIDFile(pidPath); err != nil {
		return configErr(fmt.Errorf("write pidfile: %w", err))
	}
	defer removePIDFile(pidPath)

	launchLog := log.WithComponent("launch").With().
		Str("phase", phase.String()).Str("machine_tag", machineTag).Logger()
	launchLog.Info().Int("instances", len(instances)).Msg("instances started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	launchLog.Info().Str("signal", sig.String()).Msg("shutting down")
	lch.Stop(machineTag, grace)
	metrics.InstancesRunning.WithLabelValues(phase.String()).Set(0)

	return exitErr(3, fmt.Errorf("aborted by signal %s", sig))
}
