package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cuemby/docpipeline/pkg/config"
	"github.com/cuemby/docpipeline/pkg/correspondent"
	"github.com/cuemby/docpipeline/pkg/delivery"
	"github.com/cuemby/docpipeline/pkg/events"
	"github.com/cuemby/docpipeline/pkg/extclients"
	"github.com/cuemby/docpipeline/pkg/launcher"
	"github.com/cuemby/docpipeline/pkg/log"
	"github.com/cuemby/docpipeline/pkg/phase1"
	"github.com/cuemby/docpipeline/pkg/phase2"
	"github.com/cuemby/docpipeline/pkg/phase3"
	"github.com/cuemby/docpipeline/pkg/resource"
	"github.com/cuemby/docpipeline/pkg/rules"
	"github.com/cuemby/docpipeline/pkg/secrets"
	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/spf13/cobra"
)

// parsePhase maps a CLI phase argument ("phase1".."phase5") to its
// types.Phase value.
func parsePhase(arg string) (types.Phase, error) {
	for p := types.Phase1; p <= types.Phase5; p++ {
		if p.String() == arg {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q (want phase1..phase5)", arg)
}

// loadConfig reads and validates the configuration file named by the
// root command's --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, configErr(err)
	}
	return cfg, nil
}

// openSecretsStore opens the encrypted credentials store named by cfg, or
// returns a nil store (not an error) when no store is configured — a
// deployment that only uses "env:NAME" secret references never needs one.
func openSecretsStore(cfg *config.Config) (*secrets.Store, error) {
	if cfg.SecretsStorePath == "" {
		return nil, nil
	}
	passphrase := os.Getenv(cfg.SecretsPassphraseEnv)
	if passphrase == "" {
		return nil, fmt.Errorf("environment variable %s (secrets passphrase) is not set", cfg.SecretsPassphraseEnv)
	}
	return secrets.LoadFromPassphrase(cfg.SecretsStorePath, passphrase)
}

// buildSamplerOnly builds the Sampler alone, for one-shot reads (the
// monitor subcommand) that don't need a running Monitor loop.
func buildSamplerOnly(cfg *config.Config) resource.Sampler {
	return resource.NewSampler(cfg.WorkStoreRoot, nil)
}

// buildMonitor constructs the Resource Monitor a launch process samples
// host load through for its throttle signal and recommended instance count.
func buildMonitor(cfg *config.Config, broker *events.Broker, sampleInterval time.Duration) *resource.Monitor {
	sampler := resource.NewSampler(cfg.WorkStoreRoot, nil)
	return resource.NewMonitor(sampler, cfg.Thresholds(), sampleInterval, broker, log.WithComponent("resource"))
}

// runFactoryFor builds the launcher.RunFunc factory for phase, wiring the
// external collaborator clients and workers the phase needs from cfg.
// Phase 4 (manual review) has no automatic run loop — launch rejects it
// and directs the operator to the review subcommand.
func runFactoryFor(phase types.Phase, cfg *config.Config, store *workstore.Store, secretsStore *secrets.Store) (func(launcher.Range) launcher.RunFunc, error) {
	ownerHost := phase1.DefaultOwnerHost()

	switch phase {
	case types.Phase1:
		table, err := rules.NewDefaultTable()
		if err != nil {
			return nil, fmt.Errorf("build rule table: %w", err)
		}
		ocr := extclients.NewOCRClient(cfg.OCR.URL, "", cfg.OCR.Timeout.Std())
		w := phase1.New(store, table, ocr, phase1.Config{
			OwnerHost:  ownerHost,
			OCRTimeout: cfg.OCR.Timeout.Std(),
		})
		return func(r launcher.Range) launcher.RunFunc {
			return func(ctx context.Context) error {
				items, err := store.ScanInput()
				if err != nil {
					return fmt.Errorf("scan input: %w", err)
				}
				_, _, err = w.ProcessRange(ctx, items, r.From, r.To)
				return err
			}
		}, nil

	case types.Phase2:
		settings, _ := cfg.PhaseSettings("phase2")
		small := extclients.NewInferenceClient(cfg.Inference.Small.URL, "", settings.Timeout.Std())
		medium := extclients.NewInferenceClient(cfg.Inference.Medium.URL, "", settings.Timeout.Std())
		large := extclients.NewInferenceClient(cfg.Inference.Large.URL, "", settings.Timeout.Std())
		ladder := phase2.NewLadder(small, medium, large, nil)
		w := phase2.New(store, ladder, ownerHost)
		return func(launcher.Range) launcher.RunFunc {
			return func(ctx context.Context) error {
				_, _, err := w.ProcessPending(ctx)
				return err
			}
		}, nil

	case types.Phase3:
		settings, _ := cfg.PhaseSettings("phase3")
		token, err := config.ResolveSecret(secretsStore, cfg.ExternalModel.APITokenRef)
		if err != nil {
			return nil, fmt.Errorf("resolve external model token: %w", err)
		}
		client := extclients.NewExternalModelClient(
			cfg.ExternalModel.URL, token,
			cfg.ExternalModel.RequestsPerSecond, cfg.ExternalModel.Burst,
			settings.Timeout.Std(),
		)
		budget, err := phase3.OpenBudgetTracker(cfg.WorkStoreRoot)
		if err != nil {
			return nil, fmt.Errorf("open budget tracker: %w", err)
		}
		w := phase3.New(store, client, budget, phase3.Config{
			OwnerHost:    ownerHost,
			ModelName:    cfg.ExternalModel.Model,
			DailyCeiling: cfg.ExternalModel.DailyCeiling,
			CostPerCall:  cfg.ExternalModel.CostPerCall,
		})
		return func(launcher.Range) launcher.RunFunc {
			return func(ctx context.Context) error {
				_, _, _, err := w.ProcessPending(ctx)
				return err
			}
		}, nil

	case types.Phase5:
		if cfg.CorrespondentMappingsPath != "" {
			if err := correspondent.LoadMappings(cfg.CorrespondentMappingsPath); err != nil {
				return nil, fmt.Errorf("load correspondent mappings: %w", err)
			}
		}
		token, err := config.ResolveSecret(secretsStore, cfg.Delivery.TokenRef)
		if err != nil {
			return nil, fmt.Errorf("resolve delivery token: %w", err)
		}
		settings, _ := cfg.PhaseSettings("phase5")
		client := extclients.NewDeliveryClient(cfg.Delivery.URL, token, settings.Timeout.Std())
		dir, err := correspondent.OpenDirectory(cfg.WorkStoreRoot)
		if err != nil {
			return nil, fmt.Errorf("open correspondent directory: %w", err)
		}
		items, err := store.ScanInput()
		if err != nil {
			return nil, fmt.Errorf("scan input: %w", err)
		}
		w := delivery.New(store, client, dir, items)
		return func(launcher.Range) launcher.RunFunc {
			return func(ctx context.Context) error {
				_, _, _, err := w.DeliverAll(ctx)
				return err
			}
		}, nil
	}

	return nil, fmt.Errorf("phase %s has no automatic run loop; use 'pipeline review' for manual review", phase)
}
