// Command pipeline is the CLI entrypoint shared by every worker and
// launcher in the fleet: one binary, one subcommand per verb (launch,
// status, stop, monitor, review), all driven by a single YAML
// configuration file.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cuemby/docpipeline/pkg/log"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ec *exitCodeErr
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "pipeline",
	Short:   "Distributed email/document extraction pipeline",
	Long:    `pipeline launches, supervises, and reports on the phase workers that turn incoming email/document envelopes into delivered, field-tagged documents.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("pipeline version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("config", "config.yaml", "Path to the pipeline's YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(reviewCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// exitCodeErr wraps an error with the process exit code it should produce,
// per the CLI's documented codes: 0 success, 1 configuration error, 2
// partial completion, 3 aborted by throttle or signal.
type exitCodeErr struct {
	code int
	err  error
}

func (e *exitCodeErr) Error() string { return e.err.Error() }
func (e *exitCodeErr) Unwrap() error { return e.err }

func exitErr(code int, err error) error { return &exitCodeErr{code: code, err: err} }

func configErr(err error) error { return exitErr(1, err) }
