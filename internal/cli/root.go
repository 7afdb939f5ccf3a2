// Package cli implements the image_to_pdf command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"image_to_pdf/internal/config"
	"image_to_pdf/internal/logging"
)

var (
	cfgFile    string
	logLevel   string
	cpuprofile string
	memprofile string

	cfg        *config.Config
	logger     *slog.Logger
	cpuProfile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "image_to_pdf",
	Short: "Convert images into a single PDF document",
	Long: `image_to_pdf turns an ordered list of JPEG, PNG, GIF and WEBP images into one PDF,
one full-page image per page, with a quality setting that scales page dimensions
and editable document metadata.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	rootCmd.PersistentFlags().StringVar(&memprofile, "memprofile", "", "write memory profile to `file`")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		cpuProfile = f
		logger.Info("CPU profiling enabled", "output", cpuprofile)
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if cpuProfile != nil {
		pprof.StopCPUProfile()
		cpuProfile.Close()
		cpuProfile = nil
	}

	if memprofile != "" {
		f, err := os.Create(memprofile)
		if err != nil {
			return fmt.Errorf("could not create memory profile: %w", err)
		}
		defer f.Close()
		runtime.GC() // Get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("could not write memory profile: %w", err)
		}
		logger.Info("Memory profile written", "output", memprofile)
	}
	return nil
}
