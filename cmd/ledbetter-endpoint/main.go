package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledbetter-fw/endpoint/internal/config"
	"github.com/ledbetter-fw/endpoint/internal/control"
	"github.com/ledbetter-fw/endpoint/internal/driver"
	"github.com/ledbetter-fw/endpoint/internal/logging"
	"github.com/ledbetter-fw/endpoint/internal/sink"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ledbetter-endpoint",
	Short: "LED driver endpoint",
	Long:  "Runs the control-plane client, sandboxed program driver, and LED output loop for one physical installation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cfgFile)
	},
}

func main() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "path to TOML config file")
	rootCmd.MarkFlagRequired("config")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	result := cfg.Validate()

	output, closeOutput, err := buildLogOutput(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeOutput()

	logging.Init(cfg.LogFormat, cfg.LogLevel, output)
	log := logging.L("main")

	for _, w := range result.Warnings {
		log.Warn("config warning", "error", w)
	}
	if result.HasFatals() {
		for _, f := range result.Fatals {
			log.Error("config error", "error", f)
		}
		return fmt.Errorf("invalid configuration")
	}

	l := cfg.ToLayout()

	sinkFactory, err := sink.FactoryFor(cfg.Output.Target, cfg.Output.Pins)
	if err != nil {
		return fmt.Errorf("resolve output backend: %w", err)
	}

	drv := driver.New(l, cfg.RenderFreq, sinkFactory)
	controller := control.NewController(cfg.Name, drv)
	client := control.NewClient(cfg.Controller.Host, cfg.Controller.Port, controller)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("starting control session", "controller", fmt.Sprintf("%s:%d", cfg.Controller.Host, cfg.Controller.Port), "name", cfg.Name)

	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("control client: %w", err)
	}
	return nil
}

// buildLogOutput returns the writer log output should go to, plus a cleanup
// func to run on shutdown. With no log file configured, it's stderr alone;
// otherwise stderr is teed with a rotating file writer.
func buildLogOutput(logFile string) (io.Writer, func() error, error) {
	if logFile == "" {
		return os.Stderr, func() error { return nil }, nil
	}
	rw, err := logging.NewRotatingWriter(logFile, 0, 0)
	if err != nil {
		return nil, nil, err
	}
	return logging.TeeWriter(os.Stderr, rw), rw.Close, nil
}
