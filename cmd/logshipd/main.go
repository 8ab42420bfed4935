// Command logshipd tails one or more log sources, runs each record through
// a configured transform pipeline, and ships it to one or more sinks with
// durable, ack-driven checkpointing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/logship/logshipd/internal/config"
	"github.com/logship/logshipd/internal/daemon"
	"github.com/logship/logshipd/internal/logging"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("logshipd", pflag.ContinueOnError)
	configFile := flags.String("config-file", "", "path to the configuration document")
	logFile := flags.String("log-file", "", "path to the process log (default: stdout)")
	check := flags.Bool("check", false, "validate the configuration, list routes, and exit")
	showVersion := flags.BoolP("version", "V", false, "print the version and exit")
	help := flags.BoolP("help", "h", false, "show this help text")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *help {
		fmt.Fprintln(os.Stdout, "usage: logshipd --config-file <path> [--log-file <path>] [--check]")
		flags.PrintDefaults()
		return 0
	}
	if *showVersion {
		fmt.Fprintln(os.Stdout, "logshipd "+version)
		return 0
	}
	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "logshipd: --config-file is required")
		return 1
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logshipd: configuration error:", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "logshipd: configuration error:", err)
		return 1
	}

	out, err := logging.OpenLogFile(firstNonEmpty(*logFile, cfg.Globals.LogFile))
	if err != nil {
		fmt.Fprintln(os.Stderr, "logshipd: cannot open log file:", err)
		return 1
	}
	logging.Init(out, logrus.InfoLevel)
	log := logging.With("main")

	stateDir := filepath.Dir(*configFile)
	reg, err := daemon.Build(cfg, stateDir)
	if err != nil {
		log.WithError(err).Error("failed to build plugins")
		return 1
	}

	sup, err := daemon.New(cfg, reg, cfg.ChannelCapacity())
	if err != nil {
		log.WithError(err).Error("failed to wire routes")
		return 1
	}

	if *check {
		fmt.Fprintln(os.Stdout, "configuration OK, routes:")
		for _, id := range sup.RouteIDs() {
			fmt.Fprintln(os.Stdout, " -", id)
		}
		return 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := sup.Start(ctx)
	if started == 0 && len(sup.RouteIDs()) > 0 {
		log.Error("every route failed to start")
		cancel()
		return 2
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Infof("received %s, shutting down", sig)

	cancel()
	sup.Stop()

	if sig == syscall.SIGINT {
		return 130
	}
	return 0
}

func loadConfig(path string) (*config.Daemon, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg config.Daemon
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
