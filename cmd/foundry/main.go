package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/logging"
)

type globalConfig struct {
	LogFormat string `default:"" split_words:"true"`
	LogLevel  string `default:"info" split_words:"true"`
}

var (
	cfg               globalConfig
	log               *slog.Logger
	projectDir        string
	warehouses        string
	connectionProfile string
	kafkaClusters     string
)

func main() {
	if err := envconfig.Process("foundry", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "parse config: %v\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "foundry",
		Short:         "Compile and inspect a declarative data-pipeline project",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log = logging.New(logging.Config{
				Level:  parseLevel(cfg.LogLevel),
				Format: cfg.LogFormat,
			}, os.Stderr)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&projectDir, "project-dir", ".", "root directory to scan for source files")
	root.PersistentFlags().StringVar(&warehouses, "warehouse-sources", "", "path to a warehouse-sources YAML file")
	root.PersistentFlags().StringVar(&connectionProfile, "connection-profile", "", "path to an adapter connection-profile YAML file")
	root.PersistentFlags().StringVar(&kafkaClusters, "kafka-clusters", "", "path to a Kafka clusters YAML file")

	root.AddCommand(newCompileCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newToposortCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
