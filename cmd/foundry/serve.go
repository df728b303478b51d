package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/api"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalogstore"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/pconfig"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string
	var stateDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only catalog inspection API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildCatalog(projectDir, warehouses)
			if err != nil {
				return err
			}

			if stateDir != "" {
				debugStore, err := catalogstore.Open(stateDir)
				if err != nil {
					return fmt.Errorf("open catalog debug store: %w", err)
				}
				defer debugStore.Close()

				if err := debugStore.Flush(store); err != nil {
					return fmt.Errorf("flush catalog snapshot: %w", err)
				}
			}

			clusters, err := loadKafkaClusters(kafkaClusters)
			if err != nil {
				return fmt.Errorf("load kafka clusters: %w", err)
			}
			var adapters map[string]pconfig.AdapterConnectionConfig
			if connectionProfile != "" {
				adapters, err = pconfig.LoadConnectionProfile(connectionProfile)
				if err != nil {
					return fmt.Errorf("load connection profile: %w", err)
				}
			}

			handler := api.NewRouter(log, store, clusters, adapters)
			httpServer := server.NewHTTPServer(addr, 15*time.Second, 15*time.Second, 5*time.Minute, log, handler, len(store.CollectCatalogNodes()))

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

			serverErr := make(chan error, 1)
			go func() { serverErr <- httpServer.Start() }()

			select {
			case err := <-serverErr:
				return err
			case <-shutdown:
				log.Info("shutdown signal received")
				return httpServer.Shutdown(30 * time.Second)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "optional directory to snapshot the registered catalog into on startup")

	return cmd
}
