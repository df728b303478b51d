package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/kafkaconnector"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/modelcompiler"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/pconfig"
)

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a single registered artifact",
	}
	cmd.AddCommand(newCompileModelCmd())
	cmd.AddCommand(newCompileConnectorCmd())
	return cmd
}

func newCompileModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model <name>",
		Short: "Compile a model's macro calls into a drop+create statement pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildCatalog(projectDir, warehouses)
			if err != nil {
				return err
			}

			model, err := store.GetModel(args[0])
			if err != nil {
				return fmt.Errorf("model %q: %w", args[0], err)
			}

			sql, err := modelcompiler.Compile(store, model, modelcompiler.WarehouseSourceResolver(store))
			if err != nil {
				return fmt.Errorf("compile model %q: %w", args[0], err)
			}

			cmd.Println(sql)
			return nil
		},
	}
}

func newCompileConnectorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connector <name>",
		Short: "Compile a registered connector into a Kafka Connect worker config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildCatalog(projectDir, warehouses)
			if err != nil {
				return err
			}

			meta, err := store.GetKafkaConnector(args[0])
			if err != nil {
				return fmt.Errorf("connector %q: %w", args[0], err)
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

			compiled, err := kafkaconnector.Compile(store, meta, clusters, adapters)
			if err != nil {
				return fmt.Errorf("compile connector %q: %w", args[0], err)
			}

			cmd.Println(compiled.JSON)
			return nil
		},
	}
}
