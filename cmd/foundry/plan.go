package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/dag"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <model>",
		Short: "Print the upstream+downstream execution order for one model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildCatalog(projectDir, warehouses)
			if err != nil {
				return err
			}

			g, err := dag.Build(store)
			if err != nil {
				return fmt.Errorf("build dag: %w", err)
			}

			nodes, err := g.GetModelExecutionOrder(args[0])
			if err != nil {
				return fmt.Errorf("plan %q: %w", args[0], err)
			}
			if nodes == nil {
				return fmt.Errorf("no node named %q", args[0])
			}

			for _, n := range nodes {
				cmd.Println(n.Name)
			}
			return nil
		},
	}
}

func newToposortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toposort",
		Short: "Print every registered node in a valid dependency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildCatalog(projectDir, warehouses)
			if err != nil {
				return err
			}

			g, err := dag.Build(store)
			if err != nil {
				return fmt.Errorf("build dag: %w", err)
			}

			order, err := g.Toposort()
			if err != nil {
				return fmt.Errorf("toposort: %w", err)
			}

			for _, name := range order {
				cmd.Println(name)
			}
			return nil
		},
	}
}
