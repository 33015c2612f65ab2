package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/CherkashinEvgeny/goadvice/advice"
	"github.com/CherkashinEvgeny/goadvice/manifest"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the advice a manifest declares, in execution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.config.GetString("inspect.manifest")
			if path == "" {
				return errors.New("--manifest is required")
			}
			m, err := manifest.Load(path)
			if err != nil {
				return err
			}
			registry := advice.NewRegistry()
			if err = m.Apply(registry); err != nil {
				return err
			}
			a.logger.Debug().Str("manifest", path).Int("targets", len(m.Targets())).Msg("manifest loaded")
			return printAdvice(cmd.OutOrStdout(), registry.All())
		},
	}
	cmd.Flags().String("manifest", "", "advice manifest")
	_ = a.config.BindPFlag("inspect.manifest", cmd.Flags().Lookup("manifest"))
	return cmd
}

func printAdvice(w io.Writer, snapshot advice.Snapshot) error {
	for _, target := range sortedKeys(snapshot) {
		if _, err := fmt.Fprintf(w, "Intercepting :: %s\n", target); err != nil {
			return err
		}
		methods := snapshot[target]
		for _, method := range sortedKeys(methods) {
			for _, phase := range advice.Phases {
				for _, e := range advice.SortByPriority(methods[method][phase]) {
					_, err := fmt.Fprintf(w, "  %s\t%s\t%s\t%d\n", method, phase, e.ID, e.Priority)
					if err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
