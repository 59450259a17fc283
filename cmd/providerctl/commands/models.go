package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nulzo/provider-hub/internal/catalog"
	"github.com/nulzo/provider-hub/internal/cli"
)

func newModelsCmd(opts *options) *cobra.Command {
	var harvest string

	c := &cobra.Command{
		Use:   "models <provider>",
		Short: "Discover the models of a provider",
		Long: `Discover the models a provider serves. The settings override wins,
then the provider's live listing, then its built-in catalog.

Examples:
  providerctl models Tachyon
  providerctl models OpenAILike --key sk-...
  providerctl models Ollama --harvest config/models/ollama.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.client().Models(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if harvest != "" {
				if list.Source != string(catalog.SourceRemote) {
					return fmt.Errorf("nothing to harvest: %s answered from its %s catalog", args[0], list.Source)
				}
				added, err := catalog.Harvest(harvest, args[0], list.Data)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %d new model(s) written to %s\n", cli.CheckMark(), added, harvest)
				return nil
			}

			if opts.jsonOutput {
				cli.PrettyPrint(out, list)
				return nil
			}

			if list.Outcome == string(catalog.OutcomeFallback) {
				fmt.Fprintf(out, "%s using %s catalog: %s\n", cli.WarningSign(), list.Source, list.Reason)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tLABEL\tMAX TOKENS\t")
			for _, m := range list.Data {
				fmt.Fprintf(w, "%s\t%s\t%d\t\n", m.Name, m.Label, m.MaxTokenAllowed)
			}
			return w.Flush()
		},
	}

	c.Flags().StringVar(&harvest, "harvest", "", "merge the live listing into a YAML model catalog")
	return c
}
