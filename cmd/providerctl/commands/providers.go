package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nulzo/provider-hub/internal/cli"
	"github.com/nulzo/provider-hub/pkg/api"
)

func newProvidersCmd(opts *options) *cobra.Command {
	var onlyEnabled bool

	c := &cobra.Command{
		Use:   "providers",
		Short: "List registered providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			providers, err := opts.client().Providers(cmd.Context(), onlyEnabled)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				cli.PrettyPrint(cmd.OutOrStdout(), providers)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tSTATUS\tBASE URL\tMODELS\t")
			for _, p := range providers {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
					p.Name, p.Type, cli.EnabledBadge(p.Enabled), orDash(p.Settings.BaseURL), modelsColumn(p))
			}
			return w.Flush()
		},
	}

	c.Flags().BoolVar(&onlyEnabled, "enabled", false, "only list enabled providers")
	return c
}

func newToggleCmd(opts *options, enable bool) *cobra.Command {
	use, short := "disable <provider>", "Disable a provider"
	if enable {
		use, short = "enable <provider>", "Enable a provider"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.client().UpdateSettings(cmd.Context(), args[0], api.SettingsPatch{Enabled: &enable})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", view.Name, cli.EnabledBadge(view.Enabled))
			return nil
		},
	}
}

func newSetCmd(opts *options) *cobra.Command {
	var baseURL, apiKey, models string

	c := &cobra.Command{
		Use:   "set <provider>",
		Short: "Update provider settings",
		Long: `Update the settings overlay of a provider. Only flags that are given
are changed; pass an empty value to clear a field.

Examples:
  providerctl set Ollama --base-url http://gpu-box:11434/v1
  providerctl set Tachyon --models "tachyon-model, tachyon-small"
  providerctl set OpenAILike --api-key ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch api.SettingsPatch
			if cmd.Flags().Changed("base-url") {
				patch.BaseURL = &baseURL
			}
			if cmd.Flags().Changed("api-key") {
				patch.APIKey = &apiKey
			}
			if cmd.Flags().Changed("models") {
				patch.Models = &models
			}
			if patch.BaseURL == nil && patch.APIKey == nil && patch.Models == nil {
				return fmt.Errorf("nothing to update: pass --base-url, --api-key or --models")
			}

			view, err := opts.client().UpdateSettings(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				cli.PrettyPrint(cmd.OutOrStdout(), view)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s settings updated\n", cli.CheckMark(), view.Name)
			return nil
		},
	}

	c.Flags().StringVar(&baseURL, "base-url", "", "endpoint override")
	c.Flags().StringVar(&apiKey, "api-key", "", "stored API key")
	c.Flags().StringVar(&models, "models", "", "comma separated model list override")
	return c
}

func modelsColumn(p api.ProviderView) string {
	if p.Settings.Models != "" {
		return p.Settings.Models
	}
	names := make([]string, 0, len(p.StaticModels))
	for _, m := range p.StaticModels {
		names = append(names, m.Name)
	}
	return orDash(strings.Join(names, ","))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
