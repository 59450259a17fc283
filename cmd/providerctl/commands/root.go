// Package commands provides the providerctl CLI commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nulzo/provider-hub/cmd"
)

type options struct {
	server     string
	sessionKey string
	jsonOutput bool
}

// NewRootCmd builds the command tree. Tests build their own tree per case.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "providerctl",
		Short: "Inspect and configure the providers of a provider-hub server",
		Long: `providerctl lists providers, discovers their models, probes their
health and edits their settings through the provider-hub HTTP API.`,
		Version:       cmd.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("PROVIDER_HUB_URL")
	if server == "" {
		server = "http://localhost:8080"
	}

	root.PersistentFlags().StringVar(&opts.server, "server", server, "provider-hub base URL")
	root.PersistentFlags().StringVar(&opts.sessionKey, "key", "", "session API key sent for the selected provider")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print raw JSON")

	root.AddCommand(
		newProvidersCmd(opts),
		newModelsCmd(opts),
		newHealthCmd(opts),
		newToggleCmd(opts, true),
		newToggleCmd(opts, false),
		newSetCmd(opts),
	)

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) client() *Client {
	return NewClient(o.server, o.sessionKey, nil)
}
