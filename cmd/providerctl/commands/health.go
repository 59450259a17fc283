package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nulzo/provider-hub/internal/cli"
	"github.com/nulzo/provider-hub/pkg/api"
)

func newHealthCmd(opts *options) *cobra.Command {
	var (
		latest  bool
		history int
	)

	c := &cobra.Command{
		Use:   "health <provider>",
		Short: "Probe the health of a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("history") {
				if latest {
					return errors.New("--latest and --history cannot be combined")
				}
				return printHistory(cmd, opts, args[0], history)
			}

			status, err := opts.client().Health(cmd.Context(), args[0], latest)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				cli.PrettyPrint(cmd.OutOrStdout(), status)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s (%s, checked %s)\n",
				status.Provider,
				cli.StateBadge(status.State),
				status.Message,
				latencyColumn(status),
				status.LastCheckedAt.Local().Format("15:04:05"),
			)
			return nil
		},
	}

	c.Flags().BoolVar(&latest, "latest", false, "show the last reading of the background monitor instead of probing")
	c.Flags().IntVar(&history, "history", 20, "list up to N stored monitor readings instead of probing")
	return c
}

func printHistory(cmd *cobra.Command, opts *options, name string, limit int) error {
	readings, err := opts.client().HealthHistory(cmd.Context(), name, limit)
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		cli.PrettyPrint(cmd.OutOrStdout(), readings)
		return nil
	}
	if len(readings) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no stored readings for %s\n", name)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECKED\tSTATE\tLATENCY\tMESSAGE\t")
	for _, r := range readings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			r.LastCheckedAt.Local().Format("2006-01-02 15:04:05"),
			cli.StateBadge(r.State),
			latencyColumn(r),
			r.Message,
		)
	}
	return w.Flush()
}

func latencyColumn(s api.HealthStatus) string {
	if s.ResponseTimeMs == nil {
		return "-"
	}
	return fmt.Sprintf("%dms", *s.ResponseTimeMs)
}
