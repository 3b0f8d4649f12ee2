package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stampede/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List runs recorded with --history-db",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("history-db")
		if path == "" {
			return errors.New("no history database configured (set --history-db or history-db in the config file)")
		}

		store, err := storage.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.List()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tID\tURL\tWORKERS\tREQS\tRPS\tAVG (ms)\tP99 (ms)\tERRORS")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.2f\t%d\n",
				it.Timestamp.Local().Format(time.DateTime),
				shortID(it.ID),
				it.Config.URL,
				it.Config.Workers,
				it.Summary.Requests,
				it.Summary.RPS,
				it.Summary.AvgLatencyMs,
				it.Summary.P99LatencyMs,
				it.Summary.Fail,
			)
		}
		return w.Flush()
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
