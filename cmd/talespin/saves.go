package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"talespin/internal/session"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "List save slots in the TALESPIN_DB database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DB == "" {
			return errors.New("TALESPIN_DB is not set")
		}
		store, err := session.OpenSQLite(cfg.DB)
		if err != nil {
			return err
		}
		defer store.Close()
		slots, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLOT\tTITLE\tUPDATED")
		for _, s := range slots {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Title, s.UpdatedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(savesCmd)
}
