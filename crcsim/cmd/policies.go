package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/crcrepl/replacement"
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the replacement policies and their codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listPolicies(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(policiesCmd)
}

func listPolicies(w io.Writer) error {
	for _, p := range replacement.Policies() {
		status := "implemented"
		if !p.Implemented() {
			status = "not implemented"
		}

		if _, err := fmt.Fprintf(w, "%d\t%-8s\t%s\n", int(p), p, status); err != nil {
			return err
		}
	}

	return nil
}
