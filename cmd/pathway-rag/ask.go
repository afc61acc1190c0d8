package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/rag"
)

var askVerbose bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := rag.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Stop()

		ans, err := svc.Ask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ans.Message)
		if askVerbose {
			fmt.Fprintf(out, "\nroute=%s rounds=%d run=%s\n%s\n", ans.Route, ans.Rounds, ans.RunID, strings.Join(ans.Trace, " -> "))
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "Print route, rounds and the state trace")
}
