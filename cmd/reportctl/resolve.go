package main

import (
	"os"
	"strings"

	"SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/inference"
	"SignalDesk/internal/services/symbol"
	"SignalDesk/pkg/logger"

	"github.com/spf13/cobra"
)

var offline bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <query>",
	Short: "Resolve a free-text query to an exchange-qualified ticker",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var inf service.Inference
		if key := os.Getenv("GEMINI_API_KEY"); key != "" && !offline {
			g, err := inference.NewGemini(cmd.Context(), inference.Config{
				APIKey: key,
				Model:  os.Getenv("GEMINI_MODEL"),
				Retry:  inference.DefaultRetryPolicy(),
			}, logger.Nop())
			if err != nil {
				return err
			}
			inf = g
		}

		res, err := symbol.NewResolver(inf).Resolve(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&offline, "offline", false, "skip inference and use the heuristic only")
}
