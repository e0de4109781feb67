package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/usecase"
	"SignalDesk/pkg/logger"

	"github.com/spf13/cobra"
)

var buildFlags struct {
	anchor    float64
	segment   string
	timeframe string
	symbol    string
}

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Build a report from raw model output (a file, or stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		report, err := usecase.NewReportPipeline(nil, logger.Nop()).Build(cmd.Context(), models.ReportInput{
			RawText:     raw,
			AnchorPrice: buildFlags.anchor,
			Symbol:      strings.ToUpper(strings.TrimSpace(buildFlags.symbol)),
			Context: models.AnalysisContext{
				MarketSegment: models.NormalizeSegment(buildFlags.segment),
				Timeframe:     buildFlags.timeframe,
			},
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	f := buildCmd.Flags()
	f.Float64Var(&buildFlags.anchor, "anchor", 0, "current price of the instrument")
	f.StringVar(&buildFlags.segment, "segment", string(models.DefaultSegment()), "market segment (CRYPTO, US_EQUITY, A_SHARE, FOREX)")
	f.StringVar(&buildFlags.timeframe, "timeframe", "1D", "chart timeframe")
	f.StringVar(&buildFlags.symbol, "symbol", "", "instrument ticker")
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(b), nil
}
