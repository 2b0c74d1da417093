package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/theirongolddev/evbudget/internal/advisor"
	"github.com/theirongolddev/evbudget/internal/cli"
)

var flagAdviseRaw bool

var adviseCmd = &cobra.Command{
	Use:   "advise [question]",
	Short: "Ask the AI advisor about your budgets",
	Args:  cobra.ArbitraryArgs,
	RunE:  runAdvise,
}

func init() {
	adviseCmd.Flags().BoolVar(&flagAdviseRaw, "raw", false, "Print markdown without rendering")
	rootCmd.AddCommand(adviseCmd)
}

func runAdvise(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadState(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := newLogger()
	adv, err := loadAdvisor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if adv == nil {
		return advisor.ErrNoAPIKey
	}

	question := strings.Join(args, " ")
	if !flagQuiet {
		fmt.Fprintln(os.Stderr, "  Consultando al asesor...")
	}
	reply := adv.Ask(ctx, st.Snapshot(), question)

	if flagAdviseRaw {
		fmt.Println(reply)
		return nil
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = min(w, 100)
	}
	out, err := advisor.NewMarkdown(string(cli.ColorAccent)).Render(reply, width)
	if err != nil {
		logger.Debug("markdown render failed", "err", err)
	}
	fmt.Println()
	fmt.Println(out)
	return nil
}
