package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/repository"
	"github.com/saturnino-fabrica-de-software/ponto/internal/service"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the daily attendance summaries of a date range",
	Long: `Report prints, for every day of the range with attendance, each user's
sessions and total worked time. Both dates are inclusive and default to today
in ATTENDANCE_TIMEZONE.

Examples:
  # Today
  ponto report

  # A whole month as JSON
  ponto report --from 2026-03-01 --to 2026-03-31 --json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("from", "", "First day, YYYY-MM-DD (default today)")
	reportCmd.Flags().String("to", "", "Last day, YYYY-MM-DD (default --from)")
	reportCmd.Flags().Bool("json", false, "Output as JSON instead of a table")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := service.NewAttendanceService(
		repository.NewAttendanceRepository(pool),
		repository.NewUserRepository(pool),
		loc,
		logger,
	)

	from, err := dayFlag(cmd, "from", svc.Today())
	if err != nil {
		return err
	}
	to, err := dayFlag(cmd, "to", from)
	if err != nil {
		return err
	}

	summaries, err := svc.Report(ctx, from, to)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(summaries)
	}
	return printReport(os.Stdout, summaries)
}

func dayFlag(cmd *cobra.Command, name string, def domain.Day) (domain.Day, error) {
	raw := mustGetString(cmd, name)
	if raw == "" {
		return def, nil
	}
	day, err := domain.ParseDay(raw)
	if err != nil {
		return domain.Day{}, fmt.Errorf("--%s must be formatted as YYYY-MM-DD: %w", name, err)
	}
	return day, nil
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

func printReport(out io.Writer, summaries []domain.DailySummary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(out, "No attendance in range")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tNUMBER\tUSERNAME\tSESSIONS\tTOTAL")
	for _, s := range summaries {
		number := "-"
		if s.UserNumber != nil {
			number = strconv.Itoa(*s.UserNumber)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.Day, number, s.Username, len(s.Sessions), s.TotalDuration)
	}
	return w.Flush()
}
