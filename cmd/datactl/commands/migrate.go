package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lfpl47/hiring-data-service/internal/config"
	"github.com/lfpl47/hiring-data-service/internal/domain"
	"github.com/lfpl47/hiring-data-service/internal/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [table]",
	Short: "Migrate CSV bulk sources into the database with validation",
	Long: `Reads the CSV sources declared in the sources file, validates every
record and commits accepted records in bounded batches. Without an argument
all configured tables migrate in dependency order (departments, jobs,
hired_employees). Interrupting with Ctrl-C stops at the next batch boundary;
committed batches stay committed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, cleanup, err := newRuntime(ctx)
		if err != nil {
			red.Println(err)
			return err
		}
		defer cleanup()

		sources, err := config.LoadSources(rt.cfg.Ingest.SourcesPath)
		if err != nil {
			red.Println(err)
			return err
		}

		driver := migration.NewDriver(migration.Dependencies{
			Ingestor:   rt.ingestor,
			Reports:    rt.reports,
			Dispatcher: rt.dispatcher,
			Sources:    sources,
			Logger:     rt.logger,
		})

		var reports []migration.RunReport
		if len(args) == 1 {
			kind, kerr := domain.ParseEntityKind(args[0])
			if kerr != nil {
				red.Println(kerr)
				return kerr
			}
			report, merr := driver.Migrate(ctx, kind)
			reports = append(reports, report)
			err = merr
		} else {
			reports, err = driver.MigrateAll(ctx)
		}

		for _, report := range reports {
			printReport(report)
		}
		if err != nil {
			red.Printf("✗ migration aborted: %v\n", err)
			return err
		}
		green.Println("✓ migration completed")
		return nil
	},
}

func printReport(report migration.RunReport) {
	fmt.Printf("%s: read=%d accepted=%d rejected=%d\n",
		report.Table, report.TotalRead, report.TotalAccepted, report.TotalRejected)
	if report.ReportPath != "" {
		yellow.Printf("  rejections logged to %s\n", report.ReportPath)
	}
}
