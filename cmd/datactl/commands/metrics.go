package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lfpl47/hiring-data-service/internal/metrics"
)

var metricsYear int

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Render the hiring metric views as tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, cleanup, err := newRuntime(ctx)
		if err != nil {
			red.Println(err)
			return err
		}
		defer cleanup()

		quarterRows, err := rt.aggregator.HiredByQuarter(ctx, metricsYear)
		if err != nil {
			red.Println(err)
			return err
		}
		aboveMean, err := rt.aggregator.DepartmentsAboveMean(ctx, metricsYear)
		if err != nil {
			red.Println(err)
			return err
		}

		fmt.Printf("Hires by quarter (%d)\n", metricsYear)
		quarterTable := tablewriter.NewWriter(os.Stdout)
		quarterTable.SetHeader([]string{"Department", "Job", "Q1", "Q2", "Q3", "Q4"})
		for _, row := range quarterRows {
			quarterTable.Append([]string{
				row.Department,
				row.Job,
				strconv.Itoa(row.Q1),
				strconv.Itoa(row.Q2),
				strconv.Itoa(row.Q3),
				strconv.Itoa(row.Q4),
			})
		}
		quarterTable.Render()

		fmt.Printf("\nDepartments hiring above the mean (%d)\n", metricsYear)
		meanTable := tablewriter.NewWriter(os.Stdout)
		meanTable.SetHeader([]string{"ID", "Department", "Hired"})
		for _, row := range aboveMean {
			meanTable.Append([]string{
				strconv.FormatInt(row.ID, 10),
				row.Department,
				strconv.Itoa(row.Hired),
			})
		}
		meanTable.Render()
		return nil
	},
}

func init() {
	metricsCmd.Flags().IntVar(&metricsYear, "year", metrics.DefaultYear, "calendar year to aggregate")
}
