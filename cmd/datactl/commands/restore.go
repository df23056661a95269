package commands

import (
	"github.com/spf13/cobra"

	"github.com/lfpl47/hiring-data-service/internal/backup"
)

var restoreFile string

var restoreCmd = &cobra.Command{
	Use:   "restore [table...]",
	Short: "Load tables back from Avro backup files",
	Long: `Appends the rows of each table's backup file to storage. Restored
data is assumed already valid and is not re-validated; a malformed backup
file aborts the restore.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, cleanup, err := newRuntime(ctx)
		if err != nil {
			red.Println(err)
			return err
		}
		defer cleanup()

		kinds, err := kindArgs(args)
		if err != nil {
			red.Println(err)
			return err
		}
		if restoreFile != "" && len(kinds) != 1 {
			red.Println("--file requires exactly one table argument")
			return cmd.Help()
		}

		manager := backup.NewManager(backup.Dependencies{
			DepartmentRepo: rt.deptRepo,
			JobRepo:        rt.jobRepo,
			EmployeeRepo:   rt.empRepo,
			Dir:            rt.cfg.Backup.Dir,
			Logger:         rt.logger,
		})

		for _, kind := range kinds {
			if err := manager.Restore(ctx, kind, restoreFile); err != nil {
				red.Printf("✗ restore of %s failed: %v\n", kind, err)
				return err
			}
			green.Printf("✓ %s restored\n", kind)
		}
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreFile, "file", "", "backup file path (defaults to <backup dir>/<table>.avro)")
}
