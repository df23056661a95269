package commands

import (
	"github.com/spf13/cobra"

	"github.com/lfpl47/hiring-data-service/internal/backup"
	"github.com/lfpl47/hiring-data-service/internal/domain"
)

var backupCmd = &cobra.Command{
	Use:   "backup [table...]",
	Short: "Export whole tables to Avro backup files",
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

		manager := backup.NewManager(backup.Dependencies{
			DepartmentRepo: rt.deptRepo,
			JobRepo:        rt.jobRepo,
			EmployeeRepo:   rt.empRepo,
			Dir:            rt.cfg.Backup.Dir,
			Logger:         rt.logger,
		})

		for _, kind := range kinds {
			path, err := manager.Backup(ctx, kind)
			if err != nil {
				red.Printf("✗ backup of %s failed: %v\n", kind, err)
				return err
			}
			green.Printf("✓ %s backed up to %s\n", kind, path)
		}
		return nil
	},
}

func kindArgs(args []string) ([]domain.EntityKind, error) {
	if len(args) == 0 {
		return domain.Kinds(), nil
	}
	kinds := make([]domain.EntityKind, 0, len(args))
	for _, arg := range args {
		kind, err := domain.ParseEntityKind(arg)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
