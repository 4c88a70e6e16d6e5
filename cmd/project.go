package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"Tracksmith/db"
	"Tracksmith/repository"
	"Tracksmith/storage"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage saved projects",
}

func withProjects(fn func(repo repository.ProjectRepository) error) error {
	gdb, err := db.ConnectGormDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseGormDB(gdb)
	return fn(repository.NewGormProjectRepository(gdb))
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProjects(func(repo repository.ProjectRepository) error {
			projects, err := repo.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTRACKS\tCLIPS\tUPDATED")
			for _, p := range projects {
				clips := 0
				for _, tr := range p.Tracks {
					clips += len(tr.Clips)
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", p.Name, len(p.Tracks), clips, p.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProjects(func(repo repository.ProjectRepository) error {
			return repo.Delete(cmd.Context(), args[0])
		})
	},
}

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List exports published to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.MinioEnabled() {
			return errors.New("object storage is not configured (set MINIO_ENDPOINT)")
		}
		store, err := storage.NewExportStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		objects, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
		for _, o := range objects {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Key, storage.FormatSize(o.Size), o.LastModified.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

func init() {
	projectCmd.AddCommand(projectListCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd, exportsCmd)
}
