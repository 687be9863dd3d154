package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/gitref"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		repoPath string
		opts     gitref.Options
	)

	cmd := &cobra.Command{
		Use:   "analyze <package>",
		Short: "Reconcile stored versions with the references of a git repository",
		Long: `Lists the default branch and tags of the repository, deletes stored
versions whose reference vanished or moved to another commit, inserts the new
ones and reclassifies the latest default branch, release and pre-release.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if repoPath == "" {
				return errors.New("--repo is required")
			}
			report, err := a.svc.AnalyzeRepository(cmd.Context(), args[0], repoPath, opts)
			if err != nil {
				return err
			}
			if a.output != outputTable {
				return writeStructured(cmd.OutOrStdout(), a.output, report)
			}
			return writeReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", "", "Path to a local clone of the package repository")
	cmd.Flags().StringVar(&opts.DefaultBranch, "default-branch", "", "Branch to use instead of HEAD")
	cmd.Flags().BoolVar(&opts.AllBranches, "all-branches", false, "Consider every local branch")
	return cmd
}
