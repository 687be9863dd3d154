package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

func newVersionsCmd(a *app) *cobra.Command {
	var archived bool

	cmd := &cobra.Command{
		Use:   "versions <package>",
		Short: "List the stored versions of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				versions []types.Version
				err      error
			)
			if archived {
				versions, err = a.svc.ArchivedVersions(cmd.Context(), args[0])
			} else {
				versions, err = a.svc.Versions(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			if a.output != outputTable {
				return writeStructured(cmd.OutOrStdout(), a.output, versions)
			}
			return writeVersions(cmd.OutOrStdout(), versions)
		},
	}

	cmd.Flags().BoolVar(&archived, "archived", false, "List versions deleted by earlier runs instead")
	return cmd
}

func newPackagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: "List packages with stored versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgs, err := a.svc.Packages(cmd.Context())
			if err != nil {
				return err
			}
			if a.output != outputTable {
				return writeStructured(cmd.OutOrStdout(), a.output, pkgs)
			}
			for _, p := range pkgs {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
