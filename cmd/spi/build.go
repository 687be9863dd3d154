package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/storage"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		branch, tag string
		platform    string
		status      string
		req         storage.BuildRequest
	)

	cmd := &cobra.Command{
		Use:   "build <package>",
		Short: "Record the result of a build",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case branch != "" && tag != "":
				return errors.New("--branch and --tag are mutually exclusive")
			case branch != "":
				req.Reference = types.NewBranch(branch)
			case tag != "":
				req.Reference = types.NewTag(tag)
			}
			req.PackageURL = args[0]
			req.Platform = types.BuildPlatform(platform)
			req.Status = types.BuildStatus(status)

			build, err := a.svc.RecordBuild(cmd.Context(), req)
			if err != nil {
				return err
			}
			if a.output != outputTable {
				return writeStructured(cmd.OutOrStdout(), a.output, build)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded build %s: %s swift %s %s\n",
				build.ID, build.Platform, build.SwiftVersion, build.Status)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&branch, "branch", "", "Branch the build ran for")
	flags.StringVar(&tag, "tag", "", "Tag the build ran for")
	flags.StringVar(&req.VersionID, "version-id", "", "Version id the build ran for")
	flags.StringVar(&platform, "platform", "", "Build platform (ios, macos-spm, macos-xcodebuild, macos-spm-arm, macos-xcodebuild-arm, linux, tvos, watchos)")
	flags.StringVar(&req.SwiftVersion, "swift", "", "Swift toolchain version, e.g. 5.6.1")
	flags.StringVar(&status, "status", "", "Build status (ok, failed, triggered, timeout, infrastructureError, noMatchingVersion)")
	flags.StringVar(&req.LogURL, "log-url", "", "Link to the build log")
	return cmd
}
