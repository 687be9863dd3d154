package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/service"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

func newMatrixCmd(a *app) *cobra.Command {
	var recordsPath string

	cmd := &cobra.Command{
		Use:   "matrix <package>",
		Short: "Show platform and Swift version compatibility",
		Long: `Aggregates the builds of the latest release, pre-release and default
branch into compatibility matrices. With --records the builds are read from a
YAML or JSON file instead of the store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				m   service.Matrices
				err error
			)
			if recordsPath != "" {
				records, rerr := loadRecords(recordsPath)
				if rerr != nil {
					return rerr
				}
				m = service.MatricesFromRecords(args[0], records)
			} else {
				m, err = a.svc.BuildMatrices(cmd.Context(), args[0])
				if err != nil {
					return err
				}
			}

			if a.output != outputTable {
				return writeStructured(cmd.OutOrStdout(), a.output, m)
			}
			writeMatrices(cmd.OutOrStdout(), m, a.noColor)
			return nil
		},
	}

	cmd.Flags().StringVar(&recordsPath, "records", "", "YAML or JSON file with build records")
	return cmd
}

// recordEntry is one build record as written in a records file.
type recordEntry struct {
	Kind         types.Kind          `yaml:"kind"`
	Branch       string              `yaml:"branch"`
	Tag          string              `yaml:"tag"`
	BuildID      string              `yaml:"buildId"`
	Platform     types.BuildPlatform `yaml:"platform"`
	SwiftVersion string              `yaml:"swiftVersion"`
	Status       types.BuildStatus   `yaml:"status"`
}

func (e recordEntry) record() (types.BuildRecord, error) {
	var ref types.Reference
	switch {
	case e.Branch != "" && e.Tag != "":
		return types.BuildRecord{}, fmt.Errorf("record %q sets both branch and tag", e.BuildID)
	case e.Branch != "":
		ref = types.NewBranch(e.Branch)
	case e.Tag != "":
		ref = types.NewTag(e.Tag)
	default:
		return types.BuildRecord{}, fmt.Errorf("record %q needs a branch or tag", e.BuildID)
	}
	return types.BuildRecord{
		VersionKind:  e.Kind,
		Reference:    ref,
		BuildID:      e.BuildID,
		SwiftVersion: e.SwiftVersion,
		Platform:     e.Platform,
		Status:       e.Status,
	}, nil
}

// loadRecords reads a records file. JSON is valid YAML, so one decoder
// handles both.
func loadRecords(path string) ([]types.BuildRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseRecords(data)
}

func parseRecords(data []byte) ([]types.BuildRecord, error) {
	var entries []recordEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	out := make([]types.BuildRecord, 0, len(entries))
	for _, e := range entries {
		r, err := e.record()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
