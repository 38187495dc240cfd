package main

import (
	"fmt"
	"io"
	"os"
	"pantry/internal/fixture"
	"pantry/pkg/domain"
	"sort"

	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load a YAML fixture into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			doc, err := fixture.Decode(f)
			if err != nil {
				return err
			}
			return a.seed(cmd, doc)
		},
	}
}

func (a *app) seed(cmd *cobra.Command, doc fixture.Document) error {
	res, err := fixture.Seed(cmd.Context(), a.repos.Repositories, doc)
	if err != nil {
		return err
	}
	a.logger.Sugar().Infow("fixture seeded", "foods", len(res.Foods), "places", len(res.Places), "beverages", len(res.Beverages))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d foods, %d places, %d beverages\n",
		len(res.Foods), len(res.Places), len(res.Beverages))
	return err
}

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as a YAML fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := fixture.Export(cmd.Context(), a.repos.Repositories)
			if err != nil {
				return err
			}
			if output == "" {
				return fixture.Encode(cmd.OutOrStdout(), doc)
			}
			return writeFixture(output, doc)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

var createFile = func(name string) (io.WriteCloser, error) { return os.Create(name) }

// writeFixture encodes doc into the file at path. A Close error is returned
// when encoding succeeded.
func writeFixture(path string, doc fixture.Document) (err error) {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return fixture.Encode(f, doc)
}

func (a *app) archive(cmd *cobra.Command) (*fixture.Archive, error) {
	store, err := a.openBlob(cmd.Context(), a.cfg.Blob)
	if err != nil {
		return nil, err
	}
	return fixture.NewArchive(store, fixture.DefaultPrefix), nil
}

func newArchiveCmd(a *app) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "archive [name]",
		Short: "Export the catalog into the archive store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arc, err := a.archive(cmd)
			if err != nil {
				return err
			}
			doc, err := fixture.Export(cmd.Context(), a.repos.Repositories)
			if err != nil {
				return err
			}
			info, err := arc.Put(cmd.Context(), args[0], doc, overwrite)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "archived %s (%d bytes)\n", info.Key, info.Size)
			return err
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing archive")
	return cmd
}

func newArchivesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archives",
		Short: "List archived fixtures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			arc, err := a.archive(cmd)
			if err != nil {
				return err
			}
			names, err := arc.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "restore [name]",
		Short: "Seed the catalog from an archived fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arc, err := a.archive(cmd)
			if err != nil {
				return err
			}
			doc, err := arc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if replace {
				if err := a.clear(cmd); err != nil {
					return err
				}
			}
			return a.seed(cmd, doc)
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "delete the current catalog first")
	return cmd
}

// clear deletes beverages before the foods and places they reference.
func (a *app) clear(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if err := a.repos.Beverages.DeleteAll(ctx); err != nil {
		return err
	}
	if err := a.repos.Foods.DeleteAll(ctx); err != nil {
		return err
	}
	return a.repos.Places.DeleteAll(ctx)
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of stored entities per kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			counts, err := a.repos.Counts(cmd.Context())
			if err != nil {
				return err
			}
			kinds := []domain.EntityType{domain.EntityBeverage, domain.EntityFood, domain.EntityPlace}
			for kind := range counts {
				if kind != domain.EntityBeverage && kind != domain.EntityFood && kind != domain.EntityPlace {
					kinds = append(kinds, kind)
				}
			}
			sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
			for _, kind := range kinds {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", kind, counts[kind]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
