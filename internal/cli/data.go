package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/persist"
	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/taxonomy"
	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the taxonomy and theme usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				st := s.Stats()
				if a.flags.jsonMode {
					return printJSON(cmd, st)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Clusters: %d  Vectors: %d  Themes: %d (custom %d, hidden %d)\n\n",
					st.Clusters, st.Vectors, st.Themes, st.CustomThemes, st.DeletedThemes)
				tw := newTable(cmd)
				fmt.Fprintln(tw, "CLUSTER\tTHEMES")
				for _, c := range st.PerCluster {
					fmt.Fprintf(tw, "%s\t%d\n", c.Name, c.Themes)
				}
				fmt.Fprintln(tw, "\nMOST USED\tUSES")
				for _, u := range st.MostUsed {
					if u.Count == 0 {
						break
					}
					fmt.Fprintf(tw, "%s\t%d\n", u.Name, u.Count)
				}
				return tw.Flush()
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the taxonomy as JSON to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				data, err := s.ExportTaxonomy()
				if err != nil {
					return systemError(err)
				}
				if len(args) == 0 || args[0] == "-" {
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(args[0], data, 0o644); err != nil {
					return systemError(fmt.Errorf("write export: %w", err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", args[0])
				return nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the taxonomy with an exported JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				if err := s.ImportTaxonomy(data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d themes\n", len(s.Taxonomy().Themes))
				return nil
			})
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard all customizations and restore the built-in taxonomy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("reset discards every customization; pass --force to confirm")
			}
			err := a.withStore(cmd, func(s *taxonomy.Store) error { return s.ResetToDefault() })
			if errors.Is(err, types.ErrValidation) {
				err = a.overwriteWithDefaults(cmd)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Taxonomy reset to defaults")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm the reset")
	return cmd
}

// overwriteWithDefaults replaces stored data that no longer loads.
func (a *app) overwriteWithDefaults(cmd *cobra.Command) error {
	p, err := persist.Open(a.cfg)
	if err != nil {
		return systemError(err)
	}
	defer p.Close()
	now := time.Now()
	st, _ := taxonomy.Merge(taxonomy.DefaultState(), nil, now)
	payload := types.NewPayload(st, st.Taxonomy.Version, now, true)
	if err := p.Save(cmd.Context(), payload); err != nil {
		return systemError(err)
	}
	return nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <file|->",
		Short: "Import free-form theme names, one per line, as uncategorized themes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var names []string
			sc := bufio.NewScanner(bytes.NewReader(data))
			for sc.Scan() {
				names = append(names, sc.Text())
			}
			if err := sc.Err(); err != nil {
				return err
			}
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				added, err := s.MigrateExistingThemes(names)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d new themes\n", added)
				return nil
			})
		},
	}
}

// readInput reads a named file, or stdin for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, systemError(fmt.Errorf("read %s: %w", name, err))
	}
	return data, nil
}
