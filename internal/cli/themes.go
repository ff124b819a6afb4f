package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/taxonomy"
	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

func newShowCmd(a *app) *cobra.Command {
	var clusterID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the taxonomy tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				tax := s.Taxonomy()
				if clusterID != "" {
					c, ok := s.ClusterByID(clusterID)
					if !ok {
						return &types.NotFoundError{Kind: types.KindCluster, ID: clusterID}
					}
					tax.Clusters = []types.Cluster{c}
				}
				if a.flags.jsonMode {
					return printJSON(cmd, tax.Clusters)
				}
				out := cmd.OutOrStdout()
				for _, c := range tax.Clusters {
					fmt.Fprintf(out, "%s (%s)\n", c.Name, c.ID)
					for _, v := range c.Vectors {
						fmt.Fprintf(out, "  %s (%s)\n", v.Name, v.ID)
						themes, _ := s.ThemesByVector(v.ID)
						for _, th := range themes {
							fmt.Fprintf(out, "    - %s (%s)\n", th.Name, th.ID)
						}
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&clusterID, "cluster", "", "only show this cluster")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find themes by name or alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				themes := s.SearchThemes(args[0])
				if a.flags.jsonMode {
					if themes == nil {
						themes = []types.Theme{}
					}
					return printJSON(cmd, themes)
				}
				tw := newTable(cmd)
				fmt.Fprintln(tw, "ID\tNAME\tVECTORS\tUSES")
				for _, th := range themes {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", th.ID, th.Name, joinOrDash(th.VectorIDs), th.UsageCount)
				}
				return tw.Flush()
			})
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var vectorID, description string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom theme under a vector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				th, err := s.AddTheme(args[0], vectorID, description)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, th)
				}
				fmt.Fprintln(cmd.OutOrStdout(), th.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&vectorID, "vector", "", "vector to add the theme to (required)")
	cmd.Flags().StringVar(&description, "description", "", "theme description")
	_ = cmd.MarkFlagRequired("vector")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <theme-id> <vector-id>",
		Short: "Move a theme to another vector",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				if err := s.MoveTheme(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <theme-id>",
		Short: "Delete a custom theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				if err := s.DeleteTheme(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newHideCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hide <theme-id>",
		Short: "Hide a theme, including built-in ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				if err := s.HideTheme(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Hid %s\n", args[0])
				return nil
			})
		},
	}
}

func newUseCmd(a *app) *cobra.Command {
	var by int
	cmd := &cobra.Command{
		Use:   "use <theme-id>",
		Short: "Record usage of a theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *taxonomy.Store) error {
				if err := s.UpdateThemeUsage(args[0], by); err != nil {
					return err
				}
				th, _ := s.ThemeByID(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "%s used %d times\n", th.Name, th.UsageCount)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&by, "by", 1, "usage increment")
	return cmd
}
