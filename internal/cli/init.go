package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/taxonomy"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Write config.yaml if it is missing, then create the data directory and\n" +
			"store the built-in taxonomy. Running init again is harmless.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := writeConfigIfMissing(a.configDir, a.cfg)
			if err != nil {
				return systemError(err)
			}
			if err := a.withStore(cmd, func(*taxonomy.Store) error { return nil }); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if written {
				fmt.Fprintf(out, "Wrote %s\n", configPathIn(a.configDir))
			}
			fmt.Fprintf(out, "Taxonomy initialized in %s (%s backend)\n", a.cfg.DataDir, a.cfg.Backend)
			return nil
		},
	}
}
