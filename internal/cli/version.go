package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/taxonomy"
)

const modulePath = "github.com/banisterious/obsidian-oneirometrics-sub006"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI and taxonomy schema versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "taxonomy v%s\nschema: %s\nmodule: %s\n",
				Version, taxonomy.SchemaVersion, modulePath)
			return nil
		},
	}
}
