package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/cookbook/pkg/commands/options"
)

var (
	output = &options.OutputOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "cookbook",
		Short: base.Wrap80("Keep recipes in folders on the command line."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	options.AddOutputArgs(cmd, output)
	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addFolders(topLevel)
	addFolder(topLevel)
	addRecipe(topLevel)
	addIngredient(topLevel)
	addStep(topLevel)
	addWatch(topLevel)
	addVersion(topLevel)
}
