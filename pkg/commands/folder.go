package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/cookbook/pkg/commands/options"
	"tableflip.dev/cookbook/pkg/runner/folders"
)

func addFolders(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Print the folder tree.",
		Example: `
cookbook folders
cookbook folders --show-id
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := folders.Tree{Library: s.lib, Printer: s.printer}
				return r.Do(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addFolder(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Show, add, rename, move and remove folders.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addFolderShow(cmd)
	addFolderAdd(cmd)
	addFolderRename(cmd)
	addFolderMove(cmd)
	addFolderRemove(cmd)

	topLevel.AddCommand(cmd)
}

func addFolderShow(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "show [folder]",
		Short: "List the folders and recipes inside a folder.",
		Example: `
cookbook folder show
cookbook folder show Desserts/Cakes
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := folders.Show{Library: s.lib, Printer: s.printer}
				if len(args) > 0 {
					r.Folder = args[0]
				}
				return r.Do(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addFolderAdd(topLevel *cobra.Command) {
	fo := &options.FolderOptions{}

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a folder.",
		Example: `
cookbook folder add Desserts
cookbook folder add Cakes --folder Desserts
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := folders.Add{
					Library: s.lib,
					Parent:  fo.Folder,
					Name:    strings.Join(args, " "),
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddFolderArg(cmd, fo)

	topLevel.AddCommand(cmd)
}

func addFolderRename(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "rename [folder] [name]",
		Short: "Rename a folder.",
		Example: `
cookbook folder rename Desserts Sweets
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := folders.Rename{
					Library: s.lib,
					Folder:  args[0],
					Name:    strings.Join(args[1:], " "),
				}
				return r.Do(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addFolderMove(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "mv [folder] [into]",
		Aliases: []string{"move"},
		Short:   "Move a folder under another one, or to the top with no destination.",
		Example: `
cookbook folder mv Cakes Desserts
cookbook folder mv Desserts/Cakes
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := folders.Move{Library: s.lib, Folder: args[0]}
				if len(args) > 1 {
					r.Into = args[1]
				}
				return r.Do(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addFolderRemove(topLevel *cobra.Command) {
	co := &options.ConfirmOptions{}

	cmd := &cobra.Command{
		Use:     "rm [folder...]",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete folders with everything inside them.",
		Example: `
cookbook folder rm Desserts/Cakes
cookbook folder rm Drafts Scratch --yes
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := folders.Remove{
					Library: s.lib,
					Folders: args,
					Confirm: co.Confirm(),
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddConfirmArg(cmd, co)

	topLevel.AddCommand(cmd)
}
