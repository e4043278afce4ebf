package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/cookbook/pkg/commands/options"
	"tableflip.dev/cookbook/pkg/runner/recipes"
)

func addRecipe(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "recipe",
		Aliases: []string{"recipes"},
		Short:   "Add, show, export, reorder and remove recipes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addRecipeAdd(cmd)
	addRecipeShow(cmd)
	addRecipeExport(cmd)
	addRecipePhoto(cmd)
	addRecipeReorder(cmd)
	addRecipeRemove(cmd)

	topLevel.AddCommand(cmd)
}

func addRecipeAdd(topLevel *cobra.Command) {
	fo := &options.FolderOptions{}

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a recipe.",
		Example: `
cookbook recipe add Pancakes
cookbook recipe add Lemon Tart --folder Desserts
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := recipes.Add{
					Library: s.lib,
					Folder:  fo.Folder,
					Name:    strings.Join(args, " "),
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddFolderArg(cmd, fo)

	topLevel.AddCommand(cmd)
}

func addRecipeShow(topLevel *cobra.Command) {
	fo := &options.FolderOptions{}
	so := &options.ScaleOptions{}

	cmd := &cobra.Command{
		Use:   "show [recipe]",
		Short: "Print a recipe, optionally scaled.",
		Example: `
cookbook recipe show Pancakes
cookbook recipe show Pancakes --scale 2
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := recipes.Show{
					Library: s.lib,
					Printer: s.printer,
					Target:  recipes.Target{Folder: fo.Folder, Recipe: args[0]},
					Scale:   so.Scale,
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddFolderArg(cmd, fo)
	options.AddScaleArg(cmd, so)

	topLevel.AddCommand(cmd)
}

func addRecipeExport(topLevel *cobra.Command) {
	fo := &options.FolderOptions{}

	cmd := &cobra.Command{
		Use:   "export [recipe]",
		Short: "Write a recipe as YAML.",
		Example: `
cookbook recipe export Pancakes > pancakes.yaml
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := recipes.Export{
					Library: s.lib,
					Target:  recipes.Target{Folder: fo.Folder, Recipe: args[0]},
					Out:     cmd.OutOrStdout(),
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddFolderArg(cmd, fo)

	topLevel.AddCommand(cmd)
}

func addRecipePhoto(topLevel *cobra.Command) {
	fo := &options.FolderOptions{}

	cmd := &cobra.Command{
		Use:   "photo [recipe] [file...]",
		Short: "Attach photos to a recipe.",
		Example: `
cookbook recipe photo Pancakes stack.jpg
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := recipes.AddPhoto{
					Library: s.lib,
					Target:  recipes.Target{Folder: fo.Folder, Recipe: args[0]},
					Files:   args[1:],
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddFolderArg(cmd, fo)

	topLevel.AddCommand(cmd)
}

func addRecipeRemove(topLevel *cobra.Command) {
	fo := &options.FolderOptions{}
	co := &options.ConfirmOptions{}

	cmd := &cobra.Command{
		Use:     "rm [recipe...]",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete recipes from a folder.",
		Example: `
cookbook recipe rm Pancakes Waffles --folder Breakfast
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := recipes.Remove{
					Library: s.lib,
					Folder:  fo.Folder,
					Recipes: args,
					Confirm: co.Confirm(),
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddFolderArg(cmd, fo)
	options.AddConfirmArg(cmd, co)

	topLevel.AddCommand(cmd)
}

func addRecipeReorder(topLevel *cobra.Command) {
	fo := &options.FolderOptions{}
	var section string
	var steps bool

	cmd := &cobra.Command{
		Use:   "reorder [recipe] [from] [to]",
		Short: "Move an ingredient or a step to another position in its section.",
		Example: `
cookbook recipe reorder Pancakes 3 1
cookbook recipe reorder Pancakes 2 4 --steps --section Batter
`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("from: %w", err)
			}
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("to: %w", err)
			}
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := recipes.Reorder{
					Library: s.lib,
					Target:  recipes.Target{Folder: fo.Folder, Recipe: args[0]},
					Steps:   steps,
					Section: section,
					From:    from,
					To:      to,
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddFolderArg(cmd, fo)
	cmd.Flags().StringVar(&section, "section", "", "Section name; the first section by default.")
	cmd.Flags().BoolVar(&steps, "steps", false, "Reorder steps instead of ingredients.")

	topLevel.AddCommand(cmd)
}
