package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/cookbook/pkg/commands/options"
	"tableflip.dev/cookbook/pkg/runner/recipes"
)

func addIngredient(topLevel *cobra.Command) {
	fo := &options.FolderOptions{}
	var section, amount, unit string

	cmd := &cobra.Command{
		Use:   "ingredient [recipe] [name]",
		Short: "Add an ingredient to a recipe.",
		Example: `
cookbook ingredient Pancakes flour --amount 250 --unit g
cookbook ingredient Pancakes "maple syrup" --section Topping
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := recipes.AddIngredient{
					Library: s.lib,
					Target:  recipes.Target{Folder: fo.Folder, Recipe: args[0]},
					Section: section,
					Name:    strings.Join(args[1:], " "),
					Amount:  amount,
					Unit:    unit,
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddFolderArg(cmd, fo)
	cmd.Flags().StringVar(&section, "section", "", "Ingredient section name.")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount, using the locale's decimal separator.")
	cmd.Flags().StringVarP(&unit, "unit", "u", "", "Unit of the amount.")

	topLevel.AddCommand(cmd)
}

func addStep(topLevel *cobra.Command) {
	fo := &options.FolderOptions{}
	var section string
	var photos []string

	cmd := &cobra.Command{
		Use:   "step [recipe] [text]",
		Short: "Add a step to a recipe.",
		Example: `
cookbook step Pancakes "Whisk the eggs into the flour."
cookbook step Pancakes "Flip when bubbles form." --photo flip.jpg
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				r := recipes.AddStep{
					Library: s.lib,
					Target:  recipes.Target{Folder: fo.Folder, Recipe: args[0]},
					Section: section,
					Text:    strings.Join(args[1:], " "),
					Photos:  photos,
				}
				return r.Do(ctx)
			})
		},
	}

	options.AddFolderArg(cmd, fo)
	cmd.Flags().StringVar(&section, "section", "", "Step section name.")
	cmd.Flags().StringSliceVarP(&photos, "photo", "p", nil, "Photo to attach to the step.")

	topLevel.AddCommand(cmd)
}
