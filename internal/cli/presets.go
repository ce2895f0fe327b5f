package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teilomillet/gochain/presets"
)

func (a *app) learnCmd() *cobra.Command {
	var req presets.LearningRequest

	cmd := &cobra.Command{
		Use:     "learn",
		Short:   "Generate a roadmap, daily schedule and timeline for learning a language",
		Example: `gochain learn --language Python --level Beginner --hours 1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			client, err := a.client(cmd)
			if err != nil {
				return err
			}
			result, err := client.LearningPlan(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSection(out, req.Language+" Learning Roadmap", result.Get("roadmap"))
			printSection(out, "Daily Learning Schedule for "+req.Language, result.Get("schedule"))
			printSection(out, "Estimated Time", result.Get("timeline"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Language, "language", "l", "Python",
		fmt.Sprintf("Language to learn (%s)", strings.Join(presets.SupportedLanguages(), ", ")))
	cmd.Flags().StringVar(&req.ExperienceLevel, "level", "Beginner",
		fmt.Sprintf("Experience level (%s)", strings.Join(presets.ExperienceLevels(), ", ")))
	cmd.Flags().Float64Var(&req.DailyHours, "hours", 1.0, "Hours per day")
	return cmd
}

func (a *app) recipeCmd() *cobra.Command {
	var req presets.RecipeRequest

	cmd := &cobra.Command{
		Use:     "recipe",
		Short:   "Generate a recipe, cooking instructions and a time estimate",
		Example: `gochain recipe --dish "Pad Thai" --cuisine Thai`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			client, err := a.client(cmd)
			if err != nil {
				return err
			}
			result, err := client.Recipe(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSection(out, "Recipe", result.Get("recipe"))
			printSection(out, "Instructions", result.Get("instructions"))
			printSection(out, "Time Estimate", result.Get("time_estimate"))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Dish, "dish", "", "Dish to cook")
	cmd.Flags().StringVar(&req.Cuisine, "cuisine", "", "Cuisine style")
	return cmd
}

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages and experience levels the learning guide accepts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Languages:")
			for _, l := range presets.SupportedLanguages() {
				fmt.Fprintf(out, "  - %s\n", l)
			}
			fmt.Fprintln(out, "Experience levels:")
			for _, l := range presets.ExperienceLevels() {
				fmt.Fprintf(out, "  - %s\n", l)
			}
		},
	}
}
