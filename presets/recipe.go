package presets

import (
	"context"
	"fmt"

	"github.com/teilomillet/gochain/chain"
)

const recipeTemplate = `You are an experienced chef specialising in {cuisine} cooking.

Write a recipe for {dish} in the {cuisine} style. List every ingredient with its quantity, then any equipment needed.

Recipe:`

const instructionsTemplate = `Create step-by-step cooking instructions for the following recipe:

{recipe}

Number each step and note where steps can be prepared ahead.

Instructions:`

const timeEstimateTemplate = `Estimate the total time it will take to complete: {instructions}

Break the estimate into preparation, cooking and resting time.`

// RecipePlanner returns the recipe → instructions → time_estimate pipeline.
func RecipePlanner() *chain.PipelineSpec {
	return &chain.PipelineSpec{
		Name:            "recipe-planner",
		Description:     "Recipe, cooking instructions and time estimate for a dish",
		InputVariables:  []string{"dish", "cuisine"},
		OutputVariables: []string{"recipe", "instructions", "time_estimate"},
		Stages: []chain.Stage{
			{Name: "recipe", Inputs: []string{"dish", "cuisine"}, Template: recipeTemplate, OutputKey: "recipe"},
			{Name: "instructions", Inputs: []string{"recipe"}, Template: instructionsTemplate, OutputKey: "instructions"},
			{Name: "time_estimate", Inputs: []string{"instructions"}, Template: timeEstimateTemplate, OutputKey: "time_estimate"},
		},
	}
}

// RecipeRequest holds the recipe planner's parameters.
type RecipeRequest struct {
	Dish    string `json:"dish" validate:"required,max=200"`
	Cuisine string `json:"cuisine" validate:"required,max=100"`
}

func (r RecipeRequest) Inputs() map[string]any {
	return map[string]any{"dish": r.Dish, "cuisine": r.Cuisine}
}

func (r RecipeRequest) Validate() error {
	return validateRequest(r, map[string]string{
		"Dish":    "dish is required (at most 200 characters)",
		"Cuisine": "cuisine is required (at most 100 characters)",
	})
}

// GenerateRecipe validates req and runs the recipe planner.
func GenerateRecipe(ctx context.Context, runner *chain.Runner, req RecipeRequest) (*chain.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	result, err := runner.Run(ctx, RecipePlanner(), req.Inputs())
	if err != nil {
		return nil, fmt.Errorf("generating recipe: %w", err)
	}
	return result, nil
}
