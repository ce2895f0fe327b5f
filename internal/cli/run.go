package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teilomillet/gochain/chain"
	"github.com/teilomillet/gochain/llm"
)

func (a *app) runCmd() *cobra.Command {
	var (
		file    string
		inputs  []string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline defined in a YAML file",
		Example: `gochain run -f recipe.yaml --input dish=Ramen --input cuisine=Japanese
gochain run -f recipe.yaml --input dish=Ramen --input cuisine=Japanese --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := chain.ParseFile(file)
			if err != nil {
				return err
			}
			bindings, err := parseInputs(inputs)
			if err != nil {
				return err
			}

			client, err := a.client(cmd)
			if err != nil {
				return err
			}
			result, err := client.Run(cmd.Context(), spec, bindings)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			for _, name := range spec.OutputVariables {
				printSection(out, name, result.Get(name))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Pipeline YAML file")
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Input binding as name=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// parseInputs turns name=value pairs into bindings. Values stay strings so
// "1.0" renders exactly as typed.
func parseInputs(pairs []string) (map[string]any, error) {
	bindings := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, llm.NewLLMError(llm.ErrorTypeInvalidInput,
				fmt.Sprintf("input %q must look like name=value", pair), nil)
		}
		bindings[name] = value
	}
	return bindings, nil
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of pipeline files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := chain.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
