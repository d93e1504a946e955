package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"registry/internal/classify"
	"registry/internal/intake"
	"registry/internal/report"
	"registry/internal/types"
	"registry/internal/validate"
)

var (
	parseTitle  string
	parseLabels []string
	parseExpect string
	previewRaw  bool
)

// parseCmd extracts a record without touching the database
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Extract and validate a submission body, printing JSON",
	Long: `Parses a submission body ("-" for stdin) and prints the normalized record
together with its validation result.

The expected operation is --expect when given, otherwise it comes from
--title and --label the same way the process command classifies an issue.
Without any of them, the record is checked against the operation its body
describes.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

// previewCmd renders the reply a submission would receive
var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Render the comment a submission would receive",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	for _, c := range []*cobra.Command{parseCmd, previewCmd} {
		c.Flags().StringVar(&parseTitle, "title", "", "Issue title used for classification")
		c.Flags().StringSliceVar(&parseLabels, "label", nil, "Issue label used for classification (repeatable)")
		c.Flags().StringVar(&parseExpect, "expect", "", "Expected operation: create or update")
	}
	previewCmd.Flags().BoolVar(&previewRaw, "raw", false, "Print markdown without terminal rendering")
}

type parseResult struct {
	Expected   types.OperationKind    `json:"expected"`
	Record     types.NormalizedRecord `json:"record"`
	Validation types.ValidationResult `json:"validation"`
	Options    validate.OptionsFormat `json:"options_format"`
}

// evaluate parses and validates the body at path.
func evaluate(path string) (parseResult, error) {
	data, err := readInput(path)
	if err != nil {
		return parseResult{}, err
	}
	rec, err := intake.Parse(string(data))
	if err != nil {
		return parseResult{}, err
	}

	expected := rec.Kind
	switch {
	case parseExpect != "":
		kind, ok := types.ParseOperationKind(parseExpect)
		if !ok {
			return parseResult{}, fmt.Errorf("--expect must be create or update, got %q", parseExpect)
		}
		expected = kind
	case parseTitle != "" || len(parseLabels) > 0:
		expected = classify.New(cfg.Intake.UpdateLabels, cfg.Intake.CreateLabels).
			Classify(parseTitle, types.Labels(parseLabels...))
	}
	return parseResult{
		Expected:   expected,
		Record:     rec,
		Validation: validate.Validate(rec, expected),
		Options:    validate.DetectOptions(rec.Options),
	}, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	res, err := evaluate(args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if !res.Validation.Valid {
		return res.Validation.Err()
	}
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	var message string
	res, err := evaluate(args[0])
	switch {
	case err != nil:
		message = report.Rejection(err)
	case !res.Validation.Valid:
		message = report.Rejection(res.Validation.Err())
	default:
		message = report.Planned(res.Record)
	}

	if previewRaw {
		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	}
	renderer, rerr := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if rerr != nil {
		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	}
	rendered, rerr := renderer.Render(message)
	if rerr != nil {
		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
