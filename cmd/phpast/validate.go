package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
)

// complianceMax is the maximum compliance percentage.
const complianceMax = 100

var (
	// ErrMalformedInput means the document or schema could not be read.
	ErrMalformedInput = errors.New("malformed input")
	// ErrSchemaViolation means the document does not match the schema.
	ErrSchemaViolation = errors.New("document does not match the canonical AST schema")
)

func validateCmd() *cobra.Command {
	var schemaPath string

	var colorize, nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <file.json|->",
		Short: "Validate canonical AST JSON against the schema",
		Long: `Validate a canonical AST JSON document (phpast parse -f json) against
the embedded JSON schema.

Examples:
  phpast validate tree.json
  phpast parse index.php | phpast validate -
  phpast validate --schema custom-schema.json tree.json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setColor(colorize, nocolor)

			return runValidate(args[0], schemaPath, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to a JSON schema (default: embedded canonical AST schema)")
	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(inputPath, schemaPath string, stdin io.Reader, out io.Writer) error {
	inputData, inputLabel, err := loadDocument(inputPath, stdin)
	if err != nil {
		return err
	}

	schemaLoader, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(inputData))
	if err != nil {
		return fmt.Errorf("%w: schema validation error: %w", ErrMalformedInput, err)
	}

	if result.Valid() {
		if !quiet {
			color.New(color.FgGreen).Fprintf(out, "AST is valid (%s)\n", inputLabel)
			color.New(color.FgGreen).Fprintf(out, "  Nodes: %d\n", countNodes(inputData))
		}

		return nil
	}

	compliance := calculateCompliance(inputData, result.Errors())

	color.New(color.FgRed).Fprintf(out, "AST validation failed (%s)\n", inputLabel)
	color.New(color.FgYellow).Fprintf(out, "  Compliance: %d%%\n", compliance)

	fmt.Fprintf(out, "\nErrors:\n")

	for _, verr := range result.Errors() {
		actualValue := getActualValue(inputData, verr.Field())

		if actualValue != "" {
			color.New(color.FgRed).Fprintf(out, "  - %s: %s (got %q)\n", verr.Field(), verr.Description(), actualValue)
		} else {
			color.New(color.FgRed).Fprintf(out, "  - %s: %s\n", verr.Field(), verr.Description())
		}
	}

	fmt.Fprintf(out, "\nRecommendations:\n")
	provideRecommendations(out, result.Errors())

	return fmt.Errorf("%w: %d errors", ErrSchemaViolation, len(result.Errors()))
}

//nolint:nonamedreturns // named returns document the label
func loadDocument(inputPath string, stdin io.Reader) (inputData any, inputLabel string, err error) {
	data, inputLabel, err := readSource(inputPath, stdin)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&inputData); err != nil {
		return nil, "", fmt.Errorf("%w: invalid JSON in %s: %w", ErrMalformedInput, inputLabel, err)
	}

	return inputData, inputLabel, nil
}

func loadSchema(schemaPath string) (gojsonschema.JSONLoader, error) {
	if schemaPath == "" {
		return gojsonschema.NewBytesLoader(ast.Schema), nil
	}

	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read schema file: %w", ErrMalformedInput, err)
	}

	return gojsonschema.NewBytesLoader(schemaBytes), nil
}

func provideRecommendations(out io.Writer, validationErrors []gojsonschema.ResultError) {
	recommendations := make(map[string]string)

	for _, validationErr := range validationErrors {
		classifyRecommendation(recommendations, validationErr.Field(), validationErr.Description())
	}

	seen := make(map[string]bool)

	for _, rec := range recommendations {
		if !seen[rec] {
			color.New(color.FgCyan).Fprintf(out, "  - %s\n", rec)
			seen[rec] = true
		}
	}

	if len(validationErrors) > 0 {
		fmt.Fprintf(out, "\nGeneral tips:\n")
		color.New(color.FgCyan).Fprintf(out, "  - Regenerate the document with phpast parse -f json\n")
		color.New(color.FgCyan).Fprintf(out, "  - Children hold nodes or scalars, never arrays\n")
	}
}

func classifyRecommendation(recommendations map[string]string, field, description string) {
	switch {
	case strings.Contains(description, "Does not match pattern"):
		recommendations["kind"] = "Node kinds use php-ast names like 'AST_STMT_LIST' or 'AST_FUNC_DECL'"

	case strings.Contains(description, "is required"):
		recommendations["required"] = "Every node needs 'kind', 'flags', 'lineno' and 'children'"

	case strings.Contains(description, "Additional property"):
		recommendations["props"] = "Nodes only carry kind, flags, lineno, endLineno, decl and children"

	case strings.Contains(field, "flags") || strings.Contains(field, "lineno"):
		recommendations["numbers"] = "Flags and line numbers are non-negative integers"

	case strings.Contains(field, "children"):
		recommendations["children"] = "Children must be an object keyed by child name"
	}
}

func calculateCompliance(inputData any, validationErrors []gojsonschema.ResultError) int {
	totalNodes := countNodes(inputData)
	if totalNodes == 0 {
		return 0
	}

	validNodes := totalNodes - len(validationErrors)
	compliance := int(float64(validNodes) / float64(totalNodes) * complianceMax)

	return max(0, min(compliance, complianceMax))
}

// countNodes counts objects with a "kind" field.
func countNodes(data any) int {
	count := 0

	switch typedData := data.(type) {
	case map[string]any:
		if _, isNode := typedData["kind"]; isNode {
			count++
		}

		if children, hasChildren := typedData["children"].(map[string]any); hasChildren {
			for _, child := range children {
				count += countNodes(child)
			}
		}
	case []any:
		for _, item := range typedData {
			count += countNodes(item)
		}
	}

	return count
}

func getActualValue(data any, fieldPath string) string {
	// Field paths look like "children.0.children.expr.kind".
	current := data

	for part := range strings.SplitSeq(fieldPath, ".") {
		switch typedVal := current.(type) {
		case map[string]any:
			val, found := typedVal[part]
			if !found {
				return ""
			}

			current = val
		case []any:
			idx, convErr := strconv.Atoi(part)
			if convErr != nil || idx < 0 || idx >= len(typedVal) {
				return ""
			}

			current = typedVal[idx]
		default:
			return ""
		}
	}

	return formatValue(current)
}

func formatValue(value any) string {
	switch typedVal := value.(type) {
	case string:
		return typedVal
	case json.Number:
		return typedVal.String()
	case bool:
		return strconv.FormatBool(typedVal)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", typedVal)
	}
}
