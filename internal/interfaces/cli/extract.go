package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/turtacn/EntiTag-Intelligence/internal/extraction"
	"github.com/turtacn/EntiTag-Intelligence/internal/llm"
	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
)

type extractOptions struct {
	Input      string
	JSONL      bool
	Column     string
	SchemaJSON string
	SchemaFile string
	Mode       string
	Encoding   string
	Output     string
}

// documentOutput is one document's result in the command output.
type documentOutput struct {
	Tokens   []extraction.TaggedToken `json:"tokens,omitempty"`
	Entities []extraction.Span        `json:"entities,omitempty"`
}

func newExtractCmd() *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [text]",
		Short: "Extract entities from text",
		Long: "Extract schema-defined entities from text given as an argument, a file,\n" +
			"or stdin, and print the tagged result.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Input, "input", "i", "", "input file path, or '-' for stdin (mutually exclusive with a text argument)")
	f.BoolVar(&opts.JSONL, "jsonl", false, "treat input as JSON Lines records")
	f.StringVar(&opts.Column, "column", "text", "record field holding the text (with --jsonl)")
	f.StringVar(&opts.SchemaJSON, "schema", "", "extraction schema as inline JSON")
	f.StringVar(&opts.SchemaFile, "schema-file", "", "extraction schema file path")
	f.StringVar(&opts.Mode, "mode", extraction.ModeAgentic, "extraction mode: single-pass|agentic")
	f.StringVar(&opts.Encoding, "encoding", extraction.EncodingCoNLL, "output encoding: conll|entities")
	f.StringVar(&opts.Output, "output", "json", "output format: json|text")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string, opts *extractOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	if err := extraction.ValidateMode(opts.Mode); err != nil {
		return err
	}
	if err := extraction.ValidateEncoding(opts.Encoding); err != nil {
		return err
	}
	if opts.Output != "json" && opts.Output != "text" {
		return errors.New(errors.ErrCodeUnsupportedInput, "output must be json or text, got "+opts.Output)
	}

	schema, err := loadSchema(opts)
	if err != nil {
		return err
	}

	texts, err := loadInput(cmd, args, opts)
	if err != nil {
		return err
	}
	for i, t := range texts {
		// Offsets are computed against the normalized form, so normalization
		// must happen before chunking.
		texts[i] = norm.NFC.String(t)
	}

	extractor, err := llm.NewOpenAIExtractor(cliCtx.Config.LLM, cliCtx.Logger)
	if err != nil {
		return err
	}
	engine, err := extraction.NewEngine(extractor, schema, cliCtx.Config.Pipeline, extraction.Dependencies{
		Logger: cliCtx.Logger,
	})
	if err != nil {
		return err
	}

	tagged, err := engine.RunBatch(cmd.Context(), texts, opts.Mode)
	if err != nil {
		return err
	}

	results := make([]documentOutput, len(tagged))
	for i, doc := range tagged {
		if opts.Encoding == extraction.EncodingEntities {
			results[i] = documentOutput{Entities: extraction.EntitiesFromTags(doc)}
			continue
		}
		results[i] = documentOutput{Tokens: doc}
	}

	if opts.Output == "text" {
		return printExtractText(cmd, results)
	}
	return printJSON(cmd, map[string]any{
		"mode":     opts.Mode,
		"encoding": opts.Encoding,
		"results":  results,
	})
}

// loadSchema parses the schema from --schema or --schema-file; exactly one
// must be provided.
func loadSchema(opts *extractOptions) (extraction.Schema, error) {
	if opts.SchemaJSON != "" && opts.SchemaFile != "" {
		return nil, errors.New(errors.ErrCodeUnsupportedInput, "--schema and --schema-file are mutually exclusive")
	}

	raw := []byte(opts.SchemaJSON)
	if opts.SchemaFile != "" {
		data, err := os.ReadFile(opts.SchemaFile)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeUnsupportedInput, "reading schema file")
		}
		raw = data
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeUnsupportedInput, "either --schema or --schema-file must be provided")
	}

	var schema extraction.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnsupportedInput, "parsing schema JSON")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

// loadInput resolves the input texts from the positional argument, --input
// file, or stdin.
func loadInput(cmd *cobra.Command, args []string, opts *extractOptions) ([]string, error) {
	if len(args) == 1 && opts.Input != "" {
		return nil, errors.New(errors.ErrCodeUnsupportedInput, "a text argument and --input are mutually exclusive")
	}

	if len(args) == 1 {
		if opts.JSONL {
			return nil, errors.New(errors.ErrCodeUnsupportedInput, "--jsonl requires --input")
		}
		return []string{args[0]}, nil
	}
	if opts.Input == "" {
		return nil, errors.New(errors.ErrCodeUnsupportedInput, "either a text argument or --input must be provided")
	}

	var reader io.Reader
	if opts.Input == "-" {
		reader = cmd.InOrStdin()
	} else {
		f, err := os.Open(opts.Input)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeUnsupportedInput, "opening input file")
		}
		defer f.Close()
		reader = f
	}

	if opts.JSONL {
		return readRecords(reader, opts.Column)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnsupportedInput, "reading input")
	}
	return []string{string(data)}, nil
}

// readRecords parses JSON Lines input, pulling the text out of column on
// every record. Blank lines are skipped; a record missing the column is an
// unsupported-input error.
func readRecords(r io.Reader, column string) ([]string, error) {
	if strings.TrimSpace(column) == "" {
		return nil, errors.New(errors.ErrCodeUnsupportedInput, "column must not be empty")
	}

	var texts []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeUnsupportedInput,
				fmt.Sprintf("parsing record on line %d", line))
		}
		field, ok := rec[column]
		if !ok {
			return nil, errors.New(errors.ErrCodeUnsupportedInput,
				fmt.Sprintf("record on line %d has no %q field", line, column))
		}
		var text string
		if err := json.Unmarshal(field, &text); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeUnsupportedInput,
				fmt.Sprintf("field %q on line %d is not a string", column, line))
		}
		texts = append(texts, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnsupportedInput, "reading records")
	}
	return texts, nil
}

// printExtractText writes a plain-text rendering: one "token<TAB>tag" line
// per token for conll results, one "type<TAB>text" line per entity otherwise,
// with a blank line between documents.
func printExtractText(cmd *cobra.Command, results []documentOutput) error {
	out := cmd.OutOrStdout()
	for i, doc := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		for _, tok := range doc.Tokens {
			fmt.Fprintf(out, "%s\t%s\n", tok.Token, tok.Tag)
		}
		for _, ent := range doc.Entities {
			fmt.Fprintf(out, "%s\t%s\n", ent.Type, ent.Text)
		}
	}
	return nil
}
