package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hiroq/audionotes/internal/bootstrap"
	"github.com/hiroq/audionotes/internal/model"
)

// AddOptions holds parsed add command options
type AddOptions struct {
	ConfigPath string
	UseStdin   bool
	Text       string
}

// SearchOptions holds parsed search command options
type SearchOptions struct {
	Format     string
	ConfigPath string
	Query      string
}

// JSONOutput represents the JSON output format
type JSONOutput struct {
	Results []JSONResult `json:"results"`
}

// JSONResult represents a single result in JSON output
type JSONResult struct {
	Text  string   `json:"text"`
	Score *float64 `json:"score"`
}

// parseAddFlags parses command line arguments for add command
func parseAddFlags(args []string) (*AddOptions, error) {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // suppress default error output

	opts := &AddOptions{}
	fs.StringVar(&opts.ConfigPath, "config", "", "Config file path")
	fs.StringVar(&opts.ConfigPath, "c", "", "Config file path (shorthand)")
	fs.BoolVar(&opts.UseStdin, "stdin", false, "Read note text from stdin")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.Text = strings.Join(fs.Args(), " ")

	if !opts.UseStdin && opts.Text == "" {
		return nil, fmt.Errorf("note text is required (or use --stdin)")
	}

	return opts, nil
}

// runAddCmd is the entry point for add command
func runAddCmd(args []string) error {
	opts, err := parseAddFlags(args)
	if err != nil {
		return err
	}

	if opts.UseStdin {
		text, err := readFromStdin()
		if err != nil {
			return fmt.Errorf("failed to read text from stdin: %w", err)
		}
		opts.Text = text
	}

	if opts.Text == "" {
		return fmt.Errorf("note text is empty")
	}

	ctx := context.Background()
	services, cleanup, err := bootstrap.Initialize(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer cleanup()

	note, err := services.NoteService.Add(ctx, opts.Text)
	if err != nil {
		return err
	}

	fmt.Printf("saved note %s\n", note.ID)
	return nil
}

// parseSearchFlags parses command line arguments for search command
func parseSearchFlags(args []string) (*SearchOptions, error) {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // suppress default error output

	opts := &SearchOptions{}
	fs.StringVar(&opts.Format, "format", "text", "Output format: text|json")
	fs.StringVar(&opts.Format, "f", "text", "Output format (shorthand)")
	fs.StringVar(&opts.ConfigPath, "config", "", "Config file path")
	fs.StringVar(&opts.ConfigPath, "c", "", "Config file path (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.Format == "" {
		opts.Format = "text"
	}

	// Query from remaining args; empty query means "list notes"
	opts.Query = strings.Join(fs.Args(), " ")

	if opts.Format != "text" && opts.Format != "json" {
		return nil, fmt.Errorf("invalid format: %s (must be text or json)", opts.Format)
	}

	return opts, nil
}

// runSearchCmd is the entry point for search command
func runSearchCmd(args []string) error {
	opts, err := parseSearchFlags(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	services, cleanup, err := bootstrap.Initialize(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := services.NoteService.ListOrSearch(ctx, opts.Query)
	if err != nil {
		return err
	}

	switch opts.Format {
	case "json":
		return printJSON(results)
	default:
		printText(results)
		return nil
	}
}

// readFromStdin reads all text from stdin
func readFromStdin() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// printText prints results in human-readable form
func printText(results []model.Result) {
	if len(results) == 0 {
		fmt.Println("no notes found")
		return
	}

	for i, result := range results {
		if result.Score != nil {
			fmt.Printf("%d. [%.4f] %s\n", i+1, *result.Score, result.Text)
		} else {
			fmt.Printf("%d. %s\n", i+1, result.Text)
		}
	}
}

// printJSON prints results as JSON
func printJSON(results []model.Result) error {
	output := JSONOutput{Results: make([]JSONResult, 0, len(results))}
	for _, result := range results {
		output.Results = append(output.Results, JSONResult{
			Text:  result.Text,
			Score: result.Score,
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
