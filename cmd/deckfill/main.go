package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/slidework/go-deckfill/pkg/deckfill"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const version = "0.1.0"

// setFlags collects repeated -set key=value flags.
type setFlags []string

func (s *setFlags) String() string { return strings.Join(*s, ", ") }

func (s *setFlags) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	*s = append(*s, value)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		flagTemplate string
		flagContext  string
		flagSets     setFlags
		flagOut      string
		flagLog      string
		flagCheck    bool
		flagQuiet    bool
		flagVersion  bool
	)

	flag.StringVar(&flagTemplate, "template", "", "path to the .pptx template (or DECKFILL_TEMPLATE_PATH)")
	flag.StringVar(&flagContext, "context", "", "path to a JSON file with placeholder values")
	flag.Var(&flagSets, "set", "placeholder value as key=value (repeatable, overrides -context)")
	flag.StringVar(&flagOut, "out", "", "output directory for rendered decks")
	flag.StringVar(&flagLog, "log", "", "log level: debug, info, warn, error")
	flag.BoolVar(&flagCheck, "check", false, "lint placeholder syntax and exit without rendering")
	flag.BoolVar(&flagQuiet, "quiet", false, "suppress logging; print only the output path")
	flag.BoolVar(&flagVersion, "version", false, "print version and exit")
	flag.Usage = usage
	flag.Parse()

	if flagVersion {
		fmt.Printf("deckfill %s\n", version)
		return 0
	}

	config := deckfill.ConfigFromEnvironment()
	if flagTemplate != "" {
		config.TemplatePath = flagTemplate
	}
	if flagOut != "" {
		config.OutputDir = flagOut
	}
	if flagLog != "" {
		config.LogLevel = flagLog
	}

	if config.TemplatePath == "" {
		fmt.Fprintln(os.Stderr, "deckfill: no template given")
		flag.Usage()
		return 1
	}

	if flagCheck {
		return check(config.TemplatePath)
	}

	context, err := buildContext(flagContext, flagSets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deckfill: %v\n", err)
		return 1
	}

	logger := zap.NewNop()
	if !flagQuiet {
		logger, err = deckfill.NewLogger(config.LogLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "deckfill: %v\n", err)
			return 1
		}
		defer logger.Sync()
	}

	processor, err := deckfill.NewProcessor(config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deckfill: %v\n", err)
		return 1
	}
	defer processor.Close()

	outputPath, err := processor.Process(context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deckfill: %v\n", err)
		return 1
	}

	fmt.Println(outputPath)
	return 0
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "deckfill renders {{key}} placeholders in PPTX decks while preserving run styling.\n\n")
	fmt.Fprintf(out, "Usage:\n  deckfill -template deck.pptx [-context data.json] [-set key=value]...\n\n")
	fmt.Fprintf(out, "Flags:\n")
	flag.PrintDefaults()
}

// buildContext loads the -context JSON file, then applies -set overrides on
// top of it.
func buildContext(contextPath string, sets setFlags) (deckfill.Context, error) {
	context := deckfill.Context{}

	if contextPath != "" {
		data, err := os.ReadFile(contextPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read context file: %w", err)
		}
		context, err = deckfill.ContextFromJSON(data)
		if err != nil {
			return nil, err
		}
	}

	for _, kv := range sets {
		parts := strings.SplitN(kv, "=", 2)
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("empty key in -set %q", kv)
		}
		context[key] = coerceSetValue(parts[1])
	}

	return context, nil
}

// coerceSetValue interprets a -set value as a JSON scalar when it parses as
// one, using the same integer/float split as ContextFromJSON, and keeps it
// as a plain string otherwise.
func coerceSetValue(raw string) interface{} {
	trimmed := strings.TrimSpace(raw)
	if !gjson.Valid(trimmed) {
		return raw
	}

	result := gjson.Parse(trimmed)
	switch result.Type {
	case gjson.Number:
		if !strings.ContainsAny(result.Raw, ".eE") {
			return result.Int()
		}
		return result.Float()
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Null:
		return nil
	case gjson.String:
		return result.String()
	default:
		return raw
	}
}

// check lints the deck's placeholder syntax and reports findings without
// rendering.
func check(templatePath string) int {
	deck, err := os.ReadFile(templatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deckfill: %v\n", err)
		return 1
	}

	result, err := deckfill.ValidateDeckSyntax(deckfill.ValidateDeckSyntaxInput{DeckBytes: deck})
	if err != nil {
		fmt.Fprintf(os.Stderr, "deckfill: %v\n", err)
		return 1
	}

	for _, issue := range result.Issues {
		fmt.Printf("%s %s %s slide %d [%d:%d): %s (%s)\n",
			issue.Severity, issue.Code, issue.Location.Part, issue.Location.SlideIndex+1,
			issue.Location.CharStart, issue.Location.CharEnd, issue.Message, issue.Token.Raw)
	}
	fmt.Printf("checked %d tokens: %d errors, %d warnings\n",
		result.Summary.CheckedTokens, result.Summary.ErrorCount, result.Summary.WarningCount)

	if !result.Valid {
		return 1
	}
	return 0
}
