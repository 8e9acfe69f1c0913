package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/clubfinder/clubfinder/internal"
	"github.com/clubfinder/clubfinder/internal/config"
	"github.com/clubfinder/clubfinder/internal/log"
	"github.com/clubfinder/clubfinder/internal/search"
)

var BuildVersion = "dev"

func defaultConfig() map[string]any {
	return map[string]any{
		"version": config.SupportedVersionPrefix,
		"server": map[string]any{
			"baseURL":        "https://clubs.example.edu",
			"addr":           ":8080",
			"allowedOrigins": []string{"https://clubs.example.edu"},
		},
		"identity": map[string]any{
			"kind":    "supabase",
			"url":     "https://your-project.supabase.co",
			"anonKey": map[string]string{"$env": "SUPABASE_ANON_KEY"},
		},
		"calendar": map[string]any{
			"redirectUri": "https://clubs.example.edu/calendar/callback",
		},
		"search": map[string]any{
			"source":      "csv",
			"csvPath":     config.DefaultCSVPath,
			"cacheTtl":    "5m",
			"defaultTopN": 10,
		},
		"storage": map[string]any{
			"kind": "memory",
		},
	}
}

func generateDefaultConfig(path string) error {
	data, err := json.MarshalIndent(defaultConfig(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validateConfig(path string, out io.Writer) error {
	result, err := config.ValidateFile(path)
	if err != nil {
		return fmt.Errorf("error during validation: %w", err)
	}

	fmt.Fprintf(out, "Validating: %s\n", path)

	printIssues := func(title string, issues []config.ValidationError) {
		if len(issues) == 0 {
			return
		}
		fmt.Fprintf(out, "\n%s (%d):\n", title, len(issues))
		for _, issue := range issues {
			if issue.Path != "" {
				fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
			} else {
				fmt.Fprintf(out, "  - %s\n", issue.Message)
			}
		}
	}
	printIssues("Errors", result.Errors)
	printIssues("Warnings", result.Warnings)

	fmt.Fprintln(out)
	switch {
	case len(result.Errors) > 0:
		fmt.Fprintln(out, "Result: FAIL")
	case len(result.Warnings) > 0:
		fmt.Fprintln(out, "Result: PASS (with warnings)")
	default:
		fmt.Fprintln(out, "Result: PASS")
	}

	if !result.IsValid() {
		return fmt.Errorf("validation failed: %d error(s)", len(result.Errors))
	}
	return nil
}

// importCatalogue loads a CSV catalogue into the configured Postgres table
func importCatalogue(cfg config.SearchConfig, csvPath string, replace bool, out io.Writer) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("search.databaseURL is required to import a catalogue")
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open catalogue: %w", err)
	}
	defer f.Close()

	db, err := search.OpenPostgres(string(cfg.DatabaseURL))
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := search.ImportCSV(context.Background(), db, cfg.Table, f, search.ImportOptions{Replace: replace})
	if err != nil {
		return fmt.Errorf("import failed after %d rows: %w", result.Imported, err)
	}

	fmt.Fprintf(out, "Imported %d of %d organizations into %s\n", result.Imported, result.Rows, cfg.Table)
	for _, failed := range result.Failed {
		fmt.Fprintf(out, "  - %s: %v\n", failed.Name, failed.Err)
	}
	return nil
}

// run returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("clubfinder", flag.ContinueOnError)
	flags.SetOutput(stderr)
	conf := flags.String("config", "", "path to config file (required)")
	version := flags.Bool("version", false, "print version and exit")
	help := flags.Bool("help", false, "print help and exit")
	configInit := flags.String("config-init", "", "generate default config file at specified path")
	validate := flags.Bool("validate", false, "validate config file and exit")
	logLevel := flags.String("log-level", "", "override LOG_LEVEL (error, warn, info, debug, trace)")
	importCSV := flags.String("import-csv", "", "import a CSV catalogue into the configured Postgres table and exit")
	replace := flags.Bool("replace", false, "with -import-csv, delete existing organizations first")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *logLevel != "" {
		if err := log.SetLogLevel(*logLevel); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	}

	if *help {
		flags.SetOutput(stdout)
		flags.Usage()
		return 0
	}
	if *version {
		fmt.Fprintln(stdout, BuildVersion)
		return 0
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			return 1
		}
		fmt.Fprintf(stdout, "Generated default config at: %s\n", *configInit)
		return 0
	}

	if *validate {
		if *conf == "" {
			fmt.Fprintln(stderr, "Error: -config flag is required for validation")
			return 1
		}
		if err := validateConfig(*conf, stdout); err != nil {
			return 1
		}
		return 0
	}

	if *conf == "" {
		fmt.Fprintln(stderr, "Error: -config flag is required")
		fmt.Fprintln(stderr, "Run with -help for usage information")
		return 1
	}

	cfg, err := config.Load(*conf)
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		return 1
	}

	if *importCSV != "" {
		if err := importCatalogue(cfg.Search, *importCSV, *replace, stdout); err != nil {
			log.LogError("Import failed: %v", err)
			return 1
		}
		return 0
	}

	log.LogInfoWithFields("main", "Starting clubfinder", map[string]any{
		"version":   BuildVersion,
		"config":    *conf,
		"log_level": log.GetLogLevel(),
	})

	app, err := internal.NewClubFinder(context.Background(), cfg, BuildVersion)
	if err != nil {
		log.LogError("Failed to create application: %v", err)
		return 1
	}

	if err := app.Run(); err != nil {
		log.LogError("Server stopped with error: %v", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
