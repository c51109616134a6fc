// Command validate checks the game presets in a configs directory. For each
// .json, .yaml or .yml file it checks:
//   - the document parses in the format its extension names
//   - name, grid size, win tile and messages pass engine validation
//   - the win tile can actually be built on the board
//   - the file name matches the preset name
//   - no two files share the same preset ID
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"github.com/wricardo/slide2048/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

var extensions = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// validateConfig loads and validates a single preset file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if !extensions[ext] {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Unsupported extension %q", ext))
		return result
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	config, err := engine.DecodeGameConfig(data, ext)
	if err != nil {
		result.Valid = false
		// One line per problem when validation aggregated several
		for _, e := range multierr.Errors(err) {
			result.Errors = append(result.Errors, strings.TrimPrefix(e.Error(), "config validation: "))
		}
		return result
	}

	stem := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if !strings.EqualFold(stem, config.Name) {
		result.Errors = append(result.Errors, fmt.Sprintf("Note: file %s declares name %q; sessions use the file name %q", result.File, config.Name, stem))
	}

	limit := engine.MaxReachableTile(config.GridSize)
	result.Errors = append(result.Errors,
		fmt.Sprintf("✓ %dx%d board, win tile %d (largest possible tile %d)", config.GridSize, config.GridSize, config.WinTile, limit))

	return result
}

// validateUniqueIDs reports presets that resolve to the same ID, such as
// classic.json next to classic.yaml
func validateUniqueIDs(files []string) []string {
	byID := make(map[string][]string)
	for _, f := range files {
		base := filepath.Base(f)
		id := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
		byID[id] = append(byID[id], base)
	}

	var problems []string
	for id, names := range byID {
		if len(names) > 1 {
			sort.Strings(names)
			problems = append(problems, fmt.Sprintf("Preset %q is defined by more than one file: %s", id, strings.Join(names, ", ")))
		}
	}
	sort.Strings(problems)
	return problems
}

// presetFiles lists the preset files in dir, sorted by name
func presetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// run validates every preset in dir, printing a concise report. It returns
// an error if any preset is invalid.
func run(dir string) error {
	files, err := presetFiles(dir)
	if err != nil {
		return fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no presets found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	if dups := validateUniqueIDs(files); len(dups) > 0 {
		allValid = false
		fmt.Printf("\n%s\n", strings.Repeat("=", 40))
		for _, d := range dups {
			fmt.Println("❌ " + d)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		return fmt.Errorf("some configurations have errors")
	}
	fmt.Println("✅ All configurations are valid!")
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "check the game presets in a configs directory",
		ArgsUsage: "[configs-dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "../configs"
			}
			return run(dir)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println("❌ " + err.Error())
		os.Exit(1)
	}
}
