package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/moolen/pulse/internal/manifest"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	lintFormat  string
	lintNoColor bool
)

var lintCmd = &cobra.Command{
	Use:   "lint <requirements-file>",
	Short: "Lint a pip-style requirements manifest",
	Long: `Lint a requirements manifest of "name==version" pins.

Checks that every non-comment line is a well-formed pin, that version
strings parse, and that no package is pinned twice (names are compared
case-insensitively with '-', '_' and '.' treated as equal).

Exits non-zero when any error-severity finding is present.

Examples:
  pulse lint requirements.txt
  pulse lint --format json requirements.txt
`,
	Args: cobra.ExactArgs(1),
	RunE: runLint,
}

func init() {
	lintCmd.Flags().StringVar(&lintFormat, "format", "text", "Output format: text or json")
	lintCmd.Flags().BoolVar(&lintNoColor, "no-color", false, "Disable colored output")
}

// lintReport is the JSON output shape, mirroring the lint API endpoint.
type lintReport struct {
	Path         string                 `json:"path"`
	Requirements []manifest.Requirement `json:"requirements"`
	Findings     []manifest.Finding     `json:"findings"`
	HasErrors    bool                   `json:"has_errors"`
}

func runLint(cmd *cobra.Command, args []string) error {
	if lintFormat != "text" && lintFormat != "json" {
		return fmt.Errorf("invalid format %q (must be text or json)", lintFormat)
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	file, findings, err := manifest.Parse(f)
	if err != nil {
		return err
	}
	file.Path = path
	findings = append(findings, file.Lint()...)
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Line < findings[j].Line
	})

	hasErrors := manifest.HasErrors(findings)

	if lintFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if findings == nil {
			findings = []manifest.Finding{}
		}
		if err := enc.Encode(lintReport{
			Path:         path,
			Requirements: file.Requirements,
			Findings:     findings,
			HasErrors:    hasErrors,
		}); err != nil {
			return err
		}
	} else {
		printTextReport(cmd, path, file, findings)
	}

	if hasErrors {
		return fmt.Errorf("%s: %d problem(s) found", path, len(findings))
	}
	return nil
}

func printTextReport(cmd *cobra.Command, path string, file *manifest.File, findings []manifest.Finding) {
	out := cmd.OutOrStdout()

	errStyle := lipgloss.NewStyle()
	warnStyle := lipgloss.NewStyle()
	dimStyle := lipgloss.NewStyle()
	if useColor() {
		errStyle = errStyle.Foreground(lipgloss.Color("#EF4444")).Bold(true)
		warnStyle = warnStyle.Foreground(lipgloss.Color("#F59E0B")).Bold(true)
		dimStyle = dimStyle.Foreground(lipgloss.Color("#6B7280"))
	}

	fmt.Fprintf(out, "%s: %d requirement(s)\n", path, len(file.Requirements))

	if len(findings) == 0 {
		fmt.Fprintln(out, dimStyle.Render("no problems found"))
		return
	}

	for _, finding := range findings {
		label := warnStyle.Render(string(finding.Severity))
		if finding.Severity == manifest.SeverityError {
			label = errStyle.Render(string(finding.Severity))
		}
		fmt.Fprintf(out, "%s:%d: %s %s %s\n",
			path, finding.Line, label, dimStyle.Render("["+finding.Rule+"]"), finding.Message)
	}
}

func useColor() bool {
	if lintNoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
