// Package manifest parses and lints pip-style requirements manifests:
// flat text files of "name==version" pins with comment and blank lines.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Severity classifies a lint finding.
type Severity string

const (
	// SeverityWarning marks findings that do not fail a lint run
	SeverityWarning Severity = "warning"
	// SeverityError marks findings that fail a lint run
	SeverityError Severity = "error"
)

// Lint rule identifiers.
const (
	// RulePinFormat: every non-comment, non-blank line must match name==version
	RulePinFormat = "pin-format"
	// RuleVersionSyntax: version strings must be syntactically valid
	RuleVersionSyntax = "version-syntax"
	// RuleDuplicate: no duplicate package names after normalization
	RuleDuplicate = "duplicate"
)

// Finding is a single lint result tied to a manifest line.
type Finding struct {
	Line     int      `json:"line"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("line %d: [%s] %s: %s", f.Line, f.Severity, f.Rule, f.Message)
}

// Requirement is a parsed package pin.
type Requirement struct {
	// Name is the normalized package name (see NormalizeName)
	Name string `json:"name"`

	// RawName is the package name as written in the manifest
	RawName string `json:"raw_name"`

	// Version is the pinned version string
	Version string `json:"version"`

	// Line is the 1-based line number of the pin
	Line int `json:"line"`

	// Comment is the inline comment following the pin, without the "#"
	Comment string `json:"comment,omitempty"`
}

// File is a parsed requirements manifest.
type File struct {
	// Path is where the manifest was read from, if known
	Path string `json:"path,omitempty"`

	// Requirements holds the well-formed pins in file order
	Requirements []Requirement `json:"requirements"`
}

// NormalizeName lowercases a package name and collapses the separator
// characters "-", "_" and "." to "-", so Typing_Extensions and
// typing-extensions refer to the same package.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	name = strings.ReplaceAll(name, ".", "-")
	return name
}

// Requirement returns the first pin matching the given name after
// normalization.
func (f *File) Requirement(name string) (*Requirement, bool) {
	want := NormalizeName(name)
	for i := range f.Requirements {
		if f.Requirements[i].Name == want {
			return &f.Requirements[i], true
		}
	}
	return nil, false
}

// Parse reads a manifest. Malformed lines become findings instead of
// aborting the parse, so a file with errors still yields every
// well-formed pin. Findings are ordered by line.
func Parse(r io.Reader) (*File, []Finding, error) {
	file := &File{}
	var findings []Finding

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			// Blank separators and comment lines (including trailing
			// install-hint comments) carry no requirements.
			continue
		}

		req, lineFindings := parseLine(line, lineNo)
		findings = append(findings, lineFindings...)
		if req != nil {
			file.Requirements = append(file.Requirements, *req)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}

	return file, findings, nil
}

// parseLine parses a single non-blank, non-comment line.
// Returns the requirement (nil if unusable) and any findings.
func parseLine(line string, lineNo int) (*Requirement, []Finding) {
	var findings []Finding

	spec, comment := splitInlineComment(line)
	spec = strings.TrimRight(spec, " \t")

	if strings.TrimSpace(spec) == "" {
		// Line was only an inline comment marker, e.g. "   # note".
		return nil, nil
	}

	idx := strings.Index(spec, "==")
	if idx < 0 {
		findings = append(findings, Finding{
			Line:     lineNo,
			Rule:     RulePinFormat,
			Severity: SeverityError,
			Message:  fmt.Sprintf("%q is not pinned with ==", strings.TrimSpace(spec)),
		})
		return nil, findings
	}

	rawName := spec[:idx]
	version := spec[idx+2:]

	if strings.Contains(version, "=") {
		findings = append(findings, Finding{
			Line:     lineNo,
			Rule:     RulePinFormat,
			Severity: SeverityError,
			Message:  fmt.Sprintf("unexpected %q in version specifier", "="),
		})
		return nil, findings
	}

	if rawName != strings.TrimSpace(rawName) || version != strings.TrimSpace(version) {
		findings = append(findings, Finding{
			Line:     lineNo,
			Rule:     RulePinFormat,
			Severity: SeverityWarning,
			Message:  "whitespace around == specifier",
		})
		rawName = strings.TrimSpace(rawName)
		version = strings.TrimSpace(version)
	}

	if rawName == "" || version == "" {
		findings = append(findings, Finding{
			Line:     lineNo,
			Rule:     RulePinFormat,
			Severity: SeverityError,
			Message:  "missing package name or version",
		})
		return nil, findings
	}

	if !validName(rawName) {
		findings = append(findings, Finding{
			Line:     lineNo,
			Rule:     RulePinFormat,
			Severity: SeverityError,
			Message:  fmt.Sprintf("invalid package name %q", rawName),
		})
		return nil, findings
	}

	return &Requirement{
		Name:    NormalizeName(rawName),
		RawName: rawName,
		Version: version,
		Line:    lineNo,
		Comment: comment,
	}, findings
}

// splitInlineComment separates a pin from a trailing "# ..." comment.
// The comment marker must be preceded by whitespace or start the line.
func splitInlineComment(line string) (spec, comment string) {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if i == 0 || line[i-1] == ' ' || line[i-1] == '\t' {
			return line[:i], strings.TrimSpace(line[i+1:])
		}
	}
	return line, ""
}

// validName reports whether a package name uses only the characters pip
// accepts: ASCII letters, digits, ".", "-", "_", and bracketed extras.
func validName(name string) bool {
	depth := 0
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '_':
		case r == '[':
			depth++
		case r == ']':
			depth--
			if depth < 0 {
				return false
			}
		case r == ',' && depth > 0:
		default:
			return false
		}
	}
	return depth == 0 && name != ""
}
