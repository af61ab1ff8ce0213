package manifest

import (
	"fmt"
	"sort"

	goversion "github.com/hashicorp/go-version"
)

// Lint checks the semantic properties of a parsed manifest: version
// strings must parse, and no package may be pinned twice. Parse-level
// findings are reported by Parse; callers combine both sets.
// Findings are ordered by line.
func (f *File) Lint() []Finding {
	var findings []Finding

	firstSeen := make(map[string]int)

	for _, req := range f.Requirements {
		if _, err := goversion.NewVersion(req.Version); err != nil {
			findings = append(findings, Finding{
				Line:     req.Line,
				Rule:     RuleVersionSyntax,
				Severity: SeverityError,
				Message:  fmt.Sprintf("invalid version %q for %s", req.Version, req.RawName),
			})
		}

		if prev, dup := firstSeen[req.Name]; dup {
			findings = append(findings, Finding{
				Line:     req.Line,
				Rule:     RuleDuplicate,
				Severity: SeverityError,
				Message:  fmt.Sprintf("duplicate package %q (first pinned on line %d)", req.RawName, prev),
			})
			continue
		}
		firstSeen[req.Name] = req.Line
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Line < findings[j].Line
	})

	return findings
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}
