package logging

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// LogLevel represents the logging severity.
type LogLevel int

const (
	// DEBUG level for verbose diagnostics
	DEBUG LogLevel = iota
	// INFO level for normal operations
	INFO
	// WARN level for potentially problematic situations
	WARN
	// ERROR level for failures that do not stop the application
	ERROR
	// FATAL level for errors that terminate the application
	FATAL
)

const strError = "ERROR"

// LogField is a single structured logging key/value pair.
type LogField struct {
	Key   string
	Value interface{}
}

// Field creates a structured logging field.
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger provides leveled, structured logging. Instances are immutable;
// WithField/WithFields/WithContext return copies.
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
	ctx    context.Context
}

// InvalidLevelError reports an unparseable level string.
type InvalidLevelError struct {
	level string
}

// NewInvalidLevelError creates an InvalidLevelError for the given input.
func NewInvalidLevelError(level string) *InvalidLevelError {
	return &InvalidLevelError{level: level}
}

// Error returns the error message.
func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid level: %s (must be DEBUG, INFO, WARN, ERROR, or FATAL)", e.level)
}

// packageLogLevels holds per-package level overrides. Keys are exact
// component names ("collector") or prefix patterns ("source.*").
var (
	packageLogLevels = make(map[string]LogLevel)
	packageLogMutex  sync.RWMutex
)

// SetPackageLogLevels replaces the per-package level overrides.
// Returns an error if any level string is invalid.
func SetPackageLogLevels(levels map[string]string) error {
	if levels == nil {
		return nil
	}

	packageLogMutex.Lock()
	defer packageLogMutex.Unlock()

	packageLogLevels = make(map[string]LogLevel)

	for pkg, levelStr := range levels {
		level, err := parseLevel(levelStr)
		if err != nil {
			return fmt.Errorf("invalid log level for package %q: %w", pkg, err)
		}
		packageLogLevels[pkg] = level
	}

	return nil
}

// GetPackageLogLevel returns the effective level override for a component
// name, preferring exact matches over wildcard patterns and longer
// patterns over shorter ones. Returns -1 when no override applies.
func GetPackageLogLevel(packageName string) LogLevel {
	packageLogMutex.RLock()
	defer packageLogMutex.RUnlock()

	if level, exists := packageLogLevels[packageName]; exists {
		return level
	}

	var patterns []string
	for pattern := range packageLogLevels {
		if matchesPattern(packageName, pattern) {
			patterns = append(patterns, pattern)
		}
	}

	if len(patterns) == 0 {
		return LogLevel(-1)
	}

	// Longest pattern is the most specific.
	sort.Slice(patterns, func(i, j int) bool {
		return len(patterns[i]) > len(patterns[j])
	})

	return packageLogLevels[patterns[0]]
}

// matchesPattern reports whether packageName matches pattern.
// "source.*" matches "source.prometheus" but not "source".
func matchesPattern(packageName, pattern string) bool {
	if packageName == pattern {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, ".*")
		return strings.HasPrefix(packageName, prefix+".")
	}
	return false
}

// cloneFields copies a field map. Returns an empty map for nil input.
func cloneFields(src map[string]interface{}) map[string]interface{} {
	if len(src) == 0 {
		return make(map[string]interface{})
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
