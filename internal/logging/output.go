package logging

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"
)

const levelFatal = "FATAL"

// requestIDKey is the context key used to correlate log lines of a request.
type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDKey returns the context key under which middleware stores the
// request ID picked up by WithContext.
func RequestIDKey() interface{} {
	return requestIDKey
}

// extractContextFields pulls correlation fields out of a context.
// Returns nil when there is nothing to extract.
func extractContextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	if reqID := ctx.Value(requestIDKey); reqID != nil {
		return map[string]interface{}{"request_id": reqID}
	}
	return nil
}

// writeLog formats and emits a log line. DEBUG/INFO/WARN go to stdout,
// ERROR/FATAL to stderr.
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	logMsg := fmt.Sprintf("[%s] [%s] %s: %s", GetTimestamp(), level, l.name, msg)

	if len(fields) > 0 {
		logMsg += " |"
		for k, v := range fields {
			logMsg += fmt.Sprintf(" %s=%v", k, v)
		}
	}

	if level == strError || level == levelFatal {
		fmt.Fprintf(os.Stderr, "%s\n", logMsg)
	} else {
		log.Println(logMsg)
	}
}

func (l *Logger) logf(level, msg string, args ...interface{}) {
	formattedMsg := fmt.Sprintf(msg, args...)

	contextFields := extractContextFields(l.ctx)
	var mergedFields map[string]interface{}

	if contextFields != nil || len(l.fields) > 0 {
		mergedFields = make(map[string]interface{})
		for k, v := range contextFields {
			mergedFields[k] = v
		}
		for k, v := range l.fields {
			mergedFields[k] = v
		}
	}

	l.writeLog(level, formattedMsg, mergedFields)
}

// GetTimestamp returns an RFC3339 timestamp for log lines.
// LOG_TIMESTAMP overrides it for deterministic test output.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
