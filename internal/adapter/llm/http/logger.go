package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Logger provides structured logging for API calls and review progress.
type Logger interface {
	// LogRequest logs an outgoing API request (API key redacted).
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing, token and cost info.
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error.
	LogError(ctx context.Context, errLog ErrorLog)

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})

	// LogWarning logs a warning with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog captures an outgoing request.
type RequestLog struct {
	Provider    string
	Model       string
	Timestamp   time.Time
	PromptChars int
	APIKey      string // redacted to the last 4 characters when logged
}

// ResponseLog captures a completed request.
type ResponseLog struct {
	Provider     string
	Model        string
	Timestamp    time.Time
	Duration     time.Duration
	TokensIn     int
	TokensOut    int
	Cost         float64
	StatusCode   int
	FinishReason string
}

// ErrorLog captures a failed request.
type ErrorLog struct {
	Provider   string
	Model      string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	ErrorType  ErrorType
	StatusCode int
	Retryable  bool
}

// LogLevel defines logging verbosity.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat selects the output encoding.
type LogFormat int

const (
	// LogFormatHuman is the line-oriented format for terminals.
	LogFormatHuman LogFormat = iota
	// LogFormatJSON is the machine-readable format for CI log aggregation.
	LogFormatJSON
)

// DefaultLogger writes structured log lines through the standard log
// package so output interleaves correctly with the rest of the process.
type DefaultLogger struct {
	level      LogLevel
	format     LogFormat
	redactKeys bool
}

// NewDefaultLogger creates a logger with the given level and format.
func NewDefaultLogger(level LogLevel, format LogFormat, redactKeys bool) *DefaultLogger {
	return &DefaultLogger{level: level, format: format, redactKeys: redactKeys}
}

// LogRequest implements Logger.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}
	l.emit("request", map[string]interface{}{
		"provider":     req.Provider,
		"model":        req.Model,
		"prompt_chars": req.PromptChars,
		"api_key":      l.redactKey(req.APIKey),
	})
}

// LogResponse implements Logger.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}
	l.emit("response", map[string]interface{}{
		"provider":      resp.Provider,
		"model":         resp.Model,
		"duration_ms":   resp.Duration.Milliseconds(),
		"tokens_in":     resp.TokensIn,
		"tokens_out":    resp.TokensOut,
		"cost_usd":      fmt.Sprintf("%.4f", resp.Cost),
		"status":        resp.StatusCode,
		"finish_reason": resp.FinishReason,
	})
}

// LogError implements Logger.
func (l *DefaultLogger) LogError(ctx context.Context, errLog ErrorLog) {
	l.emit("error", map[string]interface{}{
		"provider":    errLog.Provider,
		"model":       errLog.Model,
		"duration_ms": errLog.Duration.Milliseconds(),
		"error":       RedactURLSecrets(fmt.Sprint(errLog.Error)),
		"error_type":  errLog.ErrorType.String(),
		"status":      errLog.StatusCode,
		"retryable":   errLog.Retryable,
	})
}

// LogInfo implements Logger.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.emitMessage("info", message, fields)
}

// LogWarning implements Logger.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.emitMessage("warning", message, fields)
}

func (l *DefaultLogger) emit(event string, fields map[string]interface{}) {
	l.emitMessage(event, "", fields)
}

func (l *DefaultLogger) emitMessage(event, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		entry := map[string]interface{}{"event": event}
		if message != "" {
			entry["message"] = message
		}
		for k, v := range fields {
			entry[k] = v
		}
		data, err := json.Marshal(entry)
		if err != nil {
			log.Printf("%s %s %v", event, message, fields)
			return
		}
		log.Print(string(data))
		return
	}

	line := event
	if message != "" {
		line += ": " + message
	}
	for k, v := range fields {
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	log.Print(line)
}

func (l *DefaultLogger) redactKey(key string) string {
	if !l.redactKeys {
		return key
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
