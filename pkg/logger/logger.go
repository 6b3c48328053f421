package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
)

// LogLevel defines the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// Color codes for console output
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	purple = "\033[35m"
)

// Logger is a custom logging structure
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	output io.Writer
}

// New creates a new Logger instance
func New(level LogLevel) *Logger {
	return &Logger{
		level:  level,
		output: os.Stdout,
	}
}

// SetLevel changes the minimum level at runtime
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// ParseLevel converts a textual level into a LogLevel, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// getCallerInfo retrieves file and line of the caller
func getCallerInfo(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "???", 0
	}

	// Trim the full path to just the last few path components
	parts := strings.Split(file, "/")
	if len(parts) > 3 {
		file = strings.Join(parts[len(parts)-3:], "/")
	}

	return file, line
}

// colorForLevel returns the color based on log level
func colorForLevel(level LogLevel) string {
	switch level {
	case DEBUG:
		return blue
	case INFO:
		return green
	case WARN:
		return yellow
	case ERROR:
		return red
	case FATAL:
		return purple
	default:
		return reset
	}
}

// log writes a formatted log message
func (l *Logger) log(level LogLevel, msg string) {
	if level < l.level {
		return
	}

	// Skip 3 stack frames to get the correct caller
	file, line := getCallerInfo(3)

	color := colorForLevel(level)

	logEntry := fmt.Sprintf("%s[%s]%s %s:%d - %s\n",
		color,
		levelNames[level],
		reset,
		file,
		line,
		msg,
	)

	l.mu.Lock()
	fmt.Fprint(l.output, logEntry)
	l.mu.Unlock()

	if level == FATAL {
		os.Exit(1)
	}
}

// logw formats a message together with alternating key/value pairs
func (l *Logger) logw(level LogLevel, msg string, keysAndValues ...interface{}) {
	if level < l.level {
		return
	}

	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if len(keysAndValues)%2 != 0 {
		fmt.Fprintf(&b, " %v=?", keysAndValues[len(keysAndValues)-1])
	}

	l.log(level, b.String())
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, v...))
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, v...))
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.log(WARN, fmt.Sprintf(format, v...))
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.log(ERROR, fmt.Sprintf(format, v...))
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.log(FATAL, fmt.Sprintf(format, v...))
}

// Debugw logs a debug message with key/value context
func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.logw(DEBUG, msg, keysAndValues...)
}

// Infow logs an info message with key/value context
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.logw(INFO, msg, keysAndValues...)
}

// Warnw logs a warning message with key/value context
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.logw(WARN, msg, keysAndValues...)
}

// Errorw logs an error message with key/value context
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.logw(ERROR, msg, keysAndValues...)
}

// Fatalw logs a fatal message with key/value context and exits
func (l *Logger) Fatalw(msg string, keysAndValues ...interface{}) {
	l.logw(FATAL, msg, keysAndValues...)
}
