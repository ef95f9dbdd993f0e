package common

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// --------------------------------------------------------------------------
// Log Levels
// --------------------------------------------------------------------------

// LogLevel controls how verbose a logger is. Higher levels include all
// lower ones.
type LogLevel int

const (
	CRITICAL LogLevel = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

// --------------------------------------------------------------------------
// Logger Interface
// --------------------------------------------------------------------------

// ILogger is the logging interface used throughout the echo service
type ILogger interface {
	SetLevel(level LogLevel)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Panicf(format string, args ...interface{})
}

// --------------------------------------------------------------------------
// Custom Logger (implements ILogger)
// --------------------------------------------------------------------------

// echodLogger implements the ILogger interface with custom formatting
type echodLogger struct {
	name   string
	level  LogLevel
	logger *log.Logger
	mu     sync.Mutex
}

func (l *echodLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *echodLogger) getLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *echodLogger) Debugf(format string, args ...interface{}) {
	if l.getLevel() >= DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *echodLogger) Infof(format string, args ...interface{}) {
	if l.getLevel() >= INFO {
		l.log("INFO", format, args...)
	}
}

func (l *echodLogger) Warningf(format string, args ...interface{}) {
	if l.getLevel() >= WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *echodLogger) Errorf(format string, args ...interface{}) {
	if l.getLevel() >= ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *echodLogger) Panicf(format string, args ...interface{}) {
	if l.getLevel() >= CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// log formats and writes a log message. this internal helper is used by the public methods
func (l *echodLogger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-15s | %s", levelStr, l.name, message)
}

// --------------------------------------------------------------------------
// Logger Registry
// --------------------------------------------------------------------------

var (
	loggersMu sync.Mutex
	loggers   = make(map[string]*echodLogger)
)

// GetLogger returns the named logger, creating it on first use.
// Loggers are shared: all callers asking for the same name get the
// same instance, so a level set via InitLoggers applies everywhere.
func GetLogger(pkgName string) ILogger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[pkgName]; ok {
		return l
	}

	// Create standard logger with custom flags
	stdLogger := log.New(os.Stdout, "", log.Ldate|log.Ltime)

	l := &echodLogger{
		name:   pkgName,
		level:  INFO,
		logger: stdLogger,
	}
	loggers[pkgName] = l
	return l
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseLogLevel converts a string level to LogLevel
func parseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warning", "warn":
		return WARNING
	case "error":
		return ERROR
	default:
		panic(fmt.Sprintf("invalid log level: %s. must be one of debug, info, warn, error", level))
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers sets the configured log level on all loggers of the service
func InitLoggers(config ServerConfig) {
	level := parseLogLevel(config.LogLevel)

	GetLogger("server").SetLevel(level)
	GetLogger("transport").SetLevel(level)
	GetLogger("pool").SetLevel(level)
	GetLogger("client").SetLevel(level)
	GetLogger("perf").SetLevel(level)
}
