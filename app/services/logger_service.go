package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"
)

// LoggerService writes application logs to a daily file and stdout.
// Log files live under the user's config directory and roll over at
// midnight; the frontend reports its own errors through the Log* bindings.
type LoggerService struct {
	mu         sync.Mutex
	logDir     string
	logFile    *os.File
	logger     *log.Logger
	currentDay string
}

// NewLoggerService creates a new logger service
func NewLoggerService() *LoggerService {
	s := &LoggerService{logDir: resolveLogDir()}

	if err := os.MkdirAll(s.logDir, 0755); err != nil {
		log.Printf("Warning: could not create log directory %s: %v", s.logDir, err)
		s.logDir = "logs"
		os.MkdirAll(s.logDir, 0755)
	}

	if err := s.openDailyFile(); err != nil {
		log.Printf("Warning: %v. Logging to stdout only.", err)
		s.logger = log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile)
		return s
	}

	s.wireOutputs()
	s.LogInfo("Logger initialized", fmt.Sprintf("Log directory: %s", s.logDir))
	return s
}

func resolveLogDir() string {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		appData = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(appData, "KantinPos", "logs")
}

// openDailyFile opens (or creates) the log file for the current day.
// Caller must hold the mutex or be the constructor.
func (s *LoggerService) openDailyFile() error {
	today := time.Now().Format("2006-01-02")
	if s.currentDay == today && s.logFile != nil {
		return nil
	}

	if s.logFile != nil {
		s.logFile.Close()
	}

	path := filepath.Join(s.logDir, today+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	s.logFile = file
	s.currentDay = today
	return nil
}

// wireOutputs points both our logger and the standard logger at the
// current file plus stdout.
func (s *LoggerService) wireOutputs() {
	out := io.MultiWriter(os.Stdout, s.logFile)
	if s.logger == nil {
		s.logger = log.New(out, "", log.LstdFlags|log.Lshortfile)
	} else {
		s.logger.SetOutput(out)
	}
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// write is the single entry point for all log levels. It handles daily
// rotation and the optional detail suffix.
func (s *LoggerService) write(level, message string, details ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Now().Format("2006-01-02") != s.currentDay {
		if err := s.openDailyFile(); err == nil {
			s.wireOutputs()
		}
	}

	suffix := ""
	if len(details) > 0 && details[0] != "" {
		suffix = " | " + details[0]
	}
	s.logger.Printf("[%s] %s%s", level, message, suffix)
}

// LogInfo logs an informational message
func (s *LoggerService) LogInfo(message string, details ...string) {
	s.write("INFO", message, details...)
}

// LogWarning logs a warning message
func (s *LoggerService) LogWarning(message string, details ...string) {
	s.write("WARNING", message, details...)
}

// LogError logs an error message
func (s *LoggerService) LogError(message string, err error, details ...string) {
	if err != nil {
		message = fmt.Sprintf("%s | Error: %v", message, err)
	}
	s.write("ERROR", message, details...)
}

// LogFatal logs a fatal error with a stack trace and exits
func (s *LoggerService) LogFatal(message string, err error) {
	if err != nil {
		message = fmt.Sprintf("%s | Error: %v", message, err)
	}
	s.write("FATAL", message)
	s.write("FATAL", "Stack trace:\n"+string(debug.Stack()))
	s.Close()
	os.Exit(1)
}

// LogPanic logs a recovered panic with its stack trace
func (s *LoggerService) LogPanic(recovered interface{}) {
	s.write("PANIC", fmt.Sprintf("Recovered from panic: %v", recovered))
	s.write("PANIC", "Stack trace:\n"+string(debug.Stack()))
}

// LogFrontendError logs errors reported by the frontend
func (s *LoggerService) LogFrontendError(message string, stack string, componentInfo string) {
	s.write("FRONTEND ERROR", message)
	if componentInfo != "" {
		s.write("FRONTEND ERROR", "Component: "+componentInfo)
	}
	if stack != "" {
		s.write("FRONTEND ERROR", "Stack trace:\n"+stack)
	}
}

// LogFrontendWarning logs warnings reported by the frontend
func (s *LoggerService) LogFrontendWarning(message string, details string) {
	s.write("FRONTEND WARNING", message, details)
}

// LogFrontendInfo logs info reported by the frontend
func (s *LoggerService) LogFrontendInfo(message string, details string) {
	s.write("FRONTEND INFO", message, details)
}

// GetLogDirectory returns the directory where logs are stored
func (s *LoggerService) GetLogDirectory() string {
	return s.logDir
}

// GetTodayLogPath returns the path to today's log file
func (s *LoggerService) GetTodayLogPath() string {
	return filepath.Join(s.logDir, time.Now().Format("2006-01-02")+".log")
}

// CleanOldLogs removes daily log files older than the given number of days
func (s *LoggerService) CleanOldLogs(daysToKeep int) error {
	entries, err := os.ReadDir(s.logDir)
	if err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -daysToKeep)

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.logDir, entry.Name())
			s.LogInfo("Deleting old log file", path)
			os.Remove(path)
		}
	}

	return nil
}

// Close closes the log file
func (s *LoggerService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logFile != nil {
		s.logFile.Close()
		s.logFile = nil
	}
}

// RecoverPanic logs and swallows a panic; use with defer in goroutines.
func (s *LoggerService) RecoverPanic() {
	if r := recover(); r != nil {
		s.LogPanic(r)
	}
}
