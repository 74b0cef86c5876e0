package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2beens/abtracker/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLevel = logrus.InfoLevel

	logFileMaxSizeMegabytes = 20
	// session logs are sparse, a year of rotated files stays small
	logFileMaxAgeDays = 365
)

type Params struct {
	// LogFilePath empty means stdout only.
	LogFilePath   string
	LogToStdout   bool
	LogLevel      string
	LogFormatJSON bool

	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the global logrus logger. A sentry init failure is
// logged and does not stop the setup.
func Setup(params Params) error {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, ok := ParseLevel(params.LogLevel)
	if !ok {
		logrus.Warnf("unknown log level [%s], using [%s]", params.LogLevel, level)
	}
	logrus.SetLevel(level)

	out, err := output(params.LogFilePath, params.LogToStdout)
	if err != nil {
		return err
	}
	logrus.SetOutput(out)

	if params.SentryEnabled {
		if err := setupSentry(params); err != nil {
			logrus.Errorf("sentry setup: %s", err)
		} else {
			logrus.Infoln("sentry set up successfully")
		}
	}

	return nil
}

func output(logFilePath string, alsoStdout bool) (io.Writer, error) {
	if logFilePath == "" {
		return os.Stdout, nil
	}

	if filepath.Ext(logFilePath) != ".log" {
		logFilePath += ".log"
	}
	if exists, err := pkg.PathExists(filepath.Dir(logFilePath), true); err != nil {
		return nil, fmt.Errorf("check logs dir: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("logs dir for [%s] does not exist", logFilePath)
	}

	fileWriter := &lumberjack.Logger{
		Filename:  logFilePath,
		MaxSize:   logFileMaxSizeMegabytes,
		MaxAge:    logFileMaxAgeDays,
		LocalTime: false, // UTC in rotated file names
		Compress:  true,
	}
	if !alsoStdout {
		return fileWriter, nil
	}
	return pkg.NewCombinedWriter(os.Stdout, fileWriter), nil
}

func setupSentry(params Params) error {
	if params.SentryDSN == "" {
		return fmt.Errorf("sentry dsn not set")
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              params.SentryDSN,
		Environment:      params.Environment,
		ServerName:       params.SentryServerName,
		TracesSampleRate: 0.2,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	return nil
}

// ParseLevel maps a config level name to a logrus level. Unknown names
// give the info level and false.
func ParseLevel(level string) (logrus.Level, bool) {
	if strings.TrimSpace(level) == "" {
		return defaultLevel, true
	}
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return defaultLevel, false
	}
	return parsed, true
}
