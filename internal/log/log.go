package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Package log is a thin structured-logging facade over logrus. Call sites
// pass alternating key/value pairs:
//
//	log.Info("feed fetch success", "status", resp.StatusCode)
//	log.Error("feed fetch failed", err, "url", redacted)
func init() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetLevel(logrus.InfoLevel)
}

// SetLevel adjusts the minimum level from a config/env string
// ("debug", "info", "error", ...). Unknown values are ignored.
func SetLevel(level string) {
	if level == "" {
		return
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("unknown log level, keeping current")
		return
	}
	logrus.SetLevel(parsed)
}

func Debug(msg string, kv ...any) {
	logrus.WithFields(fields(kv)).Debug(msg)
}

func Info(msg string, kv ...any) {
	logrus.WithFields(fields(kv)).Info(msg)
}

func Warn(msg string, kv ...any) {
	logrus.WithFields(fields(kv)).Warn(msg)
}

func Error(msg string, err error, kv ...any) {
	logrus.WithFields(fields(kv)).WithError(err).Error(msg)
}

// fields converts alternating key/value arguments into logrus fields.
// Non-string keys and a trailing odd value are dropped.
func fields(kv []any) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}
