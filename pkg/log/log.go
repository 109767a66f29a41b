/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package log

import (
	"errors"
	"io"
	"os"
	"strings"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LoggerName  = "go-libre"
	HelpLevels  = "Must be one of: error, warning, info, debug."
	HelpFormats = "Must be one of: console, json, logfmt."
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatLogfmt  = "logfmt"
)

var levelMapping = map[string]zapcore.Level{
	"error":   zapcore.ErrorLevel,
	"warning": zapcore.WarnLevel,
	"warn":    zapcore.WarnLevel,
	"info":    zapcore.InfoLevel,
	"debug":   zapcore.DebugLevel,
}

type Logger struct {
	level zap.AtomicLevel
	*zap.SugaredLogger
}

var logger = newLogger(os.Stderr, zap.NewAtomicLevelAt(zapcore.InfoLevel), FormatConsole)

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}

func newEncoder(format string) zapcore.Encoder {
	switch format {
	case FormatJSON:
		return zapcore.NewJSONEncoder(encoderConfig())
	case FormatLogfmt:
		return zaplogfmt.NewEncoder(encoderConfig())
	default:
		return zapcore.NewConsoleEncoder(encoderConfig())
	}
}

func newLogger(out io.Writer, level zap.AtomicLevel, format string) *Logger {
	core := zapcore.NewCore(newEncoder(format), zapcore.AddSync(out), level)
	return &Logger{
		level:         level,
		SugaredLogger: zap.New(core).Named(LoggerName).Sugar(),
	}
}

// ValidateLevel checks the level name without changing the logger
func ValidateLevel(strLevel string) error {
	if _, ok := levelMapping[strings.ToLower(strLevel)]; !ok {
		return errors.New("Wrong log level. " + HelpLevels)
	}
	return nil
}

// ValidateFormat checks the format name without changing the logger
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatConsole, FormatJSON, FormatLogfmt:
		return nil
	}
	return errors.New("Wrong log format. " + HelpFormats)
}

func SetLevel(strLevel string) error {
	level, ok := levelMapping[strings.ToLower(strLevel)]
	if !ok {
		return errors.New("Wrong log level. " + HelpLevels)
	}
	logger.level.SetLevel(level)
	return nil
}

// Init replaces the package logger. An empty format means console.
func Init(out io.Writer, strLevel, format string) error {
	if err := ValidateLevel(strLevel); err != nil {
		return err
	}
	if format == "" {
		format = FormatConsole
	}
	if err := ValidateFormat(format); err != nil {
		return err
	}
	logger = newLogger(out, zap.NewAtomicLevelAt(levelMapping[strings.ToLower(strLevel)]), strings.ToLower(format))
	return nil
}

// Sync flushes buffered entries
func Sync() {
	_ = logger.Sync()
}

func Error(format string, v ...interface{}) {
	logger.Errorf(format, v...)
}

func Warning(format string, v ...interface{}) {
	logger.Warnf(format, v...)
}

func Info(format string, v ...interface{}) {
	logger.Infof(format, v...)
}

func Debug(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

type lineWriter struct{}

func (lineWriter) Write(p []byte) (int, error) {
	logger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Writer adapts the package logger for libraries that log to an io.Writer.
// Every write becomes one info entry.
func Writer() io.Writer {
	return lineWriter{}
}
