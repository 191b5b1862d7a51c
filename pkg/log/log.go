// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 50 // Base width for filename
	statusWidth = 10 // Width for status text
)

// File statuses
const (
	StatusFixed    = "FIXED"
	StatusWouldFix = "WOULD FIX"
	StatusFailed   = "FAILED"
)

// 🎯 FileOperation represents a processed file for logging
type FileOperation struct {
	Path         string // Path relative to the scan root
	Status       string // One of the Status constants
	Replacements int    // Number of replacements made
	Err          error  // Set when Status is StatusFailed
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	dryRun  bool
}

// 🏭 New creates a new logger writing user-facing lines to console
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// SetDryRun switches fixed-file lines to the WOULD FIX status
func (l *Logger) SetDryRun(dryRun bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dryRun = dryRun
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Status {
	case StatusFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case StatusWouldFix:
		symbol = '~'
		symbolColor = color.FgYellow
	default:
		symbol = '⟳'
		symbolColor = color.FgBlue
	}

	detail := fmt.Sprintf("%d replacement(s)", op.Replacements)
	if op.Err != nil {
		detail = op.Err.Error()
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", statusWidth, op.Status)),
		color.New(color.Faint).Sprint(detail))
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	event := l.zlog.Info()
	if op.Err != nil {
		event = l.zlog.Warn().Err(op.Err)
	}
	event.
		Str("file", op.Path).
		Str("status", op.Status).
		Int("replacements", op.Replacements).
		Msg("file operation")
}

// FileFixed implements rewrite.Reporter
func (l *Logger) FileFixed(ctx context.Context, path string, replacements int) {
	status := StatusFixed
	l.mu.Lock()
	if l.dryRun {
		status = StatusWouldFix
	}
	l.mu.Unlock()

	l.LogFileOperation(ctx, FileOperation{
		Path:         path,
		Status:       status,
		Replacements: replacements,
	})
}

// FileFailed implements rewrite.Reporter
func (l *Logger) FileFailed(ctx context.Context, path string, err error) {
	l.LogFileOperation(ctx, FileOperation{
		Path:   path,
		Status: StatusFailed,
		Err:    err,
	})
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("httpsfix")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

// 🔍 Validation reports the outcome of a check, e.g. startup or a fatal error
func (l *Logger) Validation(valid bool, description string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case valid:
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).WithWriter(l.console).Println(description)
		l.zlog.Info().Msg(description)
	case err != nil:
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).WithWriter(l.console).Println(description)
		pterm.Error.WithWriter(l.console).Println(err)
		l.zlog.Error().Err(err).Msg(description)
	default:
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).WithWriter(l.console).Println(description)
		l.zlog.Warn().Msg(description)
	}
}
