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

package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/httpsfix/pkg/config"
	"github.com/walteh/httpsfix/pkg/log"
	"github.com/walteh/httpsfix/pkg/rewrite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit status.
// A nil environ reads the process environment.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, environ map[string]string) int {
	userLogger := log.New(stderr, zerolog.Nop())

	cfg, err := config.Load(environ)
	if err != nil {
		userLogger.Validation(false, "Failed to initialize", err)
		return exitCode(err)
	}

	if args == nil {
		args = []string{}
	}

	rootCmd := newRootCmd(cfg, stdout, stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		userLogger.Validation(false, "Command failed", err)
		return exitCode(err)
	}
	return exitOK
}

// Process exit statuses
const (
	exitOK           = 0
	exitError        = 1
	exitRootNotFound = 2
	exitFilesFailed  = 3
)

// exitCode maps a command error to a process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, rewrite.ErrRootNotFound):
		return exitRootNotFound
	case errors.Is(err, ErrFilesFailed):
		return exitFilesFailed
	default:
		return exitError
	}
}
