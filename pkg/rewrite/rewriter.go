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

package rewrite

import (
	"context"
	"io/fs"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/httpsfix/pkg/text"
)

// 📢 Reporter receives per-file progress as the scan runs
type Reporter interface {
	FileFixed(ctx context.Context, path string, replacements int)
	FileFailed(ctx context.Context, path string, err error)
}

// 🔧 Options contains configuration for the rewriter
type Options struct {
	// Extension selects candidate files, e.g. ".java"
	Extension string
	// Excludes are doublestar globs matched against the relative path
	Excludes []string
	// Rules are applied in order; defaults to text.DefaultRules()
	Rules []text.Rule
	// Codec decodes file content; defaults to text.RawCodec()
	Codec text.Codec
	// DryRun reports fixes without writing
	DryRun bool
	// Reporter is optional
	Reporter Reporter
}

// 🎮 Rewriter scans a tree and rewrites files whose content the rules change
type Rewriter struct {
	pattern  string
	excludes []string
	replacer *text.Replacer
	dryRun   bool
	reporter Reporter
}

// 🏭 NewRewriter creates a rewriter with the given options
func NewRewriter(opts Options) (*Rewriter, error) {
	if opts.Extension == "" {
		return nil, errors.Errorf("extension is required")
	}

	pattern := "**/*" + opts.Extension
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("invalid extension %q", opts.Extension)
	}
	for _, exclude := range opts.Excludes {
		if !doublestar.ValidatePattern(exclude) {
			return nil, errors.Errorf("invalid exclude pattern %q", exclude)
		}
	}

	rules := opts.Rules
	if rules == nil {
		rules = text.DefaultRules()
	}
	if err := text.ValidateRules(rules); err != nil {
		return nil, errors.Errorf("validating rules: %w", err)
	}

	return &Rewriter{
		pattern:  pattern,
		excludes: opts.Excludes,
		replacer: text.NewReplacer(rules, opts.Codec),
		dryRun:   opts.DryRun,
		reporter: opts.Reporter,
	}, nil
}

// 🏃 Run scans fsys and rewrites every candidate file the rules change.
// Per-file failures are collected in the result; only a missing root, a
// listing failure or context cancellation return an error.
func (r *Rewriter) Run(ctx context.Context, fsys FileSystem) (*ScanResult, error) {
	logger := zerolog.Ctx(ctx)

	info, err := fsys.Stat(".")
	if err != nil {
		return nil, errors.Errorf("%w: %s: %v", ErrRootNotFound, fsys.Root(), err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%w: %s is not a directory", ErrRootNotFound, fsys.Root())
	}

	files, err := r.candidates(fsys)
	if err != nil {
		return nil, errors.Errorf("listing candidate files: %w", err)
	}

	logger.Debug().
		Str("root", fsys.Root()).
		Int("files", len(files)).
		Str("pattern", r.pattern).
		Strs("rules", r.ruleNames()).
		Msg("scanning")

	result := &ScanResult{
		Root:    fsys.Root(),
		Scanned: len(files),
		DryRun:  r.dryRun,
	}

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return result, errors.Errorf("scan interrupted: %w", err)
		}

		outcome, replacements, ferr := r.processFile(ctx, fsys, name)
		logger.Trace().Str("file", name).Stringer("outcome", outcome).Msg("processed")
		switch outcome {
		case OutcomeFixed:
			result.Fixed = append(result.Fixed, FixedFile{Path: name, Replacements: replacements})
			if r.reporter != nil {
				r.reporter.FileFixed(ctx, name, replacements)
			}
		case OutcomeFailed:
			result.Failed = append(result.Failed, ferr)
			if r.reporter != nil {
				r.reporter.FileFailed(ctx, name, ferr.Err)
			}
		}
	}

	logger.Debug().
		Int("scanned", result.Scanned).
		Int("fixed", len(result.Fixed)).
		Int("failed", len(result.Failed)).
		Msg("scan complete")

	return result, nil
}

func (r *Rewriter) ruleNames() []string {
	rules := r.replacer.Rules()
	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Name
	}
	return names
}

// candidates lists regular files matching the extension that no exclude glob
// matches. Symlinks are skipped; their targets are scanned under their own
// path when they live inside the tree.
func (r *Rewriter) candidates(fsys fs.FS) ([]string, error) {
	var files []string
	err := doublestar.GlobWalk(fsys, r.pattern, func(name string, d fs.DirEntry) error {
		if !d.Type().IsRegular() || r.excluded(name) {
			return nil
		}
		files = append(files, name)
		return nil
	}, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *Rewriter) excluded(name string) bool {
	for _, exclude := range r.excludes {
		// patterns were validated in NewRewriter
		if ok, _ := doublestar.Match(exclude, name); ok {
			return true
		}
	}
	return false
}

// processFile reads, replaces and conditionally writes one file
func (r *Rewriter) processFile(ctx context.Context, fsys FileSystem, name string) (Outcome, int, *FileError) {
	logger := zerolog.Ctx(ctx).With().Str("file", name).Logger()

	content, err := fsys.ReadFile(name)
	if err != nil {
		return OutcomeFailed, 0, &FileError{Path: name, Op: OpRead, Err: err}
	}

	result, err := r.replacer.Replace(content)
	if err != nil {
		return OutcomeFailed, 0, &FileError{Path: name, Op: OpDecode, Err: err}
	}

	if !result.WasModified {
		return OutcomeUnchanged, 0, nil
	}

	if r.dryRun {
		logger.Debug().Int("replacements", result.ReplacementCount).Msg("would fix")
		return OutcomeFixed, result.ReplacementCount, nil
	}

	if err := fsys.WriteFile(name, result.ModifiedContent); err != nil {
		return OutcomeFailed, 0, &FileError{Path: name, Op: OpWrite, Err: err}
	}

	logger.Debug().Int("replacements", result.ReplacementCount).Msg("fixed")
	return OutcomeFixed, result.ReplacementCount, nil
}
