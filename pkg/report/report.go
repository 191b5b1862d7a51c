package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/httpsfix/pkg/rewrite"
)

// Formats understood by Write
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted formats
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// FailedFile is the serializable form of a per-file failure
type FailedFile struct {
	Path  string `json:"path" yaml:"path"`
	Op    string `json:"op" yaml:"op"`
	Error string `json:"error" yaml:"error"`
}

// 📊 Summary is the serializable view of a scan
type Summary struct {
	Root       string       `json:"root" yaml:"root"`
	DryRun     bool         `json:"dry_run" yaml:"dry_run"`
	Scanned    int          `json:"files_scanned" yaml:"files_scanned"`
	FixedCount int          `json:"files_fixed" yaml:"files_fixed"`
	Fixed      []string     `json:"fixed" yaml:"fixed"`
	Failed     []FailedFile `json:"failed" yaml:"failed"`
}

// NewSummary converts a scan result
func NewSummary(res *rewrite.ScanResult) *Summary {
	s := &Summary{
		Root:       res.Root,
		DryRun:     res.DryRun,
		Scanned:    res.Scanned,
		FixedCount: len(res.Fixed),
		Fixed:      res.FixedPaths(),
		Failed:     make([]FailedFile, 0, len(res.Failed)),
	}
	for _, f := range res.Failed {
		s.Failed = append(s.Failed, FailedFile{Path: f.Path, Op: f.Op, Error: f.Err.Error()})
	}
	return s
}

// 📝 Write renders the summary of res to w in the given format
func Write(w io.Writer, format string, res *rewrite.ScanResult) error {
	summary := NewSummary(res)

	switch format {
	case FormatText, "":
		return writeText(w, summary)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return errors.Errorf("encoding json summary: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summary); err != nil {
			return errors.Errorf("encoding yaml summary: %w", err)
		}
		if err := enc.Close(); err != nil {
			return errors.Errorf("closing yaml encoder: %w", err)
		}
		return nil
	default:
		return errors.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, s *Summary) error {
	bold := color.New(color.Bold)

	title := "Scan complete"
	fixedLabel := "Files fixed"
	if s.DryRun {
		title = "Dry run complete, no files were written"
		fixedLabel = "Files to fix"
	}

	lines := []string{
		"",
		fmt.Sprintf("✅ %s", color.New(color.FgGreen).Sprint(title)),
		fmt.Sprintf("📊 %s", bold.Sprint("Summary:")),
		fmt.Sprintf("   - Root: %s", s.Root),
		fmt.Sprintf("   - Files scanned: %d", s.Scanned),
		fmt.Sprintf("   - %s: %d", fixedLabel, s.FixedCount),
		fmt.Sprintf("   - Files failed: %d", len(s.Failed)),
	}

	if len(s.Fixed) > 0 {
		lines = append(lines, "", fmt.Sprintf("📝 %s", bold.Sprint(fixedLabel+":")))
		for _, path := range s.Fixed {
			lines = append(lines, "   - "+path)
		}
	}

	if len(s.Failed) > 0 {
		lines = append(lines, "", fmt.Sprintf("❌ %s", color.New(color.FgRed, color.Bold).Sprint("Failed files:")))
		for _, f := range s.Failed {
			lines = append(lines, fmt.Sprintf("   - %s (%s): %s", f.Path, f.Op, f.Error))
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return errors.Errorf("writing summary: %w", err)
		}
	}
	return nil
}
