package rewrite

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/httpsfix/pkg/text"
)

const (
	logoSource = `package org.owasp.webgoat.session;

public class ECSFactory {
    public static Element makeLogo() {
        A logo = new A();
        logo.setHref("http://www.aspectsecurity.com");
        return logo;
    }
}
`
	anchorSource = `/**
 * @author <a href="http://www.aspectsecurity.com">Aspect Security</a>
 */
public class Screen {}
`
	cleanSource = `public class Clean {
    String site = "https://www.owasp.org";
}
`
)

// recordingFS wraps a FileSystem, records reads and writes and injects failures
type recordingFS struct {
	FileSystem
	failRead  map[string]error
	failWrite map[string]error
	reads     []string
	writes    []string
}

func newRecordingFS(dir string) *recordingFS {
	return &recordingFS{
		FileSystem: NewOSFileSystem(dir),
		failRead:   map[string]error{},
		failWrite:  map[string]error{},
	}
}

func (f *recordingFS) ReadFile(name string) ([]byte, error) {
	f.reads = append(f.reads, name)
	if err, ok := f.failRead[name]; ok {
		return nil, err
	}
	return f.FileSystem.ReadFile(name)
}

func (f *recordingFS) WriteFile(name string, data []byte) error {
	f.writes = append(f.writes, name)
	if err, ok := f.failWrite[name]; ok {
		return err
	}
	return f.FileSystem.WriteFile(name, data)
}

type recordingReporter struct {
	fixed  map[string]int
	failed map[string]error
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{fixed: map[string]int{}, failed: map[string]error{}}
}

func (r *recordingReporter) FileFixed(ctx context.Context, path string, replacements int) {
	r.fixed[path] = replacements
}

func (r *recordingReporter) FileFailed(ctx context.Context, path string, err error) {
	r.failed[path] = err
}

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating dir for %s", name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing %s", name)
	}
}

func readTreeFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err, "reading %s", name)
	return string(data)
}

func defaultTree() map[string]string {
	return map[string]string{
		"org/owasp/webgoat/session/ECSFactory.java": logoSource,
		"org/owasp/webgoat/lessons/Screen.java":     anchorSource,
		"org/owasp/webgoat/Clean.java":              cleanSource,
		"org/owasp/webgoat/notes.txt":               logoSource,
		"Root.java":                                 cleanSource,
	}
}

func newTestRewriter(t *testing.T, opts Options) *Rewriter {
	t.Helper()
	if opts.Extension == "" {
		opts.Extension = ".java"
	}
	rw, err := NewRewriter(opts)
	require.NoError(t, err, "creating rewriter")
	return rw
}

func TestRewriter_Run(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, defaultTree())

	reporter := newRecordingReporter()
	fsys := newRecordingFS(dir)
	rw := newTestRewriter(t, Options{Reporter: reporter})

	result, err := rw.Run(context.Background(), fsys)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, dir, result.Root)
	assert.Equal(t, 4, result.Scanned)
	assert.ElementsMatch(t, []string{
		"org/owasp/webgoat/session/ECSFactory.java",
		"org/owasp/webgoat/lessons/Screen.java",
	}, result.FixedPaths())
	assert.Empty(t, result.Failed)
	assert.False(t, result.HasFailures())
	assert.False(t, result.DryRun)

	assert.Contains(t, readTreeFile(t, dir, "org/owasp/webgoat/session/ECSFactory.java"),
		`        logo.setHref("https://www.aspectsecurity.com");`+"\n")
	assert.Contains(t, readTreeFile(t, dir, "org/owasp/webgoat/lessons/Screen.java"),
		` * @author <a href="https://www.aspectsecurity.com">Aspect Security</a>`+"\n")
	assert.Equal(t, cleanSource, readTreeFile(t, dir, "org/owasp/webgoat/Clean.java"))

	assert.Equal(t, map[string]int{
		"org/owasp/webgoat/session/ECSFactory.java": 1,
		"org/owasp/webgoat/lessons/Screen.java":     1,
	}, reporter.fixed)
	assert.Empty(t, reporter.failed)

	assert.ElementsMatch(t, result.FixedPaths(), fsys.writes, "only fixed files are written")
}

func TestRewriter_Run_SkipsSymlinksAndDirectories(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"Dir.java/sub/A.java": logoSource})
	if err := os.Symlink(filepath.Join(dir, "Dir.java", "sub", "A.java"), filepath.Join(dir, "Link.java")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	fsys := newRecordingFS(dir)
	result, err := newTestRewriter(t, Options{}).Run(context.Background(), fsys)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Scanned, "only the regular file is a candidate")
	assert.Equal(t, []string{"Dir.java/sub/A.java"}, result.FixedPaths())
	assert.Equal(t, []string{"Dir.java/sub/A.java"}, fsys.writes)

	info, err := os.Lstat(filepath.Join(dir, "Link.java"))
	require.NoError(t, err)
	assert.Equal(t, fs.ModeSymlink, info.Mode().Type(), "link is left in place")
}

func TestRewriter_Run_OnlyTargetLineChanges(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"ECSFactory.java": logoSource})

	_, err := newTestRewriter(t, Options{}).Run(context.Background(), NewOSFileSystem(dir))
	require.NoError(t, err)

	want := bytes.Replace([]byte(logoSource),
		[]byte(`setHref("http://www.aspectsecurity.com")`),
		[]byte(`setHref("https://www.aspectsecurity.com")`), 1)
	assert.Equal(t, string(want), readTreeFile(t, dir, "ECSFactory.java"))
}

func TestRewriter_Run_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, defaultTree())
	rw := newTestRewriter(t, Options{})

	first, err := rw.Run(context.Background(), NewOSFileSystem(dir))
	require.NoError(t, err)
	require.Len(t, first.Fixed, 2)

	afterFirst := map[string]string{}
	for name := range defaultTree() {
		afterFirst[name] = readTreeFile(t, dir, name)
	}

	fsys := newRecordingFS(dir)
	second, err := rw.Run(context.Background(), fsys)
	require.NoError(t, err)
	assert.Equal(t, 4, second.Scanned)
	assert.Empty(t, second.Fixed)
	assert.Empty(t, fsys.writes)

	for name, content := range afterFirst {
		assert.Equal(t, content, readTreeFile(t, dir, name), "content of %s", name)
	}
}

func TestRewriter_Run_SelectiveWrite(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, defaultTree())

	old := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	cleanPath := filepath.Join(dir, "org", "owasp", "webgoat", "Clean.java")
	require.NoError(t, os.Chtimes(cleanPath, old, old))

	result, err := newTestRewriter(t, Options{}).Run(context.Background(), NewOSFileSystem(dir))
	require.NoError(t, err)

	info, err := os.Stat(cleanPath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged file must not be written, mtime %s", info.ModTime())
	assert.Equal(t, cleanSource, readTreeFile(t, dir, "org/owasp/webgoat/Clean.java"))
	assert.NotContains(t, result.FixedPaths(), "org/owasp/webgoat/Clean.java")
}

func TestRewriter_Run_PreservesMode(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"Run.java": logoSource})
	path := filepath.Join(dir, "Run.java")
	require.NoError(t, os.Chmod(path, 0o600))

	_, err := newTestRewriter(t, Options{}).Run(context.Background(), NewOSFileSystem(dir))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o600), info.Mode().Perm())
}

func TestRewriter_Run_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a/notes.txt":  logoSource,
		"a/page.jsp":   anchorSource,
		"a/javadoc":    logoSource,
		"a/Thing.java": cleanSource,
	})

	fsys := newRecordingFS(dir)
	result, err := newTestRewriter(t, Options{}).Run(context.Background(), fsys)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Scanned)
	assert.Empty(t, result.Fixed)
	assert.Equal(t, []string{"a/Thing.java"}, fsys.reads)
	assert.Empty(t, fsys.writes)
	assert.Equal(t, logoSource, readTreeFile(t, dir, "a/notes.txt"))
	assert.Equal(t, anchorSource, readTreeFile(t, dir, "a/page.jsp"))
}

func TestRewriter_Run_OtherExtension(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a/page.jsp":   anchorSource,
		"a/Thing.java": anchorSource,
	})

	result, err := newTestRewriter(t, Options{Extension: ".jsp"}).Run(context.Background(), NewOSFileSystem(dir))
	require.NoError(t, err)

	assert.Equal(t, []string{"a/page.jsp"}, result.FixedPaths())
	assert.Equal(t, anchorSource, readTreeFile(t, dir, "a/Thing.java"))
}

func TestRewriter_Run_Excludes(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"src/Keep.java":          logoSource,
		"build/gen/Skip.java":    logoSource,
		"src/test/SkipTest.java": logoSource,
	})

	fsys := newRecordingFS(dir)
	rw := newTestRewriter(t, Options{Excludes: []string{"build/**", "**/test/**"}})
	result, err := rw.Run(context.Background(), fsys)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, []string{"src/Keep.java"}, result.FixedPaths())
	assert.Equal(t, []string{"src/Keep.java"}, fsys.reads)
	assert.Equal(t, logoSource, readTreeFile(t, dir, "build/gen/Skip.java"))
	assert.Equal(t, logoSource, readTreeFile(t, dir, "src/test/SkipTest.java"))
}

func TestRewriter_Run_ReadFailureIsolated(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"A.java": logoSource,
		"B.java": logoSource,
		"C.java": anchorSource,
	})

	denied := &fs.PathError{Op: "open", Path: "B.java", Err: fs.ErrPermission}
	fsys := newRecordingFS(dir)
	fsys.failRead["B.java"] = denied
	reporter := newRecordingReporter()

	result, err := newTestRewriter(t, Options{Reporter: reporter}).Run(context.Background(), fsys)
	require.NoError(t, err, "a single unreadable file must not abort the run")

	assert.Equal(t, 3, result.Scanned)
	assert.ElementsMatch(t, []string{"A.java", "C.java"}, result.FixedPaths())
	require.Len(t, result.Failed, 1)
	assert.True(t, result.HasFailures())

	ferr := result.Failed[0]
	assert.Equal(t, "B.java", ferr.Path)
	assert.Equal(t, OpRead, ferr.Op)
	assert.ErrorIs(t, ferr, fs.ErrPermission)
	assert.Contains(t, ferr.Error(), "read B.java")

	assert.Equal(t, denied, reporter.failed["B.java"])
	assert.Equal(t, logoSource, readTreeFile(t, dir, "B.java"))
	assert.NotContains(t, fsys.writes, "B.java")
}

func TestRewriter_Run_WriteFailureIsolated(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"A.java": logoSource,
		"B.java": logoSource,
	})

	fsys := newRecordingFS(dir)
	fsys.failWrite["A.java"] = errors.New("disk full")

	result, err := newTestRewriter(t, Options{}).Run(context.Background(), fsys)
	require.NoError(t, err)

	assert.Equal(t, []string{"B.java"}, result.FixedPaths())
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "A.java", result.Failed[0].Path)
	assert.Equal(t, OpWrite, result.Failed[0].Op)
	assert.Equal(t, logoSource, readTreeFile(t, dir, "A.java"))
}

type failingCodec struct{}

func (failingCodec) Name() string { return "broken" }

func (failingCodec) Decode(content []byte) ([]byte, error) {
	if bytes.Contains(content, []byte("BAD")) {
		return nil, errors.New("undecodable")
	}
	return content, nil
}

func (failingCodec) Encode(text []byte) ([]byte, error) { return text, nil }

func TestRewriter_Run_DecodeFailureIsolated(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"A.java": "BAD " + logoSource,
		"B.java": logoSource,
	})

	result, err := newTestRewriter(t, Options{Codec: failingCodec{}}).Run(context.Background(), NewOSFileSystem(dir))
	require.NoError(t, err)

	assert.Equal(t, []string{"B.java"}, result.FixedPaths())
	require.Len(t, result.Failed, 1)
	assert.Equal(t, OpDecode, result.Failed[0].Op)
	assert.Contains(t, result.Failed[0].Error(), "undecodable")
}

func TestRewriter_Run_RootMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	fsys := newRecordingFS(missing)
	reporter := newRecordingReporter()

	result, err := newTestRewriter(t, Options{Reporter: reporter}).Run(context.Background(), fsys)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRootNotFound)
	assert.Contains(t, err.Error(), missing)
	assert.Nil(t, result)

	assert.Empty(t, fsys.reads)
	assert.Empty(t, fsys.writes)
	assert.Empty(t, reporter.fixed)
	assert.Empty(t, reporter.failed)
}

func TestRewriter_Run_RootIsFile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"Only.java": logoSource})

	fsys := newRecordingFS(filepath.Join(dir, "Only.java"))
	_, err := newTestRewriter(t, Options{}).Run(context.Background(), fsys)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRootNotFound)
	assert.Contains(t, err.Error(), "not a directory")
	assert.Empty(t, fsys.reads)
	assert.Equal(t, logoSource, readTreeFile(t, dir, "Only.java"))
}

func TestRewriter_Run_EmptyTree(t *testing.T) {
	result, err := newTestRewriter(t, Options{}).Run(context.Background(), NewOSFileSystem(t.TempDir()))
	require.NoError(t, err)
	assert.Zero(t, result.Scanned)
	assert.Empty(t, result.Fixed)
	assert.Empty(t, result.FixedPaths())
}

func TestRewriter_Run_DryRun(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, defaultTree())

	fsys := newRecordingFS(dir)
	reporter := newRecordingReporter()
	result, err := newTestRewriter(t, Options{DryRun: true, Reporter: reporter}).Run(context.Background(), fsys)
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Len(t, result.Fixed, 2)
	assert.Len(t, reporter.fixed, 2)
	assert.Empty(t, fsys.writes)
	for name, content := range defaultTree() {
		assert.Equal(t, content, readTreeFile(t, dir, name), "content of %s", name)
	}
}

func TestRewriter_Run_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, defaultTree())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fsys := newRecordingFS(dir)
	result, err := newTestRewriter(t, Options{}).Run(ctx, fsys)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 4, result.Scanned)
	assert.Empty(t, result.Fixed)
	assert.Empty(t, fsys.reads)
	assert.Empty(t, fsys.writes)
}

func TestNewRewriter(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantError string
	}{
		{
			name: "defaults",
			opts: Options{Extension: ".java"},
		},
		{
			name:      "missing_extension",
			opts:      Options{},
			wantError: "extension is required",
		},
		{
			name:      "bad_extension",
			opts:      Options{Extension: ".[java"},
			wantError: "invalid extension",
		},
		{
			name:      "bad_exclude",
			opts:      Options{Extension: ".java", Excludes: []string{"build/["}},
			wantError: "invalid exclude pattern",
		},
		{
			name: "bad_rule",
			opts: Options{Extension: ".java", Rules: []text.Rule{{
				Name:        "loop",
				Pattern:     regexp.MustCompile(`http`),
				Replacement: "https",
			}}},
			wantError: "validating rules",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw, err := NewRewriter(tt.opts)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, rw)
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "unchanged", OutcomeUnchanged.String())
	assert.Equal(t, "fixed", OutcomeFixed.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "outcome(7)", Outcome(7).String())
}
