package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/athconf/internal/testutil"
)

func TestWrite_CreatesAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	makefile := filepath.Join(dir, "Makefile")
	defs := filepath.Join(dir, "src", "defs.hpp")
	require.NoError(t, os.MkdirAll(filepath.Dir(defs), 0o750))
	require.NoError(t, os.WriteFile(makefile, []byte("old contents that are longer than the new ones"), 0o600))

	s := New(testutil.NewTestLogger(t))
	err := s.Write(context.Background(), []Artifact{
		{Path: makefile, Content: "new"},
		{Path: defs, Content: "#define X 1\n"},
	})
	require.NoError(t, err)

	got, err := os.ReadFile(makefile)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	got, err = os.ReadFile(defs)
	require.NoError(t, err)
	assert.Equal(t, "#define X 1\n", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temporary file left behind")
	}
}

func TestWrite_NothingWrittenWhenStagingFails(t *testing.T) {
	dir := t.TempDir()
	makefile := filepath.Join(dir, "Makefile")
	require.NoError(t, os.WriteFile(makefile, []byte("keep me"), 0o600))

	s := New(nil)
	err := s.Write(context.Background(), []Artifact{
		{Path: makefile, Content: "replaced"},
		{Path: filepath.Join(dir, "missing", "defs.hpp"), Content: "x"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResource))

	var rerr *ResourceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "write", rerr.Op)
	assert.Contains(t, rerr.Path, "defs.hpp")

	got, err := os.ReadFile(makefile)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the original Makefile should remain")
}

// failRenameInto makes the rename of a staged file onto dest fail.
func failRenameInto(dest string) func(string, string) error {
	return func(oldpath, newpath string) error {
		if newpath == dest && strings.HasSuffix(oldpath, ".tmp") {
			return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EACCES}
		}
		return os.Rename(oldpath, newpath)
	}
}

func TestWrite_LaterRenameFailureRestoresEarlierFiles(t *testing.T) {
	tests := []struct {
		name      string
		existing  map[string]string
		wantMake  string // empty means the file must not exist
		wantDefs  string
		wantCount int
	}{
		{
			name:      "previous outputs restored",
			existing:  map[string]string{"defs.hpp": "old defs", "Makefile": "old make"},
			wantDefs:  "old defs",
			wantMake:  "old make",
			wantCount: 2,
		},
		{
			name:      "new file removed again",
			existing:  map[string]string{"Makefile": "old make"},
			wantMake:  "old make",
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			defs := filepath.Join(dir, "defs.hpp")
			makefile := filepath.Join(dir, "Makefile")
			for name, content := range tt.existing {
				require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
			}

			s := New(testutil.NewTestLogger(t))
			s.rename = failRenameInto(makefile)

			err := s.Write(context.Background(), []Artifact{
				{Path: defs, Content: "new defs"},
				{Path: makefile, Content: "new make"},
			})
			require.ErrorIs(t, err, ErrResource)
			var rerr *ResourceError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, "rename", rerr.Op)
			assert.Equal(t, makefile, rerr.Path)

			for path, want := range map[string]string{defs: tt.wantDefs, makefile: tt.wantMake} {
				if want == "" {
					assert.NoFileExists(t, path)
					continue
				}
				got, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, want, string(got), path)
			}

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, tt.wantCount, "temporary or backup files left behind")
		})
	}
}

func TestWrite_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(nil).Write(ctx, []Artifact{{Path: filepath.Join(dir, "Makefile"), Content: "x"}})
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(filepath.Join(dir, "Makefile"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Makefile.in")
	require.NoError(t, os.WriteFile(path, []byte("@PROBLEM_FILE@"), 0o600))

	text, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "@PROBLEM_FILE@", text)

	_, err = ReadFile(filepath.Join(dir, "nope.in"))
	require.ErrorIs(t, err, ErrResource)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "read ")
}
