// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dotfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) (start, home, want string)
	}{
		{
			name: "file in start directory",
			setup: func(t *testing.T) (string, string, string) {
				dir := t.TempDir()
				writeFile(t, dir, Name, "API_KEY=abc\n")
				return dir, "", filepath.Join(dir, Name)
			},
		},
		{
			name: "file in a parent directory",
			setup: func(t *testing.T) (string, string, string) {
				dir := t.TempDir()
				writeFile(t, dir, Name, "API_KEY=abc\n")
				start := filepath.Join(dir, "a", "b")
				require.NoError(t, os.MkdirAll(start, 0o755))
				return start, "", filepath.Join(dir, Name)
			},
		},
		{
			name: "nearest file wins over home",
			setup: func(t *testing.T) (string, string, string) {
				dir := t.TempDir()
				home := t.TempDir()
				writeFile(t, dir, Name, "USER_ID=1\n")
				writeFile(t, home, Name, "USER_ID=2\n")
				return dir, home, filepath.Join(dir, Name)
			},
		},
		{
			name: "falls back to home",
			setup: func(t *testing.T) (string, string, string) {
				home := t.TempDir()
				writeFile(t, home, Name, "USER_ID=2\n")
				return t.TempDir(), home, filepath.Join(home, Name)
			},
		},
		{
			name: "directory with the file's name is ignored",
			setup: func(t *testing.T) (string, string, string) {
				dir := t.TempDir()
				require.NoError(t, os.Mkdir(filepath.Join(dir, Name), 0o755))
				return dir, "", ""
			},
		},
		{
			name: "nothing found",
			setup: func(t *testing.T) (string, string, string) {
				return t.TempDir(), t.TempDir(), ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, home, want := tt.setup(t)
			assert.Equal(t, want, Find(start, home))
		})
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), Name)
	err := Write(path, map[string]string{
		"ZOTFILE_DIR": "/home/me/zotfile",
		"USER_ID":     " 12345 ",
		"API_KEY":     "secret",
		"EMPTY":       "",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "API_KEY=secret\nUSER_ID=12345\nZOTFILE_DIR=/home/me/zotfile\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteTightensExistingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, Name, "API_KEY=old\n")
	path := filepath.Join(dir, Name)

	require.NoError(t, Write(path, map[string]string{"API_KEY": "new"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "API_KEY=new\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteRejectsMultilineValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), Name)
	err := Write(path, map[string]string{"API_KEY": "a\nUSER_ID=evil"})
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Require(UserID, "12345"))

	err := Require(FileDir, "  ")
	require.ErrorIs(t, err, ErrConfigMissing)
	assert.Contains(t, err.Error(), "--file_dir")
	assert.Contains(t, err.Error(), "ZOTFILE_DIR")
	assert.Contains(t, err.Error(), Name)
}

func TestSettingKey(t *testing.T) {
	assert.Equal(t, "zotfile_dir", FileDir.Key())
	assert.Equal(t, "api_key", APIKey.Key())
	assert.Equal(t, "user_id", UserID.Key())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
