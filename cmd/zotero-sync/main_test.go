// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/zotero-sync/internal/dotfile"
)

func TestSettingsFromDotfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, dotfile.Name)
	require.NoError(t, dotfile.Write(path, map[string]string{
		"ZOTFILE_DIR": "/data/zotfile",
		"API_KEY":     "from-file",
		"USER_ID":     "42",
	}))

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	require.NoError(t, v.ReadInConfig())

	s, err := settingsFrom(v, dotfile.FileDir, dotfile.APIKey, dotfile.UserID)
	require.NoError(t, err)
	assert.Equal(t, "/data/zotfile", s.FileDir)
	assert.Equal(t, "from-file", s.Catalog.APIKey)
	assert.Equal(t, "42", s.Catalog.UserID)
	assert.Equal(t, "zotero-sync/"+version, s.Catalog.UserAgent)
}

func TestSettingsPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, dotfile.Name)
	require.NoError(t, dotfile.Write(path, map[string]string{
		"ZOTFILE_DIR": "/from/file",
		"API_KEY":     "file-key",
		"USER_ID":     "1",
	}))
	t.Setenv("API_KEY", "env-key")
	t.Setenv("USER_ID", "2")

	v := viper.New()
	v.AutomaticEnv()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	require.NoError(t, v.ReadInConfig())
	v.Set(dotfile.UserID.Key(), "3") // explicit flag value

	s, err := settingsFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "/from/file", s.FileDir)
	assert.Equal(t, "env-key", s.Catalog.APIKey)
	assert.Equal(t, "3", s.Catalog.UserID)
}

func TestSettingsMissing(t *testing.T) {
	v := viper.New()
	v.Set(dotfile.FileDir.Key(), "/data")

	_, err := settingsFrom(v, dotfile.FileDir)
	require.NoError(t, err)

	_, err = settingsFrom(v, dotfile.FileDir, dotfile.APIKey)
	require.ErrorIs(t, err, dotfile.ErrConfigMissing)
	assert.Contains(t, err.Error(), "--api_key")
	assert.Contains(t, err.Error(), "API_KEY")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "pdfs"), expandHome("~/pdfs"))
	assert.Equal(t, "/abs/pdfs", expandHome("/abs/pdfs"))
	assert.Equal(t, "~other/pdfs", expandHome("~other/pdfs"))
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"trash", "upload", "optimize", "ocr", "status", "rename", "config", "version"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"file_dir", "api_key", "user_id", "config", "debug"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
	for _, flag := range []string{"jobs", "timeout", "ledger"} {
		assert.NotNil(t, optimizeCmd.Flags().Lookup(flag), flag)
		assert.NotNil(t, ocrCmd.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, trashCmd.Flags().Lookup("yes"))
	assert.NotNil(t, uploadCmd.Flags().Lookup("yes"))
	assert.NotNil(t, renameCmd.Flags().Lookup("previous_zotfile_path"))
}
