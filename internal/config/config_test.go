package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	s, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", s.APIURL)
	assert.Equal(t, 5, s.PageSize)
	assert.Equal(t, 3, s.Retry.Count)
	assert.Equal(t, 500*time.Millisecond, s.Feed.BackoffInitial)
	assert.Equal(t, 30*time.Second, s.Feed.BackoffMax)
	assert.Equal(t, ":8080", s.Dashboard.Listen)
	assert.Equal(t, "info", s.Log.Level)
}

func TestLoadFrom_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardly.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://cams.example.com
page_size: 10
feed:
  backoff_initial: 1s
  backoff_max: 1m
  max_fps: 5
`), 0o600))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	s, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "https://cams.example.com", s.APIURL)
	assert.Equal(t, 10, s.PageSize)
	assert.Equal(t, time.Second, s.Feed.BackoffInitial)
	assert.Equal(t, time.Minute, s.Feed.BackoffMax)
	assert.InDelta(t, 5.0, s.Feed.MaxFPS, 0.001)
	assert.Equal(t, 10, s.Feed.MaxAttempts)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	base, err := LoadFrom(v)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"empty api url", func(s *Settings) { s.APIURL = "" }},
		{"bad scheme", func(s *Settings) { s.APIURL = "ftp://x" }},
		{"zero page size", func(s *Settings) { s.PageSize = 0 }},
		{"negative retries", func(s *Settings) { s.Retry.Count = -1 }},
		{"no reconnect attempts", func(s *Settings) { s.Feed.MaxAttempts = 0 }},
		{"inverted backoff", func(s *Settings) { s.Feed.BackoffMax = time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}
