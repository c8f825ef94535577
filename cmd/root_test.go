package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/smartfetch/internal/config"
	"github.com/oshokin/smartfetch/internal/constants"
)

const testBaseConfigContent = `
user_agents_path: "user_agents.txt"
proxies_path: "proxies.txt"
cookies_path: "cookies.yaml"
debug_directory: "debug"
output_path: "/config/output"
log_level: "info"
request_timeout: "30s"
retry_attempts_count: 3
min_retry_pause: "1s"
max_retry_pause: "3s"
response_cache_size: 16
`

// newTestCommand builds a command carrying the same flags as the root command.
func newTestCommand() *cobra.Command {
	testCmd := &cobra.Command{Use: "test"}

	testCmd.Flags().BoolP("json", "j", false, "decode fetched bodies as JSON")
	testCmd.Flags().BoolP("debug", "d", false, "capture request/response records")
	testCmd.Flags().BoolP("rotate", "r", false, "rotate the network identity")
	testCmd.Flags().StringP("output", "o", "", "output directory")
	testCmd.Flags().Int64P("attempts", "a", 0, "number of attempts")

	return testCmd
}

// TestFlagOverrides tests that command-line flags correctly override configuration file values.
//
//nolint:nolintlint,tparallel // Cannot run in parallel due to Viper global state.
func TestFlagOverrides(t *testing.T) {
	tests := []struct {
		name           string
		flags          map[string]string
		expectedConfig func(*testing.T, *config.Config)
	}{
		{
			name:  "no flags - use config values",
			flags: map[string]string{},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.False(t, cfg.DecodeJSON)
				assert.False(t, cfg.DebugRequests)
				assert.False(t, cfg.RotateIdentities)
				assert.Equal(t, "/config/output", cfg.OutputPath)
				assert.Equal(t, int64(3), cfg.RetryAttemptsCount)
			},
		},
		{
			name:  "json flag only",
			flags: map[string]string{"json": "true"},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.True(t, cfg.DecodeJSON)
				assert.False(t, cfg.DebugRequests)
			},
		},
		{
			name:  "debug flag only",
			flags: map[string]string{"debug": "true"},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.True(t, cfg.DebugRequests)
				assert.False(t, cfg.DecodeJSON)
			},
		},
		{
			name:  "rotate flag only",
			flags: map[string]string{"rotate": "true"},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.True(t, cfg.RotateIdentities)
			},
		},
		{
			name:  "output flag only - override output path",
			flags: map[string]string{"output": "/flag/output"},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/flag/output", cfg.OutputPath)
			},
		},
		{
			name:  "attempts flag only - override retry attempts",
			flags: map[string]string{"attempts": "5"},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, int64(5), cfg.RetryAttemptsCount)
			},
		},
		{
			name: "all flags - override everything",
			flags: map[string]string{
				"json":     "true",
				"debug":    "true",
				"rotate":   "true",
				"output":   "/all/flags/output",
				"attempts": "7",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.True(t, cfg.DecodeJSON)
				assert.True(t, cfg.DebugRequests)
				assert.True(t, cfg.RotateIdentities)
				assert.Equal(t, "/all/flags/output", cfg.OutputPath)
				assert.Equal(t, int64(7), cfg.RetryAttemptsCount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			configPath := filepath.Join(tempDir, "test-config.yaml")

			err := os.WriteFile(
				configPath,
				[]byte(testBaseConfigContent),
				constants.DefaultFilePermissions,
			) //nolint:gosec // It's a test file.
			require.NoError(t, err)

			cfg, err := config.LoadConfig(configPath)
			require.NoError(t, err)

			testCmd := newTestCommand()

			for flagName, flagValue := range tt.flags {
				require.NoError(t, testCmd.Flags().Set(flagName, flagValue),
					"failed to set flag %s", flagName)
			}

			err = bindFlagsToConfig(testCmd.Flags(), cfg)
			require.NoError(t, err)

			tt.expectedConfig(t, cfg)
		})
	}
}

// TestFlagOverrides_InvalidValues tests that invalid flag values are caught during validation.
//
//nolint:nolintlint,tparallel // Cannot run in parallel due to Viper global state.
func TestFlagOverrides_InvalidValues(t *testing.T) {
	invalidTests := []struct {
		name        string
		flagName    string
		flagValue   string
		expectedErr error
	}{
		{
			name:        "invalid attempts - zero",
			flagName:    "attempts",
			flagValue:   "0",
			expectedErr: config.ErrInvalidRetryAttempts,
		},
		{
			name:        "invalid attempts - negative",
			flagName:    "attempts",
			flagValue:   "-1",
			expectedErr: config.ErrInvalidRetryAttempts,
		},
	}

	for _, tt := range invalidTests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			configPath := filepath.Join(tempDir, "test-config.yaml")

			err := os.WriteFile(
				configPath,
				[]byte(testBaseConfigContent),
				constants.DefaultFilePermissions,
			) //nolint:gosec // It's a test file.
			require.NoError(t, err)

			cfg, err := config.LoadConfig(configPath)
			require.NoError(t, err)

			testCmd := newTestCommand()
			require.NoError(t, testCmd.Flags().Set(tt.flagName, tt.flagValue))

			err = bindFlagsToConfig(testCmd.Flags(), cfg)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

// TestBindFlagsToConfig_UnchangedFlags tests that unchanged flags don't override config values.
//
//nolint:nolintlint,tparallel // Cannot run in parallel due to Viper global state.
func TestBindFlagsToConfig_UnchangedFlags(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test-config.yaml")

	err := os.WriteFile(
		configPath,
		[]byte(testBaseConfigContent),
		constants.DefaultFilePermissions,
	) //nolint:gosec // It's a test file.
	require.NoError(t, err)

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)

	testCmd := newTestCommand()

	err = bindFlagsToConfig(testCmd.Flags(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "/config/output", cfg.OutputPath)
	assert.Equal(t, int64(3), cfg.RetryAttemptsCount)
	assert.False(t, cfg.DecodeJSON)
	assert.False(t, cfg.DebugRequests)
	assert.False(t, cfg.RotateIdentities)
}

// TestBindFlagsToConfig_EmptyFlagSet tests handling of an empty flag set.
func TestBindFlagsToConfig_EmptyFlagSet(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		UserAgentsPath:     "user_agents.txt",
		LogLevel:           "info",
		RetryAttemptsCount: 3,
		MinRetryPause:      "1s",
		MaxRetryPause:      "3s",
	}

	emptyFlags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	// Calling with an empty flag set should just validate the config.
	err := bindFlagsToConfig(emptyFlags, cfg)
	require.NoError(t, err)
}
