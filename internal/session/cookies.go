package session

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/smartfetch/internal/constants"
	"github.com/oshokin/smartfetch/internal/utils"
)

// SetCookie upserts a cookie in the session jar.
func (c *ClientImpl) SetCookie(key, value string) {
	c.cookies[key] = value
}

// Cookies returns a copy of the session's cookie jar.
func (c *ClientImpl) Cookies() map[string]string {
	return maps.Clone(c.cookies)
}

// LoadCookies merges a persisted cookie jar into the session.
// A missing file is a no-op, not an error.
func (c *ClientImpl) LoadCookies(path string) error {
	exists, err := utils.IsFileExist(path)
	if err != nil {
		return fmt.Errorf("failed to check cookie file: %w", err)
	}

	if !exists {
		return nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read cookie file: %w", err)
	}

	loaded := make(map[string]string)
	if err = yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse cookie file: %w", err)
	}

	maps.Copy(c.cookies, loaded)

	return nil
}

// SaveCookies serializes the full session jar to the given path
// as a flat key-value mapping.
func (c *ClientImpl) SaveCookies(path string) error {
	data, err := yaml.Marshal(c.cookies)
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	if err = os.WriteFile(path, data, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}

	return nil
}
