package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hay-kot/criterio"

	"github.com/hay-kot/morph/internal/intent"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration.
// Unlike Validate(), this checks file access and parses the scheme filter
// file.
func (c *Config) ValidateDeep(configPath string) error {
	var errs criterio.FieldErrorsBuilder

	if err := c.Validate(); err != nil {
		errs = errs.Append("", err)
	}

	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil && info.IsDir() {
			errs = errs.Append("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
		} else if err != nil && !os.IsNotExist(err) {
			errs = errs.Append("config_file", fmt.Errorf("cannot access %s: %w", configPath, err))
		}
	}

	if err := checkDir(c.DataDir); err != nil {
		errs = errs.Append("data_dir", err)
	}

	for _, db := range []struct {
		field string
		path  string
	}{
		{"history.database", c.History.Database},
		{"downloads.database", c.Downloads.Database},
		{"cookies.database", c.Cookies.Database},
	} {
		if err := checkFile(db.path); err != nil {
			errs = errs.Append(db.field, err)
		}
	}

	if err := checkFile(c.Tabs.SessionFile); err != nil {
		errs = errs.Append("tabs.session_file", err)
	}

	if err := checkDir(c.Hooks.ProcessedDir); err != nil {
		errs = errs.Append("hooks.processed_dir", err)
	}

	if c.Intent.FilterFile != "" {
		if _, err := intent.ParseFilterFile(c.Intent.FilterFile); err != nil {
			errs = errs.Append("intent.filter_file", err)
		}
	}

	return errs.ToError()
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if !dirExists(c.Hooks.InstalledDir) {
		warnings = append(warnings, ValidationWarning{
			Category: "Hooks",
			Item:     "installed_dir",
			Message:  fmt.Sprintf("%s does not exist; no hooks will be installed", c.Hooks.InstalledDir),
		})
	}

	if !dirExists(c.Downloads.Directory) {
		warnings = append(warnings, ValidationWarning{
			Category: "Downloads",
			Item:     "directory",
			Message:  fmt.Sprintf("%s does not exist", c.Downloads.Directory),
		})
	}

	for _, db := range []struct {
		item string
		path string
	}{
		{"history.database", c.History.Database},
		{"downloads.database", c.Downloads.Database},
		{"cookies.database", c.Cookies.Database},
	} {
		if db.path == Memory {
			warnings = append(warnings, ValidationWarning{
				Category: "Storage",
				Item:     db.item,
				Message:  "in-memory database; nothing is persisted",
			})
		}
	}

	return warnings
}

// checkDir accepts a missing path or a directory.
func checkDir(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return fmt.Errorf("cannot access %s: %w", path, err)
	case !info.IsDir():
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	return nil
}

// checkFile accepts a missing path or a regular file whose parent is not a
// file.
func checkFile(path string) error {
	if path == "" || path == Memory {
		return nil
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("%s is a directory, not a file", path)
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	if parent, err := os.Stat(filepath.Dir(path)); err == nil && !parent.IsDir() {
		return fmt.Errorf("parent of %s is not a directory", path)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
