package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/morph/internal/styles"
)

// readJSON decodes v from file, or from stdin when file is empty.
func readJSON(file string, v any) error {
	var reader io.Reader

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	} else {
		if stdinIsTerminal() {
			return fmt.Errorf("no input provided (stdin is a terminal); use -f flag or pipe JSON input")
		}
		reader = os.Stdin
	}

	if err := json.NewDecoder(reader).Decode(v); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question. Without a terminal nothing can be asked
// and the answer is an error telling the user about --yes.
func confirm(title, description string) (bool, error) {
	if !stdinIsTerminal() {
		return false, fmt.Errorf("refusing to continue without confirmation; pass --yes")
	}

	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).WithTheme(styles.FormTheme())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// requireArgs returns the first n arguments or an error naming them.
func requireArgs(c *cli.Command, names ...string) ([]string, error) {
	if c.Args().Len() < len(names) {
		return nil, fmt.Errorf("missing argument: %s", strings.Join(names[c.Args().Len():], ", "))
	}
	return c.Args().Slice()[:len(names)], nil
}

// timeLayouts are accepted by --from and --to.
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04", time.DateOnly}

// parseTime parses an absolute time in one of timeLayouts, in local time.
// Empty input gives the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339)", s)
}
