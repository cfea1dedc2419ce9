package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/morph/internal/core/history"
	"github.com/hay-kot/morph/internal/core/validate"
	"github.com/hay-kot/morph/internal/filter"
	"github.com/hay-kot/morph/internal/listmodel"
	"github.com/hay-kot/morph/internal/printer"
)

// HistoryImport is the JSON input schema of history import.
type HistoryImport struct {
	Entries []ImportEntry `json:"entries"`
}

// ImportEntry is one page to record.
type ImportEntry struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Icon   string `json:"icon,omitempty"`
	Visits int    `json:"visits,omitempty"` // 0 counts as one visit
	Hidden bool   `json:"hidden,omitempty"`
}

// Validate checks the import input for errors using criterio.
func (in HistoryImport) Validate() error {
	if len(in.Entries) == 0 {
		return criterio.NewFieldErrors("entries", fmt.Errorf("array is empty"))
	}

	var errs criterio.FieldErrorsBuilder
	seen := make(map[string]bool)

	for i, e := range in.Entries {
		field := fmt.Sprintf("entries[%d]", i)

		if err := validate.URL(e.URL); err != nil {
			errs = errs.Append(field+".url", err)
			continue
		}
		if seen[e.URL] {
			errs = errs.Append(field+".url", fmt.Errorf("duplicate url %q", e.URL))
			continue
		}
		seen[e.URL] = true

		if err := validate.Visits(e.Visits); err != nil {
			errs = errs.Append(field+".visits", err)
		}
	}

	return errs.ToError()
}

type HistoryCmd struct {
	flags *Flags

	// Command-specific flags
	all     bool
	domain  string
	from    string
	to      string
	limit   int
	json    bool
	title   string
	icon    string
	yes     bool
	fields  []string
	mode    string
	file    string
	topSize int
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

func (cmd *HistoryCmd) jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:        "json",
		Usage:       "print JSON instead of a table",
		Destination: &cmd.json,
	}
}

func (cmd *HistoryCmd) limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:        "limit",
		Aliases:     []string{"n"},
		Usage:       "maximum rows to print, -1 for all",
		Value:       -1,
		Destination: &cmd.limit,
	}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "View or manage browsing history",
		UsageText: "morph history <command> [options]",
		Description: `View or manage the browsing history database.

Entries are kept most recently visited first. Hidden entries stay in the
database but are left out of listings unless --all is given.`,
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List history entries",
				UsageText: "morph history list [--all] [--domain example.com] [--from 2024-01-01] [--to 2024-02-01]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "all",
						Aliases:     []string{"a"},
						Usage:       "include hidden entries",
						Destination: &cmd.all,
					},
					&cli.StringFlag{
						Name:        "domain",
						Usage:       "only entries of this domain",
						Destination: &cmd.domain,
					},
					&cli.StringFlag{
						Name:        "from",
						Usage:       "only entries visited at or after this time",
						Destination: &cmd.from,
					},
					&cli.StringFlag{
						Name:        "to",
						Usage:       "only entries visited at or before this time",
						Destination: &cmd.to,
					},
					cmd.limitFlag(),
					cmd.jsonFlag(),
				},
				Action: cmd.runList,
			},
			{
				Name:      "add",
				Usage:     "Record a visit",
				UsageText: "morph history add <url> [--title title] [--icon url]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "page title", Destination: &cmd.title},
					&cli.StringFlag{Name: "icon", Usage: "page icon url", Destination: &cmd.icon},
				},
				Action: cmd.runAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove the entry of a URL",
				UsageText: "morph history remove <url>",
				Action:    cmd.runRemove,
			},
			{
				Name:      "remove-domain",
				Usage:     "Remove every entry of a domain",
				UsageText: "morph history remove-domain <domain>",
				Action:    cmd.runRemoveDomain,
			},
			{
				Name:      "hide",
				Usage:     "Hide the entry of a URL from listings",
				UsageText: "morph history hide <url>",
				Action:    cmd.runHide(true),
			},
			{
				Name:      "unhide",
				Usage:     "Show a hidden entry again",
				UsageText: "morph history unhide <url>",
				Action:    cmd.runHide(false),
			},
			{
				Name:      "clear",
				Usage:     "Remove all history",
				UsageText: "morph history clear [--yes]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "do not ask for confirmation",
						Destination: &cmd.yes,
					},
				},
				Action: cmd.runClear,
			},
			{
				Name:      "domains",
				Usage:     "List visited domains with their latest visit",
				UsageText: "morph history domains",
				Flags:     []cli.Flag{cmd.jsonFlag()},
				Action:    cmd.runDomains,
			},
			{
				Name:      "search",
				Usage:     "Search history",
				UsageText: "morph history search <terms...> [--fields title,url] [--mode any|one]",
				Description: `Searches visible history entries for every term, ignoring case.

With --mode any (default) each term may match a different field. With
--mode one a single field must contain all terms, as address bar
suggestions do.`,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:        "fields",
						Usage:       "fields to search (url, title, domain)",
						Value:       []string{"title", "url"},
						Destination: &cmd.fields,
					},
					&cli.StringFlag{
						Name:        "mode",
						Usage:       "matching mode (any, one)",
						Value:       "any",
						Destination: &cmd.mode,
					},
					cmd.limitFlag(),
					cmd.jsonFlag(),
				},
				Action: cmd.runSearch,
			},
			{
				Name:      "top",
				Usage:     "List the most visited pages",
				UsageText: "morph history top [-n 10]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"n"},
						Usage:       "number of pages",
						Value:       10,
						Destination: &cmd.topSize,
					},
					cmd.jsonFlag(),
				},
				Action: cmd.runTop,
			},
			{
				Name:  "import",
				Usage: "Record visits from JSON input",
				UsageText: `morph history import [-f file]

Read from stdin:
  echo '{"entries":[{"url":"https://go.dev","title":"Go"}]}' | morph history import`,
				Description: `Records the visits listed in a JSON document.

Input JSON schema:
  {
    "entries": [
      {"url": "https://go.dev", "title": "Go", "icon": "", "visits": 3, "hidden": false}
    ]
  }

The input is validated as a whole before anything is recorded.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "file",
						Aliases:     []string{"f"},
						Usage:       "path to JSON file (reads from stdin if not provided)",
						Destination: &cmd.file,
					},
				},
				Action: cmd.runImport,
			},
		},
	})

	return app
}

func collect[T any](t listmodel.Table[T]) []T {
	rows := make([]T, 0, t.Count())
	for i := range t.Count() {
		if row, ok := t.Get(i); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func (cmd *HistoryCmd) model(ctx context.Context) (*listmodel.HistoryModel, error) {
	if err := cmd.flags.Service.HistoryErr(ctx); err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return cmd.flags.Service.History(ctx), nil
}

func (cmd *HistoryCmd) runList(ctx context.Context, c *cli.Command) error {
	h, err := cmd.model(ctx)
	if err != nil {
		return err
	}

	from, err := parseTime(cmd.from)
	if err != nil {
		return err
	}
	to, err := parseTime(cmd.to)
	if err != nil {
		return err
	}

	var table listmodel.Table[history.Entry] = h
	if !cmd.all {
		table = filter.NewVisible(table)
	}
	if cmd.domain != "" {
		table = filter.NewDomain(table, cmd.domain)
	}
	if !from.IsZero() || !to.IsZero() {
		tf := filter.NewTimeframe(table)
		tf.SetRange(from, to)
		table = tf
	}

	limited := filter.NewLimit(table, cmd.limit)
	return cmd.writeEntries(ctx, c, collect[history.Entry](limited), limited.UnlimitedCount())
}

func (cmd *HistoryCmd) writeEntries(ctx context.Context, c *cli.Command, entries []history.Entry, total int) error {
	if cmd.json {
		if entries == nil {
			entries = []history.Entry{}
		}
		return printer.WriteJSON(c.Root().Writer, entries)
	}

	if len(entries) == 0 {
		printer.Ctx(ctx).Infof("No history entries")
		return nil
	}

	t := printer.NewTable(c.Root().Writer, "LAST VISIT", "VISITS", "DOMAIN", "TITLE", "URL")
	for _, e := range entries {
		title := printer.Truncate(e.Title, 40)
		if e.Hidden {
			title += " (hidden)"
		}
		t.Row(
			e.LastVisit.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(e.Visits),
			e.Domain,
			title,
			e.URL,
		)
	}
	if err := t.Flush(); err != nil {
		return err
	}

	if total > len(entries) {
		printer.Ctx(ctx).Infof("%d of %d entries shown", len(entries), total)
	}
	return nil
}

func (cmd *HistoryCmd) runAdd(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, "url")
	if err != nil {
		return err
	}
	if err := validate.URL(args[0]); err != nil {
		return err
	}

	h, err := cmd.model(ctx)
	if err != nil {
		return err
	}

	visits := h.Add(ctx, args[0], cmd.title, cmd.icon)
	printer.Ctx(ctx).Successf("Recorded visit %d of %s", visits, args[0])
	return nil
}

func (cmd *HistoryCmd) runRemove(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, "url")
	if err != nil {
		return err
	}

	h, err := cmd.model(ctx)
	if err != nil {
		return err
	}

	if !h.Contains(args[0]) {
		return fmt.Errorf("%q: %w", args[0], history.ErrNotFound)
	}
	h.Remove(ctx, args[0])
	printer.Ctx(ctx).Successf("Removed %s", args[0])
	return nil
}

func (cmd *HistoryCmd) runRemoveDomain(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, "domain")
	if err != nil {
		return err
	}

	h, err := cmd.model(ctx)
	if err != nil {
		return err
	}

	before := h.Count()
	h.RemoveMatchingDomain(ctx, args[0])
	removed := before - h.Count()
	if removed == 0 {
		printer.Ctx(ctx).Infof("No entries for %s", args[0])
		return nil
	}
	printer.Ctx(ctx).Successf("Removed %d entries of %s", removed, args[0])
	return nil
}

func (cmd *HistoryCmd) runHide(hidden bool) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		args, err := requireArgs(c, "url")
		if err != nil {
			return err
		}

		h, err := cmd.model(ctx)
		if err != nil {
			return err
		}

		if !h.Contains(args[0]) {
			return fmt.Errorf("%q: %w", args[0], history.ErrNotFound)
		}

		if hidden {
			h.Hide(ctx, args[0])
			printer.Ctx(ctx).Successf("Hid %s", args[0])
		} else {
			h.Unhide(ctx, args[0])
			printer.Ctx(ctx).Successf("Unhid %s", args[0])
		}
		return nil
	}
}

func (cmd *HistoryCmd) runClear(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)

	h, err := cmd.model(ctx)
	if err != nil {
		return err
	}

	if h.Count() == 0 {
		p.Infof("History is already empty")
		return nil
	}

	if !cmd.yes {
		ok, err := confirm("Clear history?", fmt.Sprintf("%d entries will be removed.", h.Count()))
		if err != nil {
			return err
		}
		if !ok {
			p.Infof("Aborted")
			return nil
		}
	}

	n := h.Count()
	h.ClearAll(ctx)
	p.Successf("Cleared %d history entries", n)
	return nil
}

func (cmd *HistoryCmd) runDomains(ctx context.Context, c *cli.Command) error {
	h, err := cmd.model(ctx)
	if err != nil {
		return err
	}

	visible := filter.NewVisible(h)
	defer visible.Close()
	domains := filter.NewDomainList(visible)
	defer domains.Close()

	rows := collect[filter.DomainEntry](domains)
	if cmd.json {
		if rows == nil {
			rows = []filter.DomainEntry{}
		}
		return printer.WriteJSON(c.Root().Writer, rows)
	}

	if len(rows) == 0 {
		printer.Ctx(ctx).Infof("No history entries")
		return nil
	}

	t := printer.NewTable(c.Root().Writer, "DOMAIN", "PAGES", "LAST VISIT")
	for _, d := range rows {
		t.Row(d.Domain, strconv.Itoa(d.Entries), d.LastVisit.Local().Format("2006-01-02 15:04"))
	}
	return t.Flush()
}

func parseMode(s string) (filter.Mode, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return filter.EachTermInAnyField, nil
	case "one":
		return filter.AllTermsInOneField, nil
	default:
		return 0, fmt.Errorf("invalid mode %q (use any or one)", s)
	}
}

func (cmd *HistoryCmd) runSearch(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("missing argument: terms")
	}

	mode, err := parseMode(cmd.mode)
	if err != nil {
		return err
	}
	for _, f := range cmd.fields {
		if _, ok := history.ParseRole(f); !ok {
			return fmt.Errorf("unknown field %q", f)
		}
	}

	h, err := cmd.model(ctx)
	if err != nil {
		return err
	}

	visible := filter.NewVisible(h)
	defer visible.Close()
	search := filter.NewTextSearch(visible, mode, history.Entry.Field)
	defer search.Close()
	search.SetFields(cmd.fields...)
	search.SetTerms(c.Args().Slice())

	limited := filter.NewLimit[history.Entry](search, cmd.limit)
	defer limited.Close()
	return cmd.writeEntries(ctx, c, collect[history.Entry](limited), limited.UnlimitedCount())
}

func (cmd *HistoryCmd) runTop(ctx context.Context, c *cli.Command) error {
	h, err := cmd.model(ctx)
	if err != nil {
		return err
	}

	top := filter.NewTopSites(h)
	defer top.Close()
	limited := filter.NewLimit[history.Entry](top, cmd.topSize)
	defer limited.Close()

	return cmd.writeEntries(ctx, c, collect[history.Entry](limited), limited.UnlimitedCount())
}

func (cmd *HistoryCmd) runImport(ctx context.Context, _ *cli.Command) error {
	var input HistoryImport
	if err := readJSON(cmd.file, &input); err != nil {
		return err
	}
	if err := input.Validate(); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	h, err := cmd.model(ctx)
	if err != nil {
		return err
	}

	started := time.Now()
	visits := 0
	for _, e := range input.Entries {
		for range max(e.Visits, 1) {
			h.Add(ctx, e.URL, e.Title, e.Icon)
			visits++
		}
		if e.Hidden {
			h.Hide(ctx, e.URL)
		}
	}

	printer.Ctx(ctx).Successf("Imported %d entries (%d visits) in %s",
		len(input.Entries), visits, time.Since(started).Round(time.Millisecond))
	return nil
}
