package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/glimpse/internal/config"
	"github.com/hpungsan/glimpse/internal/describe"
	"github.com/hpungsan/glimpse/internal/errors"
	"github.com/hpungsan/glimpse/internal/history"
	"github.com/hpungsan/glimpse/internal/phash"
	"github.com/hpungsan/glimpse/internal/screenshot"
	"github.com/hpungsan/glimpse/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(hist *history.History, cfg *config.Config, provider describe.Provider) *cli.App {
	app := &cli.App{
		Name:    "glimpse",
		Usage:   "Screenshot history and hybrid search",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(hist),
			describeCmd(hist, provider),
			getCmd(hist),
			listCmd(hist),
			deleteCmd(hist),
			searchCmd(hist),
			similarCmd(hist),
			combinedCmd(hist),
			cleanupCmd(hist, cfg),
			statsCmd(hist),
			webCmd(hist, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(hist *history.History) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Record a screenshot file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description of the image contents"},
			&cli.StringFlag{Name: "region", Aliases: []string{"r"}, Usage: "Captured area label (full, left_half, ...)"},
			&cli.StringFlag{Name: "source-url", Usage: "URL the screenshot was captured from"},
			&cli.Int64Flag{Name: "captured-at", Usage: "Capture time as a unix timestamp (default: now)"},
			&cli.StringFlag{Name: "fingerprint", Usage: "Precomputed perceptual hash in hex"},
			&cli.BoolFlag{Name: "hash", Usage: "Compute a perceptual hash from the image pixels"},
			&cli.BoolFlag{Name: "copy", Usage: "Copy the file into managed storage"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("a screenshot path is required"))
			}

			input := history.AddInput{
				Path:               c.Args().First(),
				Description:        c.String("description"),
				CapturedAt:         c.Int64("captured-at"),
				ComputeFingerprint: c.Bool("hash"),
				CopyToStorage:      c.Bool("copy"),
			}
			if v := c.String("region"); v != "" {
				input.Region = &v
			}
			if v := c.String("source-url"); v != "" {
				input.SourceURL = &v
			}
			if v := c.String("fingerprint"); v != "" {
				input.Fingerprint = &v
			}

			output, err := hist.Add(input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// describeCmd creates the describe command.
func describeCmd(hist *history.History, provider describe.Provider) *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Attach a description to a screenshot (generated when none is given)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Description text (omit to generate with the vision model)"},
			&cli.StringFlag{Name: "prompt", Usage: "Custom prompt for the vision model"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c)
			if err != nil {
				return outputError(err)
			}

			input := history.DescribeInput{ID: id, Description: c.String("text")}

			if input.Description == "" {
				if provider == nil {
					return outputError(errors.NewInvalidRequest(
						"no description given and no vision model configured (set OPENAI_API_KEY)"))
				}
				record, err := hist.Get(id)
				if err != nil {
					return outputError(err)
				}
				generated, err := provider.Describe(c.Context, record.StoragePath, c.String("prompt"))
				if err != nil {
					return outputError(errors.NewStorage("generate description", err))
				}
				input.Description = generated.Text
				input.Model = &generated.Model

				if record.Fingerprint == nil {
					if fp, err := phash.ComputeFile(record.StoragePath); err == nil {
						s := fp.String()
						input.Fingerprint = &s
					}
				}
			}

			output, err := hist.Describe(input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// getCmd creates the get command.
func getCmd(hist *history.History) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch a screenshot record by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c)
			if err != nil {
				return outputError(err)
			}
			output, err := hist.Get(id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(hist *history.History) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List screenshots, most recent first",
		Flags: append(filterFlags(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of records (1-100)"},
		),
		Action: func(c *cli.Context) error {
			output, err := hist.List(filterFromFlags(c), c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(hist *history.History) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a screenshot record and its managed file",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c)
			if err != nil {
				return outputError(err)
			}
			deleted, err := hist.Delete(id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"id": id, "deleted": deleted})
		},
	}
}

// searchCmd creates the search command.
func searchCmd(hist *history.History) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search descriptions by text relevance",
		ArgsUsage: "<query>",
		Flags: append(filterFlags(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of results (1-100)"},
		),
		Action: func(c *cli.Context) error {
			f := filterFromFlags(c)
			output, err := hist.Search(history.SearchInput{
				Query:  strings.Join(c.Args().Slice(), " "),
				Region: f.Region,
				From:   f.From,
				To:     f.To,
				Limit:  c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// similarCmd creates the similar command.
func similarCmd(hist *history.History) *cli.Command {
	return &cli.Command{
		Name:      "similar",
		Usage:     "Find screenshots visually similar to a fingerprint or stored record",
		ArgsUsage: "<fingerprint | id>",
		Flags: append(filterFlags(),
			&cli.Float64Flag{Name: "threshold", Usage: "Minimum similarity in (0, 1]"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of results (1-100)"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("a fingerprint or an id is required"))
			}

			f := filterFromFlags(c)
			input := history.SimilarInput{
				Threshold: c.Float64("threshold"),
				Region:    f.Region,
				From:      f.From,
				To:        f.To,
				Limit:     c.Int("limit"),
			}

			// A small decimal argument is a record id; anything else is
			// treated as a hex fingerprint.
			arg := c.Args().First()
			if id, err := strconv.ParseInt(arg, 10, 64); err == nil && len(arg) < 16 {
				input.ID = id
			} else {
				input.Fingerprint = arg
			}

			output, err := hist.Similar(input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// combinedCmd creates the combined search command.
func combinedCmd(hist *history.History) *cli.Command {
	return &cli.Command{
		Name:  "combined",
		Usage: "Hybrid search blending text relevance and visual similarity",
		Flags: append(filterFlags(),
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Text query over descriptions"},
			&cli.StringFlag{Name: "fingerprint", Usage: "Reference perceptual hash in hex"},
			&cli.Float64Flag{Name: "text-weight", Value: 0.5, Usage: "Relative weight of the text score"},
			&cli.Float64Flag{Name: "image-weight", Value: 0.5, Usage: "Relative weight of the similarity score"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of results (1-100)"},
		),
		Action: func(c *cli.Context) error {
			f := filterFromFlags(c)
			tw := c.Float64("text-weight")
			iw := c.Float64("image-weight")

			output, err := hist.Combined(history.CombinedInput{
				Query:       c.String("query"),
				Fingerprint: c.String("fingerprint"),
				TextWeight:  &tw,
				ImageWeight: &iw,
				Region:      f.Region,
				From:        f.From,
				To:          f.To,
				Limit:       c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// cleanupCmd creates the cleanup command.
func cleanupCmd(hist *history.History, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Delete screenshots older than a maximum age",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "max-age", Usage: "Maximum age in days, e.g. 30d (default from config)"},
		},
		Action: func(c *cli.Context) error {
			maxAge := cfg.RetentionDays
			if v := c.String("max-age"); v != "" {
				days, err := parseDuration(v)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				maxAge = days
			}

			output, err := hist.Cleanup(maxAge)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(hist *history.History) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Store totals, per-region counts, and recent searches",
		Action: func(c *cli.Context) error {
			output, err := hist.Stats()
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// webCmd creates the web UI command.
func webCmd(hist *history.History, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8093, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(hist, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// filterFlags returns the shared region/date-range filter flags.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "region", Aliases: []string{"r"}, Usage: "Only records with this region label"},
		&cli.Int64Flag{Name: "from", Usage: "Only records captured at or after this unix timestamp"},
		&cli.Int64Flag{Name: "to", Usage: "Only records captured at or before this unix timestamp"},
	}
}

// filterFromFlags builds a record filter from the shared flags.
func filterFromFlags(c *cli.Context) screenshot.Filter {
	var f screenshot.Filter
	if v := c.String("region"); v != "" {
		f.Region = &v
	}
	if v := c.Int64("from"); v != 0 {
		f.From = &v
	}
	if v := c.Int64("to"); v != 0 {
		f.To = &v
	}
	return f
}

// parseIDArg reads the positional id argument.
func parseIDArg(c *cli.Context) (int64, error) {
	if c.NArg() < 1 {
		return 0, errors.NewInvalidRequest("a screenshot id is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid screenshot id: %s", c.Args().First()))
	}
	return id, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if gErr, ok := err.(*errors.GlimpseError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
