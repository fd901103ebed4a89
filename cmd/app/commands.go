package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultid/internal"
	"github.com/starford/vaultid/internal/exclude"
	"github.com/starford/vaultid/internal/mcpserver"
	"github.com/starford/vaultid/internal/models"
)

// withApp loads the config, opens the vault and index, and runs fn. CLI
// commands log as text on stderr so stdout stays free for results.
func withApp(ctx context.Context, cmd *cli.Command, fn func(context.Context, *internal.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	app, err := internal.Open(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func schemesCommand() *cli.Command {
	return &cli.Command{
		Name:  "schemes",
		Usage: "List identifier schemes",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				list, err := app.Service.Schemes(ctx)
				if err != nil {
					return err
				}
				data := pterm.TableData{{"", "Tag", "Name", "Description"}}
				for _, s := range list {
					mark := ""
					if s.Active {
						mark = color.GreenString("*")
					}
					data = append(data, []string{mark, s.Tag, s.Label, s.Description})
				}
				return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
			})
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show how many notes carry an id, per scheme",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				rep, err := app.Service.Stats(ctx)
				if err != nil {
					return err
				}
				if cmd.Bool("json") {
					return printJSON(os.Stdout, rep)
				}
				schemes, err := app.Service.Schemes(ctx)
				if err != nil {
					return err
				}
				data := pterm.TableData{{"Scheme", "Notes", "Coverage"}}
				for _, s := range schemes {
					n := rep.Counts[s.Tag]
					row := []string{s.Tag, fmt.Sprint(n), fmt.Sprintf("%d%%", rep.NoteStats.Percent(s.Tag))}
					if s.Active {
						row[0] = color.New(color.Bold, color.FgCyan).Sprint(s.Tag)
					}
					data = append(data, row)
				}
				if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
					return err
				}
				fmt.Printf("%d eligible notes, %s with a %s id.\n",
					rep.Total, color.GreenString("%d%%", rep.Percent), rep.Active)
				if rep.Unindexed > 0 {
					fmt.Println(color.YellowString("%d notes are not indexed yet and were not counted.", rep.Unindexed))
				}
				return nil
			})
		},
	}
}

func assignCommand() *cli.Command {
	return &cli.Command{
		Name:      "assign",
		Usage:     "Add an id of the active scheme to one note",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Replace an existing id"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("assign: path is required")
			}
			return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
				res, err := app.Service.AssignNote(ctx, path, cmd.Bool("force"))
				if err != nil {
					return err
				}
				if res.Assigned {
					fmt.Printf("%s %s\n", color.GreenString("%s id written to", res.Scheme), res.Path)
				} else {
					fmt.Printf("%s %s\n", color.YellowString("unchanged:"), res.Path)
				}
				return nil
			})
		},
	}
}

func bulkCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "scheme", Aliases: []string{"s"}, Usage: "Scheme tag (defaults to the active scheme)"},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
	}
	sub := func(op models.Operation, usage string) *cli.Command {
		return &cli.Command{
			Name:  string(op),
			Usage: usage,
			Flags: flags,
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
					return runBulk(ctx, cmd, app, op)
				})
			},
		}
	}
	return &cli.Command{
		Name:  "bulk",
		Usage: "Add or remove ids across the whole vault",
		Commands: []*cli.Command{
			sub(models.OperationAdd, "Give every eligible note an id"),
			sub(models.OperationRemove, "Remove one scheme's ids from every eligible note"),
		},
	}
}

func runBulk(ctx context.Context, cmd *cli.Command, app *internal.App, op models.Operation) error {
	tag := cmd.String("scheme")
	if tag == "" {
		st, err := app.Service.Settings(ctx)
		if err != nil {
			return err
		}
		tag = st.IDType
	}

	if !cmd.Bool("yes") {
		verb := "add a"
		if op == models.OperationRemove {
			verb = "remove the"
		}
		ok, err := confirm(os.Stdin, os.Stdout, fmt.Sprintf("This will %s '%s' id on every eligible note. Continue?", verb, tag))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	bar := newBulkBar(tag, op)
	res, err := app.Service.Bulk(ctx, tag, op, bar.update)
	bar.stop()
	return reportBulk(ctx, os.Stdout, res, err)
}

// reportBulk prints the summary of a finished or cancelled run. A run that
// failed outright prints nothing and returns its error.
func reportBulk(ctx context.Context, out io.Writer, res models.BulkResult, err error) error {
	if err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Fprintln(out, color.GreenString("%s", completionNotice(res)))
	for _, f := range res.Failed {
		fmt.Fprintf(out, "%s %s: %s\n", color.RedString("failed"), f.Path, f.Err)
	}
	return err
}

// completionNotice renders the summary shown after a run.
func completionNotice(res models.BulkResult) string {
	verb := "added to"
	if res.Operation == models.OperationRemove {
		verb = "removed from"
	}
	noun := "notes"
	if res.Changed == 1 {
		noun = "note"
	}
	return fmt.Sprintf("Operation complete: '%s' %s %d %s.", res.Scheme, verb, res.Changed, noun)
}

// bulkBar drives a pterm progress bar from deduplicated progress reports.
// For remove runs it shows how many ids have been cleared, so it fills up.
type bulkBar struct {
	title   string
	op      models.Operation
	bar     *pterm.ProgressbarPrinter
	initial int
	shown   int
}

func newBulkBar(tag string, op models.Operation) *bulkBar {
	title := "Adding " + tag + " ids"
	if op == models.OperationRemove {
		title = "Removing " + tag + " ids"
	}
	return &bulkBar{title: title, op: op, initial: -1}
}

func (b *bulkBar) update(completed, total int) {
	if total == 0 {
		return
	}
	if b.initial < 0 {
		b.initial = completed
		barTotal := total
		if b.op == models.OperationRemove {
			barTotal = completed
		}
		if barTotal == 0 {
			return
		}
		bar, err := pterm.DefaultProgressbar.WithTotal(barTotal).WithTitle(b.title).Start()
		if err != nil {
			return
		}
		b.bar = bar
	}
	if b.bar == nil {
		return
	}
	done := completed
	if b.op == models.OperationRemove {
		done = b.initial - completed
	}
	if done > b.shown {
		b.bar.Add(done - b.shown)
		b.shown = done
	}
}

func (b *bulkBar) stop() {
	if b.bar != nil {
		_, _ = b.bar.Stop()
	}
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s %s ", color.YellowString("%s", question), color.New(color.Faint).Sprint("[y/N]"))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("confirm: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change identifier settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the current settings as JSON",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
						st, err := app.Service.Settings(ctx)
						if err != nil {
							return err
						}
						return printJSON(os.Stdout, st)
					})
				},
			},
			{
				Name:  "set",
				Usage: "Change one or more settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id-type", Usage: "Active scheme tag"},
					&cli.StringSliceFlag{Name: "exclude", Usage: "Excluded path prefix (repeatable, replaces the list)"},
					&cli.StringFlag{Name: "exclude-from", Usage: "Read excluded prefixes from a file, one per line (- for stdin)"},
					&cli.BoolFlag{Name: "clear-exclude", Usage: "Remove all excluded prefixes"},
					&cli.BoolFlag{Name: "auto-assign", Usage: "Assign ids to newly created notes"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
						st, err := app.Service.Settings(ctx)
						if err != nil {
							return err
						}
						if cmd.IsSet("id-type") {
							st.IDType = cmd.String("id-type")
						}
						if cmd.Bool("clear-exclude") {
							st.ExcludePaths = nil
						}
						if cmd.IsSet("exclude") {
							st.ExcludePaths = cmd.StringSlice("exclude")
						}
						if name := cmd.String("exclude-from"); name != "" {
							prefixes, err := readExcludeList(name)
							if err != nil {
								return err
							}
							st.ExcludePaths = prefixes
						}
						if cmd.IsSet("auto-assign") {
							st.AutoAssignOnCreate = cmd.Bool("auto-assign")
						}
						saved, err := app.Service.UpdateSettings(ctx, st)
						if err != nil {
							return err
						}
						return printJSON(os.Stdout, saved)
					})
				},
			},
		},
	}
}

// readExcludeList reads a newline-separated prefix list from a file or stdin.
func readExcludeList(name string) ([]string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read exclude list: %w", err)
	}
	return exclude.SplitLines(string(data)), nil
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the MCP tools on stdin/stdout",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(_ context.Context, app *internal.App) error {
				return mcpserver.New(app.Service, version).ServeStdio()
			})
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
