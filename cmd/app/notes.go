package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/starford/notebox/internal"
	"github.com/starford/notebox/internal/command"
	"github.com/starford/notebox/internal/models"
	"github.com/starford/notebox/internal/noteservice"
	"github.com/starford/notebox/internal/pager"
)

var stdout io.Writer = os.Stdout

// withService opens the configured store for a single CLI action.
func withService(ctx context.Context, cmd *cli.Command, fn func(*noteservice.Service) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	svc, store, err := internal.OpenService(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(svc)
}

// dispatch runs one command and prints its result.
func dispatch(ctx context.Context, cmd *cli.Command, c command.Command) error {
	return withService(ctx, cmd, func(svc *noteservice.Service) error {
		res, err := command.NewDispatcher(svc).Dispatch(ctx, c)
		if err != nil {
			return err
		}
		return printResult(stdout, res)
	})
}

func noteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title (required)"},
		&cli.StringFlag{Name: "content", Usage: "Note body"},
		&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "Path to a png, jpg, jpeg or gif file"},
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "page", Aliases: []string{"p"}, Usage: "1-based page number", Value: "1"},
		&cli.StringFlag{Name: "page-size", Usage: "Notes per page (default from config)"},
	}
}

func argID(cmd *cli.Command) (int64, error) {
	raw := cmd.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("expected a note id, got %q", raw)
	}
	return id, nil
}

func pageArgs(cmd *cli.Command) (number, size int, err error) {
	if number, err = atoiFlag(cmd, "page"); err != nil {
		return 0, 0, err
	}
	size, err = atoiFlag(cmd, "page-size")
	return number, size, err
}

func atoiFlag(cmd *cli.Command, name string) (int, error) {
	raw := cmd.String(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("--%s: %q is not a number", name, raw)
	}
	return n, nil
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Create a note",
		Flags: noteFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return dispatch(ctx, cmd, command.Command{
				Action:    command.Add,
				Title:     cmd.String("title"),
				Content:   cmd.String("content"),
				ImagePath: cmd.String("image"),
			})
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Replace title, content and image of a note",
		ArgsUsage: "<id>",
		Flags:     noteFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := argID(cmd)
			if err != nil {
				return err
			}
			return dispatch(ctx, cmd, command.Command{
				Action:    command.Update,
				NoteID:    id,
				Title:     cmd.String("title"),
				Content:   cmd.String("content"),
				ImagePath: cmd.String("image"),
			})
		},
	}
}

// editCommand updates only the fields given, keeping the current image unless
// --image or --drop-image is passed.
func editCommand() *cli.Command {
	flags := append(noteFlags(), &cli.BoolFlag{Name: "drop-image", Usage: "Remove the current image"})
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change some fields of a note, keeping the rest",
		ArgsUsage: "<id>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := argID(cmd)
			if err != nil {
				return err
			}
			return withService(ctx, cmd, func(svc *noteservice.Service) error {
				es, err := svc.BeginEdit(ctx, id)
				if err != nil {
					return err
				}
				defer es.Close()

				title, content, image := es.Note.Title, es.Note.Content, es.ImagePath
				if cmd.IsSet("title") {
					title = cmd.String("title")
				}
				if cmd.IsSet("content") {
					content = cmd.String("content")
				}
				if cmd.IsSet("image") {
					image = cmd.String("image")
				}
				if cmd.Bool("drop-image") {
					image = ""
				}

				res, err := es.Commit(ctx, title, content, image)
				if err != nil {
					return err
				}
				return printResult(stdout, command.Result{Action: command.Update, Updated: &res, Message: res.Warning})
			})
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a note",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := argID(cmd)
			if err != nil {
				return err
			}
			return dispatch(ctx, cmd, command.Command{Action: command.Delete, NoteID: id})
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one note",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := argID(cmd)
			if err != nil {
				return err
			}
			return dispatch(ctx, cmd, command.Command{Action: command.Get, NoteID: id})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notes one page at a time",
		Flags: pageFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			number, size, err := pageArgs(cmd)
			if err != nil {
				return err
			}
			return dispatch(ctx, cmd, command.Command{Action: command.List, Page: number, PageSize: size})
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search notes: Date (YYYY-MM-DD), Title or Text",
		ArgsUsage: "<kind> <value>",
		Flags:     pageFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 2 {
				return fmt.Errorf("usage: search <Date|Title|Text> <value>")
			}
			number, size, err := pageArgs(cmd)
			if err != nil {
				return err
			}
			return dispatch(ctx, cmd, command.Command{
				Action:   command.Search,
				Kind:     cmd.Args().Get(0),
				Value:    cmd.Args().Get(1),
				Page:     number,
				PageSize: size,
			})
		},
	}
}

// printResult renders a command result for a terminal.
func printResult(w io.Writer, res command.Result) error {
	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}
	switch {
	case res.Created != nil:
		fmt.Fprintf(w, "created note %d\n", res.Created.ID)
	case res.Updated != nil:
		fmt.Fprintf(w, "updated note %d at %s\n", res.Updated.ID, res.Updated.UpdatedAt.Format("2006-01-02 15:04:05"))
	case res.Note != nil:
		return printNote(w, *res.Note)
	case res.Page != nil:
		return printPage(w, *res.Page)
	case res.Action == command.Delete:
		fmt.Fprintln(w, "deleted")
	}
	return nil
}

func printNote(w io.Writer, n models.Note) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%d\n", n.ID)
	fmt.Fprintf(tw, "title:\t%s\n", n.Title)
	fmt.Fprintf(tw, "created:\t%s\n", n.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(tw, "updated:\t%s\n", n.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(tw, "image:\t%s\n", imageLabel(n))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", n.Content)
	return nil
}

func printPage(w io.Writer, p pager.Page[models.Note]) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCREATED\tUPDATED\tIMAGE")
	for _, n := range p.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			n.ID, n.Title,
			n.CreatedAt.Format("2006-01-02 15:04"),
			n.UpdatedAt.Format("2006-01-02 15:04"),
			imageLabel(n))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "page %d/%d (%d notes)\n", p.Number, p.Pages, p.TotalItems)
	return nil
}

func imageLabel(n models.Note) string {
	if !n.HasImage() {
		return "-"
	}
	return fmt.Sprintf("%d bytes", len(n.Image))
}
