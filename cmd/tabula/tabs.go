package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/tabula/internal/bookmarkhtml"
	"pkt.systems/tabula/internal/command"
	"pkt.systems/tabula/schema"
)

// runInvoke returns a RunE that sends one command and prints the result.
func runInvoke(flags *clientFlags, name string, argsFn func([]string) ([]any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		values, err := argsFn(args)
		if err != nil {
			return err
		}
		client, err := flags.client()
		if err != nil {
			return err
		}
		raw, err := client.invoke(cmd.Context(), name, values...)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), raw, flags.output)
	}
}

func noArgs([]string) ([]any, error) { return nil, nil }

func intArgs(args []string) ([]any, error) {
	out := make([]any, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", arg)
		}
		out = append(out, n)
	}
	return out, nil
}

func newTabsCmd() *cobra.Command {
	flags := &clientFlags{}
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "Inspect and manage tabs of a running session",
	}
	flags.register(cmd)

	list := &cobra.Command{
		Use:   "list",
		Short: "List open tabs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			raw, err := client.get(cmd.Context(), "api/tabs")
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), raw, flags.output)
		},
	}

	var background bool
	newTab := &cobra.Command{
		Use:   "new [url]",
		Short: "Open a new tab",
		Args:  cobra.MaximumNArgs(1),
	}
	newTab.RunE = runInvoke(flags, command.NewTab, func(args []string) ([]any, error) {
		url := ""
		if len(args) == 1 {
			url = args[0]
		}
		return []any{url, !background}, nil
	})
	newTab.Flags().BoolVarP(&background, "background", "b", false, "open without activating")

	switchTab := &cobra.Command{
		Use:   "switch <index>",
		Short: "Activate the tab at index",
		Args:  cobra.ExactArgs(1),
		RunE:  runInvoke(flags, command.SwitchTab, intArgs),
	}
	closeTab := &cobra.Command{
		Use:   "close <index>",
		Short: "Close the tab at index",
		Args:  cobra.ExactArgs(1),
		RunE:  runInvoke(flags, command.CloseTab, intArgs),
	}
	move := &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a tab to a new position",
		Args:  cobra.ExactArgs(2),
		RunE:  runInvoke(flags, command.ReorderTabs, intArgs),
	}

	cmd.AddCommand(list, newTab, switchTab, closeTab, move)
	return cmd
}

func newGoCmd() *cobra.Command {
	flags := &clientFlags{}
	cmd := &cobra.Command{
		Use:   "go <url or search terms>",
		Short: "Load a URL or search in the active tab",
		Args:  cobra.MinimumNArgs(1),
		RunE: runInvoke(flags, command.LoadURL, func(args []string) ([]any, error) {
			return []any{strings.Join(args, " ")}, nil
		}),
	}
	flags.register(cmd)
	return cmd
}

func newNavCmd(action, short string) *cobra.Command {
	flags := &clientFlags{}
	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: runInvoke(flags, command.Navigate, func([]string) ([]any, error) {
			return []any{action}, nil
		}),
	}
	flags.register(cmd)
	return cmd
}

func newResizeCmd() *cobra.Command {
	flags := &clientFlags{}
	cmd := &cobra.Command{
		Use:   "resize <width> <height>",
		Short: "Resize the browser window",
		Args:  cobra.ExactArgs(2),
		RunE:  runInvoke(flags, command.ResizeWindow, intArgs),
	}
	flags.register(cmd)
	return cmd
}

func newBookmarksCmd() *cobra.Command {
	flags := &clientFlags{}
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Manage bookmarks",
	}
	flags.register(cmd)
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List bookmarks",
			Args:  cobra.NoArgs,
			RunE:  runInvoke(flags, command.ListBookmarks, noArgs),
		},
		&cobra.Command{
			Use:   "add",
			Short: "Bookmark the active tab",
			Args:  cobra.NoArgs,
			RunE:  runInvoke(flags, command.AddBookmark, noArgs),
		},
		&cobra.Command{
			Use:   "remove <url>",
			Short: "Remove the bookmark for url",
			Args:  cobra.ExactArgs(1),
			RunE: runInvoke(flags, command.RemoveBookmark, func(args []string) ([]any, error) {
				return []any{args[0]}, nil
			}),
		},
		&cobra.Command{
			Use:   "import <bookmarks.html>",
			Short: "Import a browser bookmark export file",
			Args:  cobra.ExactArgs(1),
			RunE: runInvoke(flags, command.ImportBookmarks, func(args []string) ([]any, error) {
				list, err := readBookmarkFile(args[0])
				if err != nil {
					return nil, err
				}
				return []any{list}, nil
			}),
		},
		newBookmarksExportCmd(flags),
	)
	return cmd
}

func readBookmarkFile(path string) ([]schema.Bookmark, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return bookmarkhtml.Parse(f)
}

func newBookmarksExportCmd(flags *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write bookmarks as a browser bookmark file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			raw, err := client.get(cmd.Context(), "api/bookmarks")
			if err != nil {
				return err
			}
			var resp schema.ListBookmarksResponse
			if err := json.Unmarshal(raw, &resp); err != nil {
				return err
			}
			if len(args) == 0 || args[0] == "-" {
				return bookmarkhtml.Write(cmd.OutOrStdout(), resp.Bookmarks)
			}
			f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return err
			}
			if err := bookmarkhtml.Write(f, resp.Bookmarks); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
}
