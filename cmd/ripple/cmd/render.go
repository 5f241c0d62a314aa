package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-drift/ripple/examples/todo"
	"github.com/go-drift/ripple/pkg/core"
	"github.com/go-drift/ripple/pkg/dom"
	"github.com/go-drift/ripple/pkg/tui"
)

type renderOptions struct {
	view   string
	format string
	out    string
	width  int
}

func newRenderCmd(g *globals) *cobra.Command {
	o := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the todo app once and print the result",
		Long: `Render mounts the todo application into an in-memory host tree,
commits one synchronous pass and prints the tree.

Formats:
  html   serialized host tree (default)
  text   the layout "ripple run" paints, without styles
  png    the text layout drawn with a 7x13 bitmap font`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, g, o)
		},
	}
	cmd.Flags().StringVar(&o.view, "view", string(todo.ViewAll), "view to render: all, active or completed")
	cmd.Flags().StringVar(&o.format, "format", "html", "output format: html, text or png")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "write to a file instead of stdout")
	cmd.Flags().IntVar(&o.width, "width", 80, "wrap text and png output at this many columns (0 disables)")
	return cmd
}

func runRender(cmd *cobra.Command, g *globals, o *renderOptions) error {
	r, err := g.resolve()
	if err != nil {
		return err
	}
	logger := newLogger(r, cmd.ErrOrStderr())

	view, err := todo.ParseView(o.view)
	if err != nil {
		return err
	}
	switch o.format {
	case "html", "text", "png":
	default:
		return fmt.Errorf("unknown format %q (use html, text or png)", o.format)
	}

	store, err := openStore(r.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	container := dom.NewContainer("div")
	core.Render(core.CreateElement(todo.App, core.Props{"store": store, "view": view}), container,
		core.WithScheduler(core.Synchronous), core.WithLogger(logger))
	defer core.Unmount(container)

	var out io.Writer = cmd.OutOrStdout()
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch o.format {
	case "text":
		for _, line := range tui.Lines(container, o.width) {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
		return nil
	case "png":
		return tui.WritePNG(out, container, o.width)
	}
	_, err = fmt.Fprintln(out, container.InnerHTML())
	return err
}
