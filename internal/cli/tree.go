package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/liveui/internal/app"
	"github.com/vk/liveui/internal/inmemorybackend"
	"github.com/vk/liveui/internal/tree"
)

func newTreeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Load every source once and print the widget tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			a := app.New(cmd.ErrOrStderr(), cfg, inmemorybackend.New())
			t, _, err := a.Tree(cmd.Context())
			if err != nil {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			printTree(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func printTree(w io.Writer, t *tree.Tree) {
	if t == nil {
		return
	}
	var walk func(n *tree.Node, depth int)
	walk = func(n *tree.Node, depth int) {
		var b strings.Builder
		b.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(&b, "%s (%s)", n.ID, n.Type)
		for _, p := range n.Attributes() {
			fmt.Fprintf(&b, " %s=%s", p.Name, p.Value)
		}
		fmt.Fprintln(w, b.String())
		for _, ch := range n.Children {
			walk(ch, depth+1)
		}
	}
	walk(t.Root, 0)
}
