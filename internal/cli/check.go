package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vk/liveui/internal/app"
	"github.com/vk/liveui/internal/compiler"
	"github.com/vk/liveui/internal/inmemorybackend"
)

func newCheckCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compile every source once and report errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			a := app.New(cmd.ErrOrStderr(), cfg, inmemorybackend.New())
			files, err := a.Check(cmd.Context())
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %d file(s)\n", len(files))
				return nil
			}
			n := printCompileErrors(cmd.OutOrStdout(), err)
			if n == 0 {
				return err
			}
			return &ExitError{Code: 1, Message: fmt.Sprintf("%d of %d file(s) failed to compile", n, len(files))}
		},
	}
}

// printCompileErrors writes one line per compile error in err and returns
// how many it found.
func printCompileErrors(w io.Writer, err error) int {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	n := 0
	for _, e := range errs {
		var ce *compiler.CompileError
		if errors.As(e, &ce) {
			fmt.Fprintln(w, ce.Error())
			n++
		}
	}
	return n
}
