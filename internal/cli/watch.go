package cli

import (
	"github.com/spf13/cobra"

	"github.com/vk/liveui/internal/app"
	"github.com/vk/liveui/internal/inmemorybackend"
)

// headlessCallLog bounds the call history of the headless backend.
const headlessCallLog = 1024

func newWatchCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch sources and keep a headless scene up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			a := app.New(cmd.OutOrStdout(), cfg, inmemorybackend.NewBounded(headlessCallLog))
			return a.Run(cmd.Context())
		},
	}
}
