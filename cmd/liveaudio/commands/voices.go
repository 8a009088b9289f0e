package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-liveaudio/pkg/voices"
)

// voices: print the voice catalog.
func voicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the prebuilt voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, v := range voices.All() {
				marker := ""
				if v.Name == voices.DefaultVoice {
					marker = " (default)"
				}
				fmt.Fprintf(w, "%s\t%s%s\n", v.Name, v.Description, marker)
			}
			return w.Flush()
		},
	}
}
