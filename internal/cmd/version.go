package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/eventpro/internal/ux"
	"github.com/felixgeelhaar/eventpro/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runVersion,
}

func init() {
	versionCmd.Flags().Bool("full", false, "show detailed version information")
	rootCmd.AddCommand(versionCmd)
}

// versionView prints the short or full form as text and the full Info otherwise
type versionView struct {
	info version.Info
	full bool
}

func (v versionView) Payload() any { return v.info }

func (v versionView) RenderText(w io.Writer, _ *ux.FormatterOptions) error {
	if v.full {
		_, err := fmt.Fprintln(w, v.info.String())
		return err
	}
	_, err := fmt.Fprintf(w, "eventpro %s\n", v.info.Short())
	return err
}

func runVersion(cmd *cobra.Command, args []string) error {
	full, _ := cmd.Flags().GetBool("full")
	verbose, _ := cmd.Flags().GetBool("verbose")
	return render(cmd, versionView{info: version.GetInfo(), full: full || verbose})
}
