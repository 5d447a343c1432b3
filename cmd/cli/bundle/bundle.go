package bundle

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ivargas/misterio/internal/ssr"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "bundle",
	Title: "Bundler",
}

func init() {
	CustomElements.Flags().String("out", "", "output file, defaults to stdout")
}

// CustomElements expands the template custom elements in an HTML file. Useful
// for inspecting what a fragment looks like after server-side expansion.
var CustomElements = &cobra.Command{
	Use:     "custom-elements [file]",
	GroupID: "bundle",
	Short:   "Expand custom elements",
	Long:    "Expands the custom elements of an HTML fragment into plain HTML",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input, err := os.ReadFile(args[0])
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
			return
		}

		var buf bytes.Buffer
		if err = ssr.ReplaceCustomElements(&buf, bytes.NewReader(input)); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Expansion error: %v\n", err)
			return
		}

		outPath, err := cmd.Flags().GetString("out")
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "invalid out flag: %v\n", err)
			return
		}
		if outPath == "" {
			fmt.Println(buf.String())
			return
		}
		if err = os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
			return
		}
	},
}
