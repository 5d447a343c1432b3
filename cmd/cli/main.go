package main

import (
	"fmt"
	"os"

	"github.com/ivargas/misterio/cmd/cli/bundle"
	"github.com/ivargas/misterio/cmd/cli/img"
	"github.com/ivargas/misterio/cmd/cli/mystery"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func init() {
	// A missing .env file is fine, the environment may be configured directly.
	_ = godotenv.Load()
	rootCmd.AddGroup(img.Group)
	rootCmd.AddCommand(img.Generate)
	rootCmd.AddGroup(mystery.Group)
	rootCmd.AddCommand(mystery.Generate)
	rootCmd.AddGroup(bundle.Group)
	rootCmd.AddCommand(bundle.CustomElements)
}

var rootCmd = &cobra.Command{
	Use:  "misterio-cli",
	Long: `Command line utilities for Misterio en el Concejo https://github.com/ivargas/misterio`,
	Run: func(_ *cobra.Command, _ []string) {
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
