package mystery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ivargas/misterio/internal/ai"
	"github.com/ivargas/misterio/internal/game"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "mystery",
	Title: "Mystery operations",
}

func init() {
	Generate.Flags().String("locale", "es-ES", "language for the generated mystery")
	Generate.Flags().String("backend", "openai", "text backend, openai or gemini")
}

// Generate authors a mystery and prints it as JSON. Handy for eyeballing
// prompt changes without clicking through the web flow.
var Generate = &cobra.Command{
	Use:     "gen",
	GroupID: "mystery",
	Short:   "Generate a mystery",
	Long:    `Authors a fresh murder mystery and prints it as JSON`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()

		locale, err := cmd.Flags().GetString("locale")
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "invalid locale flag: %v\n", err)
			return
		}
		backend, err := cmd.Flags().GetString("backend")
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "invalid backend flag: %v\n", err)
			return
		}

		var generator game.MysteryGenerator
		switch backend {
		case "openai":
			generator = ai.NewClient(os.Getenv("OPENAI_API_KEY"))
		case "gemini":
			client, geminiErr := ai.NewGeminiClient(ctx, os.Getenv("GEMINI_API_KEY"))
			if geminiErr != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Gemini client error: %v\n", geminiErr)
				return
			}
			defer func() {
				_ = client.Close()
			}()
			generator = client
		default:
			_, _ = fmt.Fprintf(os.Stderr, "unknown backend %q, expected openai or gemini\n", backend)
			return
		}

		mystery, err := generator.GenerateMystery(ctx, locale)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Mystery generation error: %v\n", err)
			return
		}

		out, err := json.MarshalIndent(mystery, "", "  ")
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
			return
		}
		fmt.Println(string(out))
	},
}
