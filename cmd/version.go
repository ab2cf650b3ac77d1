package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cslab/cschat/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration information",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("cschat %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	cfg, err := config.LoadRaw()
	if err != nil {
		return err
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Model: %s\n", cfg.ModelName)
	fmt.Printf("  Embedder: %s\n", cfg.EmbedderModel)
	fmt.Printf("  Temperature: %.2f\n", cfg.Temperature)
	fmt.Printf("  Max tokens: %d\n", cfg.MaxTokens)
	fmt.Printf("  History limit: %d\n", cfg.MaxHistoryMessages)
	fmt.Printf("  Database: %s\n", cfg.DBPath)

	printKeyStatus("GEMINI_API_KEY", os.Getenv("GEMINI_API_KEY"), true)
	printKeyStatus("WEATHER_API_KEY", os.Getenv("WEATHER_API_KEY"), false)
	return nil
}

// printKeyStatus shows whether a key is configured without printing it.
func printKeyStatus(name, value string, required bool) {
	if len(value) >= 8 {
		fmt.Printf("  %s: %s...%s (configured)\n", name, value[:4], value[len(value)-4:])
		return
	}
	if value != "" {
		fmt.Printf("  %s: (configured)\n", name)
		return
	}
	if required {
		fmt.Printf("  %s: Not set\n", name)
		fmt.Println()
		fmt.Printf("Hint: export %s=your-api-key\n", name)
		return
	}
	fmt.Printf("  %s: Not set (weather tool disabled)\n", name)
}
