// Package main is the objmap command line.
//
// Usage:
//
//	objmap serve                          # run the settings API and UI
//	objmap settings show                  # print the stored settings
//	objmap settings set colorPerActor false
//	objmap import-shp roads.shp           # add shapes to the draw layer
//	objmap init-config                    # write a default config file
//	objmap version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"objmap/pkg/config"
	"objmap/pkg/version"
)

const (
	defaultConfigPath = "configs/objmap.yaml"
	defaultEnvPath    = ".env"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "objmap",
		Short: "Settings service for the object map viewer",
		Long: `objmap keeps the viewer's settings (shown groups, draw layer, actor
colouring, hash id format) in a local sqlite database, serves them to the
browser UI and saves them when the process shuts down.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", defaultConfigPath, "path to config file")
	root.PersistentFlags().String("env", defaultEnvPath, "path to .env file with overrides")

	root.AddCommand(newVersionCmd(), newInitConfigCmd(), newServeCmd(), newSettingsCmd(), newImportShpCmd())
	return root
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error.
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "objmap %s\n", version.Version)
		},
	}
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a default config file if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if err := config.GenerateDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", path)
			return nil
		},
	}
}

// loadConfig reads the .env file and the config file named by the flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envPath, _ := cmd.Flags().GetString("env")
	if err := config.LoadEnvFile(envPath); err != nil {
		return nil, err
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
