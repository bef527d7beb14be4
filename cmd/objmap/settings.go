package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"objmap/internal/app"
	"objmap/pkg/logging"
	"objmap/pkg/settings"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or change the stored settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored settings as JSON",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShow,
	}, &cobra.Command{
		Use:   "set <field> <json-value>",
		Short: "Change one setting and save",
		Long: fmt.Sprintf(`Change one setting and save it.

Fields: %s

Examples:
  objmap settings set colorPerActor false
  objmap settings set shownGroups '["Dungeon","Shop"]'`, strings.Join(settings.FieldNames(), ", ")),
		Args: cobra.ExactArgs(2),
		RunE: runSettingsSet,
	})
	return cmd
}

// openCLI opens the app with console logging for one-shot commands.
func openCLI(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logging.InitConsole(cfg.Log.Server.Level)
	return app.Open(cfg)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	a, err := openCLI(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return printSettings(cmd, a.Settings)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	a, err := openCLI(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Settings.Set(args[0], json.RawMessage(args[1])); err != nil {
		return err
	}
	if err := a.Settings.Save(cmd.Context()); err != nil {
		return err
	}
	return printSettings(cmd, a.Settings)
}

func printSettings(cmd *cobra.Command, s *settings.Store) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = cmd.OutOrStdout().Write(out.Bytes())
	return err
}
