package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trannam110702/lighthouse-sub001/am"
	"github.com/trannam110702/lighthouse-sub001/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage lantern configuration",
	Long: `am: manage lantern configuration

Display and manage lantern configuration settings.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (LANTERN_* prefix)
3. Project config (lantern.toml, searched upward from the working directory)
4. User config (~/.lantern/lantern.toml)
5. System config (/etc/lantern/lantern.toml)
6. Default values

Examples:
  lantern am show                         # Show current configuration
  lantern am show --format json           # Show configuration in JSON format
  lantern am show --sources               # Show where each setting came from
  lantern am get simulation.connections_per_origin
  lantern am set engine.workers 8         # Write to ./lantern.toml
  lantern am profiles                     # List throttling profiles
  lantern am validate                     # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current lantern configuration from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., throttling.preset, engine.workers)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Write a configuration value to the project config (./lantern.toml) or, with --user, to ~/.lantern/lantern.toml",
	Args:  cobra.ExactArgs(2),
	RunE:  runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate that the current lantern configuration is valid",
	RunE:  runAmValidate,
}

var amProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List throttling profiles",
	RunE:  runAmProfiles,
}

var (
	configFormat string
	showSources  bool
	setUser      bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amShowCmd.Flags().BoolVar(&showSources, "sources", false, "Show the source of every setting")
	amSetCmd.Flags().BoolVar(&setUser, "user", false, "Write to the user config instead of the project config")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amProfilesCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if showSources {
		return runAmSources(cmd)
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	data, err := marshalConfig(cfg, configFormat)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

// marshalConfig renders cfg in one of the supported formats.
func marshalConfig(cfg *am.Config, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config to JSON")
		}
		return append(data, '\n'), nil

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config to YAML")
		}
		return append([]byte("# lantern configuration\n"), data...), nil

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config to TOML")
		}
		return append([]byte("# lantern configuration\n"), data...), nil

	default:
		return nil, errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
}

func runAmSources(cmd *cobra.Command) error {
	settings, err := am.Introspect()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}

	rows := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range settings {
		rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.NewNotFoundError("configuration key %q not found", key)
	}

	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path := am.ConfigFileName
	if setUser {
		path = am.UserConfigPath()
		if path == "" {
			return errors.New("could not determine home directory")
		}
	}

	if err := am.SetValue(path, args[0], parseValue(args[1])); err != nil {
		return err
	}

	// Warn now if the new value breaks validation
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to reload config")
	}
	if err := cfg.Validate(); err != nil {
		pterm.Warning.Printf("Configuration is now invalid: %v\n", err)
	}
	pterm.Success.Printf("Set %s = %s in %s\n", args[0], args[1], path)
	return nil
}

// parseValue keeps TOML types for numbers and booleans.
func parseValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	rows := pterm.TableData{{"Profile", "RTT (ms)", "Throughput (Kbps)", "CPU", "Active"}}
	for _, name := range cfg.ProfileNames() {
		p, err := cfg.Profile(name)
		if err != nil {
			return err
		}
		active := ""
		if name == cfg.GetPreset() {
			active = "*"
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%g", p.RTTMs),
			fmt.Sprintf("%g", p.ThroughputKbps),
			fmt.Sprintf("%gx", p.CPUSlowdownMultiplier),
			active,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
