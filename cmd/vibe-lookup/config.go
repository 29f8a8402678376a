package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-lookup configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.vibe-lookup.yaml.",
		Example: `  vibe-lookup config                              # show all config
  vibe-lookup config set duckdb.path lookup.duckdb  # persist tables to DuckDB
  vibe-lookup config get server.port                # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("# No configuration set. Config file: ~/.vibe-lookup.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// configKeys lists the recognized settings and their value kinds.
var configKeys = map[string]string{
	"workers":     "int",
	"server.port": "int",
	"duckdb.path": "string",
	"output.dir":  "string",
}

func runConfigSet(key, value string) error {
	kind, ok := configKeys[key]
	if !ok {
		return &usageError{fmt.Errorf("unknown config key %q", key)}
	}

	switch kind {
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &usageError{fmt.Errorf("%s must be an integer, got %q", key, value)}
		}
		viper.Set(key, n)
	default:
		viper.Set(key, value)
	}

	// Ensure config file exists
	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, ".vibe-lookup.yaml")
	}

	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, path)
	return nil
}

func runConfigGet(key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}
