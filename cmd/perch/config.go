package main

import (
	"fmt"
	"os"

	"github.com/1broseidon/perch/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfigPrint,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if res.File == "" {
			fmt.Println("no config file; defaults are valid")
			return nil
		}
		fmt.Printf("%s: ok\n", res.File)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the config path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			var err error
			if path, err = config.DefaultConfigPath(); err != nil {
				return err
			}
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPrintCmd, configValidateCmd, configInitCmd)
	configPrintCmd.Flags().Bool("defaults", false, "Print built-in defaults instead of the effective config")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runConfigPrint(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if defaults, _ := cmd.Flags().GetBool("defaults"); !defaults {
		res, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = res.Config
		if res.File != "" {
			fmt.Printf("# source: %s\n", res.File)
		}
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
