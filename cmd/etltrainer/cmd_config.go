package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/etltrainer/internal/config"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration",
	}

	var showEnv bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Fprint(c.out, string(data))

			if showEnv {
				usage, err := config.EnvUsage()
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out)
				fmt.Fprintln(c.out, usage)
			}
			return nil
		},
	}
	show.Flags().BoolVar(&showEnv, "env", false, "also list the supported environment overrides")

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to ~/.etltrainer/config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.EnsureTrainerDir()
			if err != nil {
				return err
			}
			path := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration")

	cmd.AddCommand(show, initCmd)
	return cmd
}

func newProviderCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage text-generation providers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List configured providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}

			names := make([]string, 0, len(cfg.LLM.Providers))
			for name := range cfg.LLM.Providers {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				pc := cfg.LLM.Providers[name]
				marker := " "
				if name == cfg.LLM.DefaultProvider {
					marker = "*"
				}
				fmt.Fprintf(c.out, "%s %-8s enabled=%-5t key=%-5t model=%s\n",
					marker, name, pc.Enabled, pc.APIKey != "", pc.Model)
			}
			return nil
		},
	}

	setKey := &cobra.Command{
		Use:   "set-key <provider> <api-key>",
		Short: "Store an API key in ~/.etltrainer/secrets.yaml and enable the provider",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, key := args[0], args[1]
			if key == "" {
				return errors.New("api key is empty")
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			pc, ok := cfg.LLM.Providers[name]
			if !ok {
				return fmt.Errorf("unknown provider %q", name)
			}

			if err := config.SaveSecrets(map[string]string{name: key}); err != nil {
				return err
			}
			pc.Enabled = true
			if err := config.SaveLocalConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Stored API key for %s\n", name)
			return nil
		},
	}

	use := &cobra.Command{
		Use:   "use <provider>",
		Short: "Make a provider the default for generative mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if _, ok := cfg.LLM.Providers[args[0]]; !ok {
				return fmt.Errorf("unknown provider %q", args[0])
			}
			cfg.LLM.DefaultProvider = args[0]
			if err := config.SaveLocalConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Default provider: %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, setKey, use)
	return cmd
}
