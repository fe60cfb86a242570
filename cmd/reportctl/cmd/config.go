package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config types

type Config struct {
	APIVersion     string         `yaml:"apiVersion"`
	Kind           string         `yaml:"kind"`
	CurrentContext string         `yaml:"current-context"`
	Contexts       []NamedContext `yaml:"contexts"`
}

type NamedContext struct {
	Name    string        `yaml:"name"`
	Context ContextDetail `yaml:"context"`
}

type ContextDetail struct {
	APIURL string `yaml:"api-url"`
}

func configDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vulnreport")
}

func configPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func loadConfig() (*Config, error) {
	data, err := os.ReadFile(configPath())
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func saveConfig(cfg *Config) error {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "reportctl/v1"
	}
	if cfg.Kind == "" {
		cfg.Kind = "Config"
	}

	if err := os.MkdirAll(configDir(), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath(), data, 0600)
}

func (c *Config) GetContext(name string) *NamedContext {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			return &c.Contexts[i]
		}
	}
	return nil
}

func (c *Config) SetContext(name string, ctx ContextDetail) {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			c.Contexts[i].Context = ctx
			return
		}
	}
	c.Contexts = append(c.Contexts, NamedContext{Name: name, Context: ctx})
}

// Config subcommands

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
}

func init() {
	setCtxCmd := &cobra.Command{
		Use:   "set-context NAME",
		Short: "Create or update a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			apiURL, _ := cmd.Flags().GetString("api-url")

			if apiURL == "" {
				return fmt.Errorf("--api-url is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				cfg = &Config{}
			}

			cfg.SetContext(name, ContextDetail{APIURL: apiURL})
			if cfg.CurrentContext == "" {
				cfg.CurrentContext = name
			}

			if err := saveConfig(cfg); err != nil {
				return err
			}
			fmt.Printf("Context %q saved.\n", name)
			return nil
		},
	}
	setCtxCmd.Flags().String("api-url", "", "API base URL")

	useCtxCmd := &cobra.Command{
		Use:   "use-context NAME",
		Short: "Switch the current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("no config file found, use 'reportctl config set-context' first")
			}
			if cfg.GetContext(args[0]) == nil {
				return fmt.Errorf("context %q not found", args[0])
			}
			cfg.CurrentContext = args[0]
			if err := saveConfig(cfg); err != nil {
				return err
			}
			fmt.Printf("Switched to context %q.\n", args[0])
			return nil
		},
	}

	getCtxCmd := &cobra.Command{
		Use:   "get-contexts",
		Short: "List configured contexts",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("no config file found")
			}
			t := newTable("CURRENT", "NAME", "API URL")
			for _, ctx := range cfg.Contexts {
				current := ""
				if ctx.Name == cfg.CurrentContext {
					current = "*"
				}
				t.AddRow(current, ctx.Name, ctx.Context.APIURL)
			}
			t.Flush()
			return nil
		},
	}

	configCmd.AddCommand(setCtxCmd)
	configCmd.AddCommand(useCtxCmd)
	configCmd.AddCommand(getCtxCmd)
}
