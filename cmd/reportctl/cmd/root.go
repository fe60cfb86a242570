package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version string

	// Global flags
	flagAPIURL  string
	flagContext string
	flagOutput  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "reportctl",
	Short: "Vulnerability report platform CLI",
	Long: `reportctl is a kubectl-style CLI for the vulnerability report platform.

It uploads scanner CSV exports, lists reports and their hosts and
findings, and shows platform-wide statistics.

Use "reportctl config set-context" to configure your connection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("reportctl %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Override API URL (env: VULNREPORT_API_URL)")
	rootCmd.PersistentFlags().StringVarP(&flagContext, "context", "c", "", "Use specific context (env: VULNREPORT_CONTEXT)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(summaryCmd)
}

func initConfig() {
	if flagAPIURL == "" {
		flagAPIURL = os.Getenv("VULNREPORT_API_URL")
	}

	if flagAPIURL == "" {
		flagAPIURL = resolveFromConfigFile()
	}
}

func resolveFromConfigFile() string {
	ctxName := flagContext
	if ctxName == "" {
		ctxName = os.Getenv("VULNREPORT_CONTEXT")
	}

	cfg, err := loadConfig()
	if err != nil {
		return ""
	}

	if ctxName == "" {
		ctxName = cfg.CurrentContext
	}

	ctx := cfg.GetContext(ctxName)
	if ctx == nil {
		return ""
	}

	return ctx.Context.APIURL
}

func mustClient() *Client {
	if flagAPIURL == "" {
		fmt.Fprintln(os.Stderr, "Error: API URL not configured. Use --api-url, VULNREPORT_API_URL, or 'reportctl config set-context'")
		os.Exit(1)
	}
	return NewClient(flagAPIURL, flagVerbose)
}
