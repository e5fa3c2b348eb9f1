// birdlg is the operator shell for a birdlgd looking glass.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/psaab/birdlg/pkg/config"
	"github.com/psaab/birdlg/pkg/lg"
	"github.com/psaab/birdlg/pkg/lgproxy"
	"github.com/psaab/birdlg/pkg/logging"
)

var (
	version = "dev"
	commit  = "unknown"
)

type globalFlags struct {
	config  string
	proxy   string
	family  string
	timeout time.Duration
	debug   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "birdlg",
		Short: "BIRD looking-glass shell",
		Long: `birdlg queries a BIRD router through a birdlgd proxy using a fixed set
of looking-glass commands: route lookups, protocol status and traceroute.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", config.DefaultPath, "Configuration file")
	pf.StringVar(&flags.proxy, "proxy", "", "Proxy base URL (overrides client.proxy)")
	pf.StringVar(&flags.family, "family", "", "Address family shown in labels: ipv4 or ipv6 (overrides client.family)")
	pf.DurationVar(&flags.timeout, "timeout", 30*time.Second, "Per-query timeout")
	pf.BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newShellCmd(flags))
	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newController loads the client configuration and connects a Controller
// to the configured proxy.
func newController(flags *globalFlags) (*lg.Controller, *logging.SyslogHandler, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.Setup(config.LogConfig{Level: "warn", Format: "text"}, os.Stderr, flags.debug)
	if err != nil {
		return nil, nil, err
	}

	proxy := cfg.Client.Proxy
	if flags.proxy != "" {
		proxy = flags.proxy
	}
	familyName := cfg.Client.Family
	if flags.family != "" {
		familyName = flags.family
	}
	family, err := lg.ParseFamily(familyName)
	if err != nil {
		logger.Close()
		return nil, nil, err
	}

	client := lgproxy.New(proxy, flags.timeout)
	return lg.NewController(client, family), logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "birdlg version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
		},
	}
}
