// Command firstnames looks up the likely gender and countries of origin of
// first names through genderize.io and nationalize.io.
package main

import (
	"fmt"
	"os"

	"github.com/Sternrassler/firstnames/internal/config"
	"github.com/Sternrassler/firstnames/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli holds the state shared by all subcommands.
type cli struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "firstnames",
		Short:         "Predict gender and origin of first names",
		Long:          "firstnames looks up the likely gender and countries of origin of first names\nthrough the genderize.io and nationalize.io APIs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (YAML)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Bool("log-pretty", false, "human-readable log output")
	_ = c.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = c.v.BindPFlag("logging.pretty", flags.Lookup("log-pretty"))

	root.AddCommand(newServeCmd(c), newLookupCmd(c))
	return root
}

func (c *cli) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return err
	}
	c.cfg = cfg

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel(),
		Pretty: cfg.Logging.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}
