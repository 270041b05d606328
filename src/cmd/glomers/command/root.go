package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/mosaicnetworks/glomers/src/config"
	"github.com/mosaicnetworks/glomers/src/glomers"
	vers "github.com/mosaicnetworks/glomers/src/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding flags, e.g.
// GLOMERS_GOSSIP_INTERVAL for --gossip-interval.
const EnvPrefix = "GLOMERS"

// NewRootCmd returns the command running a node of the given workload, reading
// messages from in and writing them to out.
func NewRootCmd(workload glomers.Workload, in io.Reader, out io.Writer) *cobra.Command {
	return newRootCmd(workload, in, out, config.NewDefaultConfig())
}

func newRootCmd(workload glomers.Workload, in io.Reader, out io.Writer, conf *config.Config) *cobra.Command {
	v := viper.New()

	var version bool

	cmd := &cobra.Command{
		Use:           workload.Name,
		Short:         fmt.Sprintf("Run a %s node on the standard streams", workload.Name),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, v, conf)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if version {
				fmt.Fprintln(cmd.OutOrStderr(), vers.Version)
				return nil
			}

			return runNode(workload, in, out, conf)
		},
	}

	AddRunFlags(cmd, conf)
	cmd.Flags().BoolVarP(&version, "version", "v", false, "Show version and exit")

	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNode(workload glomers.Workload, in io.Reader, out io.Writer, conf *config.Config) error {
	engine := glomers.NewGlomers(conf, workload, in, out)

	if err := engine.Init(); err != nil {
		conf.Logger().Error("Cannot initialize engine: ", err)
		return err
	}

	if err := engine.Run(); err != nil {
		conf.Logger().WithError(err).Error("Node stopped")
		return err
	}

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

// AddRunFlags adds the configuration flags to cmd.
func AddRunFlags(cmd *cobra.Command, conf *config.Config) {
	cmd.Flags().String("config", "", "Optional configuration file (toml, json or yaml)")
	cmd.Flags().String("log", conf.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", conf.LogFile, "Also write logs to this file")

	// Service
	cmd.Flags().StringP("service-listen", "s", conf.ServiceAddr, "Listen IP:Port for HTTP service, disabled if empty")

	// Node
	cmd.Flags().Int("queue-size", conf.QueueSize, "Capacity of the event queue")
	cmd.Flags().Duration("gossip-interval", conf.GossipInterval, "Time between gossips")
	cmd.Flags().Float64("gossip-redundancy", conf.GossipRedundancy, "Fraction of known values re-sent in a broadcast gossip")
}

func loadConfig(cmd *cobra.Command, v *viper.Viper, conf *config.Config) error {
	if err := bindFlagsLoadViper(cmd, v, conf); err != nil {
		return err
	}

	conf.Logger().WithFields(logrus.Fields{
		"LogLevel":         conf.LogLevel,
		"LogFile":          conf.LogFile,
		"ServiceAddr":      conf.ServiceAddr,
		"QueueSize":        conf.QueueSize,
		"GossipInterval":   conf.GossipInterval,
		"GossipRedundancy": conf.GossipRedundancy,
	}).Debug("RUN")

	return nil
}

// Bind all flags and environment variables, read the optional config file,
// and unmarshal the result into conf.
func bindFlagsLoadViper(cmd *cobra.Command, v *viper.Viper, conf *config.Config) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(conf)
}
