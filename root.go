package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

type app struct {
	v    *viper.Viper
	keys *registry
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:           "clustermap",
		Short:         "live map of a compute cluster's workers, tasks and transfers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.keys = registerConfig(a.v, cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newReplayCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// load resolves configuration for cmd and applies the log settings.
func (a *app) load(cmd *cobra.Command) (*Config, error) {
	if err := bindEnv(a.keys, cmd); err != nil {
		return nil, err
	}
	config, err := initializeConfig(a.v)
	if err != nil {
		return nil, err
	}
	if err := SetLogrus(config.Log); err != nil {
		return nil, err
	}
	return config, nil
}
