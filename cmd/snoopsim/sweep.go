package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ehrlich-b/go-snoopsim"
	"github.com/ehrlich-b/go-snoopsim/internal/logging"
)

// sweepSpec is the shape of a sweep configuration file: the cartesian
// product of the listed protocols and geometries is simulated.
type sweepSpec struct {
	Protocols   []string `mapstructure:"protocols"`
	TracePrefix string   `mapstructure:"trace_prefix"`
	CacheSizes  []int    `mapstructure:"cache_sizes"`
	BlockSizes  []int    `mapstructure:"block_sizes"`
	Assocs      []int    `mapstructure:"assocs"`
	Cores       int      `mapstructure:"cores"`
	Workers     int      `mapstructure:"workers"`
	Out         string   `mapstructure:"out"`
}

func newSweepCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a parameter sweep described by a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			v.SetConfigFile(configPath)
			v.SetDefault("cores", snoopsim.DefaultNumCores)
			v.SetDefault("out", "sweep.csv")
			if err := v.ReadInConfig(); err != nil {
				return err
			}

			var spec sweepSpec
			if err := v.Unmarshal(&spec); err != nil {
				return err
			}

			configs, err := expand(spec)
			if err != nil {
				return err
			}
			logging.Info("sweep starting", "configs", len(configs), "workers", spec.Workers)

			results, err := snoopsim.Sweep(cmd.Context(), configs, spec.Workers)
			if err != nil {
				logging.Default().WithError(err).Warn("sweep finished with failures")
			}

			f, ferr := os.OpenFile(spec.Out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if ferr != nil {
				return ferr
			}
			defer f.Close()

			for _, res := range results {
				if res == nil {
					continue
				}
				res.WriteTable(os.Stdout)
				if werr := res.WriteCSV(f); werr != nil {
					return werr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "sweep.yaml", "sweep configuration file")
	return cmd
}

// expand builds the cartesian product of the sweep dimensions.
func expand(spec sweepSpec) ([]snoopsim.Config, error) {
	if len(spec.Protocols) == 0 || len(spec.CacheSizes) == 0 ||
		len(spec.BlockSizes) == 0 || len(spec.Assocs) == 0 {
		return nil, fmt.Errorf("sweep config must list protocols, cache_sizes, block_sizes and assocs")
	}

	var configs []snoopsim.Config
	for _, protoName := range spec.Protocols {
		protocol, err := snoopsim.ParseProtocol(protoName)
		if err != nil {
			return nil, err
		}
		for _, cacheSize := range spec.CacheSizes {
			for _, blockSize := range spec.BlockSizes {
				for _, assoc := range spec.Assocs {
					configs = append(configs, snoopsim.Config{
						Protocol:    protocol,
						TracePrefix: spec.TracePrefix,
						CacheSize:   cacheSize,
						BlockSize:   blockSize,
						Assoc:       assoc,
						NumCores:    spec.Cores,
					})
				}
			}
		}
	}
	return configs, nil
}
