package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ehrlich-b/go-snoopsim"
	"github.com/ehrlich-b/go-snoopsim/internal/logging"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and append its results to a CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			protocol, err := snoopsim.ParseProtocol(v.GetString("protocol"))
			if err != nil {
				return err
			}

			cfg := snoopsim.Config{
				Protocol:    protocol,
				TracePrefix: v.GetString("trace-prefix"),
				CacheSize:   v.GetInt("cache-size"),
				BlockSize:   v.GetInt("block-size"),
				Assoc:       v.GetInt("assoc"),
				NumCores:    v.GetInt("cores"),
			}

			sim, err := snoopsim.New(cfg)
			if err != nil {
				return err
			}
			res, err := sim.Run(cmd.Context())
			if err != nil {
				return err
			}

			res.WriteTable(os.Stdout)

			out := v.GetString("out")
			if out == "" {
				out = fmt.Sprintf("%s_%s.csv", cfg.TracePrefix, cfg.Protocol)
			}
			if err := appendCSV(out, res); err != nil {
				return err
			}
			logging.Info("results appended", "path", out)
			return nil
		},
	}

	cmd.Flags().String("protocol", "", "coherence protocol: msi, mesi or dragon")
	cmd.Flags().String("trace-prefix", "", "trace file prefix; core N reads <prefix>_N.data")
	cmd.Flags().Int("cache-size", snoopsim.DefaultCacheSize, "per-core cache size in bytes")
	cmd.Flags().Int("block-size", snoopsim.DefaultBlockSize, "cache block size in bytes")
	cmd.Flags().Int("assoc", snoopsim.DefaultAssoc, "cache associativity")
	cmd.Flags().Int("cores", snoopsim.DefaultNumCores, "number of cores")
	cmd.Flags().String("out", "", "CSV output path (default <prefix>_<protocol>.csv)")
	_ = cmd.MarkFlagRequired("protocol")
	_ = cmd.MarkFlagRequired("trace-prefix")

	// flags can also come from SNOOPSIM_* environment variables
	v.SetEnvPrefix("snoopsim")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(cmd.Flags())

	return cmd
}

func appendCSV(path string, res *snoopsim.Result) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return res.WriteCSV(f)
}
