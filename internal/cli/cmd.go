/*
Copyright © 2026 the tcctrack authors.
This file is part of tcctrack.

tcctrack is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

tcctrack is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.
*/

// Package cli builds the tcctrack command tree using cobra and viper:
// a single Cfg holds a *viper.Viper plus every subcommand, flags are
// registered once and bound into viper so they can be set by a config
// file, a TCC_-prefixed environment variable, or a command-line flag,
// in that order of increasing priority.
package cli

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/metsat/tcctrack"
)

// Cfg holds the command tree and its bound configuration.
type Cfg struct {
	*viper.Viper

	Root, versionCmd, runCmd, batchCmd, predictCmd, reportCmd *cobra.Command
}

var options = []struct {
	name, usage string
	defaultVal  interface{}
}{
	{"probThreshold", "foreground probability threshold", 0.5},
	{"btThresholdK", "brightness-temperature threshold in Kelvin (label path)", 218.0},
	{"minAreaKm2", "minimum retained cluster area in square kilometers", 34800.0},
	{"maxTrackDistanceKm", "maximum haversine distance in km for a track match", 200.0},
	{"trackLostThreshold", "frames since update before a track is evicted", 3},
	{"predictionIntervalH", "hours represented by one tracker step", 0.5},
	{"outDir", "directory to write output artefacts to", "./out"},
	{"weights", "path to a gob-encoded segmenter weights file (omit to use the stub model)", ""},
}

// InitializeConfig builds the command tree and binds every flag into
// viper.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}
	cfg.SetEnvPrefix("TCC")
	cfg.AutomaticEnv()

	cfg.Root = &cobra.Command{
		Use:   "tcctrack",
		Short: "Tropical Cloud Cluster detection and tracking.",
		Long: `tcctrack ingests geostationary infrared brightness-temperature granules,
segments candidate tropical cloud clusters, extracts their geophysical
features, and tracks them frame to frame.

Configuration can be set via a config file (--config), TCC_-prefixed
environment variables, or command-line flags, in increasing order of priority.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}

	flags := cfg.Root.PersistentFlags()
	flags.String("config", "", "path to a configuration file")
	cfg.BindPFlag("config", flags.Lookup("config"))
	registerOptions(cfg.Viper, flags)

	cfg.versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("tcctrack v0.1.0")
		},
		DisableAutoGenTag: true,
	}

	cfg.runCmd = &cobra.Command{
		Use:   "run [granule]",
		Short: "Process a single granule.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := newPipeline(cfg)
			result := pipeline.ProcessOne(args[0], cfg.GetString("outDir"), "")
			if !result.Success {
				return result.Err
			}
			cmd.Printf("processed %s: %d clusters, %.0f km2 total area\n", result.ID, result.ClusterCount, result.TotalAreaKM2)
			return nil
		},
		DisableAutoGenTag: true,
	}

	cfg.batchCmd = &cobra.Command{
		Use:   "batch [directory]",
		Short: "Process every granule under a directory in timestamp order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := newPipeline(cfg)
			result := pipeline.ProcessDirectory(args[0], cfg.GetString("outDir"))
			cmd.Printf("processed %d files (%d failed), %d observations, %d active tracks\n",
				result.FilesProcessed, result.FilesFailed, result.TotalObservations, result.ActiveTracks)
			return nil
		},
		DisableAutoGenTag: true,
	}

	var steps int
	cfg.predictCmd = &cobra.Command{
		Use:   "predict",
		Short: "Extrapolate the active tracks of a newly built pipeline forward (no tracks from earlier runs are loaded).",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := newPipeline(cfg)
			result := pipeline.Predict(steps)
			cmd.Printf("%d active tracks, %d steps at %.2fh intervals\n", result.ActiveTracks, result.TotalSteps, result.IntervalH)
			return nil
		},
		DisableAutoGenTag: true,
	}
	cfg.predictCmd.Flags().IntVar(&steps, "steps", 4, "number of steps to extrapolate")

	cfg.reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Write the trajectory analysis report of a newly built pipeline (no trajectory from earlier runs is loaded).",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := newPipeline(cfg)
			report, err := pipeline.Report(cfg.GetString("outDir"))
			if err != nil {
				return err
			}
			cmd.Printf("status=%s tracks=%d\n", report.Status, report.TotalTracks)
			return nil
		},
		DisableAutoGenTag: true,
	}

	cfg.Root.AddCommand(cfg.versionCmd, cfg.runCmd, cfg.batchCmd, cfg.predictCmd, cfg.reportCmd)

	return cfg
}

func registerOptions(v *viper.Viper, flags *pflag.FlagSet) {
	for _, option := range options {
		switch d := option.defaultVal.(type) {
		case string:
			flags.String(option.name, d, option.usage)
		case float64:
			flags.Float64(option.name, d, option.usage)
		case int:
			flags.Int(option.name, d, option.usage)
		default:
			panic(fmt.Errorf("tcc: invalid default option type: %T", option.defaultVal))
		}
		v.BindPFlag(option.name, flags.Lookup(option.name))
	}
}

// setConfig reads in the configuration file named by the "config" flag,
// if one was given.
func setConfig(cfg *Cfg) error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("tcc: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// newPipeline builds a tcc.Pipeline from the bound configuration,
// loading segmenter weights from disk if one was configured, and
// falling back to the stub model (with a warning) otherwise.
func newPipeline(cfg *Cfg) *tcc.Pipeline {
	tccCfg := tcc.DefaultConfig()
	tccCfg.ProbThreshold = cfg.GetFloat64("probThreshold")
	tccCfg.BTThresholdK = cfg.GetFloat64("btThresholdK")
	tccCfg.MinAreaKM2 = cfg.GetFloat64("minAreaKm2")
	tccCfg.MaxTrackDistanceKM = cfg.GetFloat64("maxTrackDistanceKm")
	tccCfg.TrackLostThreshold = cfg.GetInt("trackLostThreshold")
	tccCfg.PredictionIntervalH = cfg.GetFloat64("predictionIntervalH")

	var model tcc.Model = tcc.StubModel{}
	if path := cfg.GetString("weights"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			log.WithError(err).Warn("tcc: could not open weights file; falling back to stub model")
		} else {
			defer f.Close()
			loaded, err := tcc.LoadWeights(f)
			if err != nil {
				log.WithError(err).Warn("tcc: could not load weights; falling back to stub model")
			} else {
				model = loaded
			}
		}
	}

	return tcc.NewPipeline(tccCfg, model)
}
