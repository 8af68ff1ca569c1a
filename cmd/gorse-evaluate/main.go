// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/gorse-io/evaluate/benchmark"
	"github.com/gorse-io/evaluate/cmd/version"
	"github.com/gorse-io/evaluate/common/log"
	"github.com/gorse-io/evaluate/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "gorse-evaluate",
	Short: "Evaluate offline recommendations on MovieLens-100k folds",
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)
		// Load configuration
		configPath, _ := cmd.PersistentFlags().GetString("config")
		cfg, err := config.LoadConfig(configPath, cmd.Flags())
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		var opts []benchmark.Option
		if progress, _ := cmd.Flags().GetBool("progress"); progress {
			opts = append(opts, benchmark.WithProgress(os.Stderr))
		}
		if err = benchmark.New(cfg, opts...).Run(cmd.Context(), os.Stdout); err != nil {
			log.Logger().Fatal("failed to evaluate recommendations", zap.Error(err))
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCmd.PersistentFlags().Bool("debug", false, "use debug log mode")
	log.AddFlags(rootCmd.PersistentFlags())
	rootCmd.Flags().Bool("progress", false, "show progress while loading recommendations")
	config.AddFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
