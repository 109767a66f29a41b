/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nfcglucose/go-libre/cmd/classify"
	"github.com/nfcglucose/go-libre/cmd/completion"
	"github.com/nfcglucose/go-libre/cmd/config"
	"github.com/nfcglucose/go-libre/cmd/decode"
	"github.com/nfcglucose/go-libre/cmd/scan"
	"github.com/nfcglucose/go-libre/cmd/sensors"
	"github.com/nfcglucose/go-libre/cmd/serve"
	pkgconfig "github.com/nfcglucose/go-libre/pkg/config"
	"github.com/nfcglucose/go-libre/pkg/log"
)

const (
	LogLevelOptionName  = "log-level"
	LogFormatOptionName = "log-format"
	ConfigOptionName    = "config"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel, logFormat, configPath string
	cfg := pkgconfig.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:          "go-libre",
		Short:        "Tool to decode glucose sensor FRAM scans",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg.SetPath(configPath)
			}
			if err := cfg.Load(); err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if logFormat != "" {
				cfg.LogFormat = logFormat
			}
			return log.Init(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(decode.NewCommand())
	cmd.AddCommand(classify.NewCommand())
	cmd.AddCommand(serve.NewCommand(cfg))
	cmd.AddCommand(sensors.NewCommand(cfg))
	cmd.AddCommand(scan.NewCommand(cfg))
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	cmd.PersistentFlags().StringVar(&logFormat, LogFormatOptionName, "", fmt.Sprintf("Log format. %s", log.HelpFormats))
	cmd.PersistentFlags().StringVar(&configPath, ConfigOptionName, "", fmt.Sprintf("Config file. Defaults to %s", pkgconfig.DefaultConfigPath()))
	return cmd
}
