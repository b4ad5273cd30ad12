package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ja7ad/windpower/internal/config"
	"github.com/ja7ad/windpower/internal/logger"
)

// app is shared by every subcommand once the root pre-run has loaded the
// configuration.
type app struct {
	cfgPath   string
	logLevel  string
	logFormat string
	quiet     bool

	cfg *config.Config
	log *logger.Log
	out io.Writer
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4FB3D9"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A")).
			Padding(0, 1)
)

func main() {
	a := &app{out: os.Stdout}
	if err := newRootCmd(a).Execute(); err != nil {
		if a.log != nil {
			a.log.WithError(err).Error("command failed")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "windpower",
		Short: "Wind resource and turbine performance modeling",
		Long: `The windpower tool extrapolates measured wind speeds to hub height,
fits a Weibull distribution, evaluates a turbine's power curve and operating
state, synthesizes turbulent wind and reports energy yield.

* GitHub: https://github.com/ja7ad/windpower

Examples:
  windpower analyze -o mast.csv --hub-height 80 --html report.html
  windpower compare -o mast.csv --turbines fleet.yaml
  windpower synth --mean 8 --height 30 --duration 600 --csv wind.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "config file (YAML or TOML, default "+config.DefaultConfigPath()+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "do not print the banner")

	root.AddCommand(
		newAnalyzeCmd(a),
		newCompareCmd(a),
		newProfileCmd(a),
		newWeibullCmd(a),
		newSynthCmd(a),
		newCurveCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
	)
	return root
}

const (
	annotationConfig = "config"
	configOptional   = "optional"
)

func (a *app) setup(cmd *cobra.Command) error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(a.cfgPath)
	if errors.Is(err, fs.ErrNotExist) && cmd.Annotations[annotationConfig] == configOptional {
		d := config.Default()
		cfg, err = &d, nil
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	override(cmd, "log-level", &cfg.Logging.Level, a.logLevel)
	override(cmd, "log-format", &cfg.Logging.Format, a.logFormat)

	log := logger.GetLogger()
	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	a.cfg, a.log = cfg, log
	return nil
}

// override copies a flag value into dst only when the user set the flag.
func override[T any](cmd *cobra.Command, name string, dst *T, v T) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}

func (a *app) banner(lines ...[2]string) {
	if a.quiet {
		return
	}
	body := titleStyle.Render("windpower") + labelStyle.Render("  wind resource & turbine performance")
	for _, l := range lines {
		body += "\n" + labelStyle.Render(fmt.Sprintf("%-10s", l[0])) + " " + l[1]
	}
	body += "\n" + labelStyle.Render(fmt.Sprintf("%-10s", "as of")) + " " + time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintln(a.out, boxStyle.Render(body))
	fmt.Fprintln(a.out)
}
