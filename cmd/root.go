package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stampede/internal/banner"
	"stampede/internal/runner"
	"stampede/internal/tui"
)

const usageLine = "Usage: stampede <url> [workers] [warmup (s)] [think (ms)]"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stampede <url> [workers] [warmup (s)] [think (ms)]",
	Short: "stampede - concurrent HTTP load generator",
	Long: `
stampede launches a fixed number of workers that hit one URL in a loop and
shows live latency, throughput, worker and error figures until you cancel.

Results started during the warm-up window are recorded but left out of every
displayed figure.`,
	Args:         cobra.MaximumNArgs(4),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), usageLine)
			return nil
		}

		cfg, err := parseArgs(args, baseConfig())
		if err != nil {
			return err
		}
		return runLoadTest(cmd, cfg, optionsFromViper())
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(dummyCmd, historyCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.stampede.yaml)")
	rootCmd.PersistentFlags().String("history-db", "", "bbolt file to record runs in (disabled when empty)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "log file (default stderr)")

	rootCmd.Flags().Duration("timeout", 30*time.Second, "per-request timeout")
	rootCmd.Flags().Duration("refresh", tui.DefaultRefresh, "live display refresh interval")
	rootCmd.Flags().Int("max-rps", 0, "cap on total requests per second (0 = unlimited)")
	rootCmd.Flags().Bool("headless", false, "plain in-place output, cancel with Ctrl+C")
	rootCmd.Flags().StringP("out", "o", "", "output filename prefix for csv/json reports")
	rootCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")

	viper.BindPFlags(rootCmd.PersistentFlags())
	viper.BindPFlags(rootCmd.Flags())

	viper.SetDefault("workers", 10)
	viper.SetDefault("warmup", 0)
	viper.SetDefault("think", 0)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".stampede")
		}
	}
	viper.SetEnvPrefix("stampede")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

// baseConfig holds defaults from viper (built-ins, config file, environment)
// that positional arguments then override.
func baseConfig() runner.Config {
	return runner.Config{
		Workers:   viper.GetInt("workers"),
		Warmup:    time.Duration(viper.GetInt("warmup")) * time.Second,
		ThinkTime: time.Duration(viper.GetInt("think")) * time.Millisecond,
		Timeout:   viper.GetDuration("timeout"),
		MaxRPS:    viper.GetInt("max-rps"),
	}
}

func parseArgs(args []string, cfg runner.Config) (runner.Config, error) {
	cfg.URL = args[0]
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return cfg, fmt.Errorf("invalid url %q: expected an absolute http(s) url", cfg.URL)
	}

	ints := []struct {
		name string
		set  func(int)
	}{
		{"worker count", func(n int) { cfg.Workers = n }},
		{"warmup seconds", func(n int) { cfg.Warmup = time.Duration(n) * time.Second }},
		{"think ms", func(n int) { cfg.ThinkTime = time.Duration(n) * time.Millisecond }},
	}
	for i, arg := range args[1:] {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s %q: not an integer", ints[i].name, arg)
		}
		ints[i].set(n)
	}

	return cfg, validate(cfg)
}

func validate(cfg runner.Config) error {
	switch {
	case cfg.Workers < 1:
		return fmt.Errorf("worker count must be at least 1, got %d", cfg.Workers)
	case cfg.Warmup < 0:
		return fmt.Errorf("warmup must not be negative, got %s", cfg.Warmup)
	case cfg.ThinkTime < 0:
		return fmt.Errorf("think time must not be negative, got %s", cfg.ThinkTime)
	case cfg.MaxRPS < 0:
		return fmt.Errorf("max-rps must not be negative, got %d", cfg.MaxRPS)
	}
	return nil
}
