package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/celldb"
	"github.com/hupe1980/celldb/resource"
	"github.com/hupe1980/celldb/table"
)

const envPrefix = "CELLDB"

// app carries the resolved configuration shared by every command.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	logger *celldb.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "celldb",
		Short: "Sparse measurement store",
		Long: `celldb stores sparse per-sample measurements and keeps missing values
apart from measured zeros.

Examples:
  celldb --storage ./data import --input counts.csv --format long
  celldb --storage ./data stats
  celldb --storage ./data show cell-0001
  celldb --storage s3://bucket/datasets/pbmc --ddb-table celldb-commits pca -k 2
  celldb --storage minio://localhost:9000/bucket/pbmc versions`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default: ./celldb.{yaml,toml,json} or ~/.config/celldb/)")
	pf.String("storage", "", "Dataset location: a directory, s3://bucket/prefix or minio://host/bucket/prefix")
	pf.String("ddb-table", "", "DynamoDB table holding the CURRENT pointer (s3 storage only)")
	pf.String("region", "", "AWS region (s3 storage only)")
	pf.String("endpoint", "", "Custom S3 endpoint, e.g. localstack (s3 storage only)")
	pf.Bool("minio-secure", false, "Use TLS for MinIO")
	pf.String("compression", "zstd", "Table compression: none, lz4 or zstd")
	pf.Bool("json", false, "Write JSON instead of tables")
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format: text or json")
	pf.Int("workers", 0, "Maximum concurrent projection partitions (0 = unbounded)")
	pf.Int64("memory-limit", 0, "Memory limit in bytes for dense matrices (0 = unlimited)")
	pf.Int64("io-limit", 0, "Table I/O limit in bytes per second (0 = unlimited)")

	root.AddCommand(
		newImportCmd(a),
		newShowCmd(a),
		newStatsCmd(a),
		newProjectCmd(a),
		newPCACmd(a),
		newVersionsCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.readConfig(); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.v.GetString("log-level"), err)
	}
	switch format := a.v.GetString("log-format"); format {
	case "", "text":
		a.logger = celldb.NewLogger(newLogHandler(a.errOut, level))
	case "json":
		a.logger = celldb.NewJSONLogger(a.errOut, level)
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", format)
	}

	if !isTerminal(a.out) {
		pterm.DisableStyling()
	}
	return nil
}

func (a *app) readConfig() error {
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	a.v.SetConfigName("celldb")
	a.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".config", "celldb"))
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (a *app) dbOptions() ([]celldb.Option, error) {
	compression, err := table.ParseCompression(a.v.GetString("compression"))
	if err != nil {
		return nil, err
	}

	opts := []celldb.Option{
		celldb.WithLogger(a.logger),
		celldb.WithCompression(compression),
	}

	workers := a.v.GetInt64("workers")
	memLimit := a.v.GetInt64("memory-limit")
	ioLimit := a.v.GetInt64("io-limit")
	if workers > 0 || memLimit > 0 || ioLimit > 0 {
		if workers <= 0 {
			workers = 64
		}
		opts = append(opts, celldb.WithResourceController(resource.NewController(resource.Config{
			MaxBackgroundWorkers: workers,
			MemoryLimitBytes:     memLimit,
			IOLimitBytesPerSec:   ioLimit,
		})))
	}
	return opts, nil
}
