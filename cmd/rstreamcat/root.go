package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baxromumarov/rstream"
	"github.com/baxromumarov/rstream/chanx"
	"github.com/baxromumarov/rstream/filesource"
	"github.com/baxromumarov/rstream/internal/config"
)

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		envFile string
	)
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "rstreamcat [flags] FILE...",
		Short: "Stream files to stdout through a single-reader stream",
		Long: `rstreamcat opens each FILE, seeks to the requested offset and copies
the remaining bytes to stdout, one chunk per pull.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, config.LoaderConfig{
				ConfigFile:      cfgFile,
				EnvironmentFile: envFile,
			})
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := cfg.Log.ConfigureZerolog(cmd.ErrOrStderr())
			return run(cmd.Context(), cfg, logger, filesource.NewOSRegistry(), args, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.StringVar(&envFile, "env-file", "", "dotenv file loaded before reading RSTREAM_* variables")
	flags.Int("chunk-size", 64*1024, "bytes per chunk")
	flags.Int64("offset", 0, "seek offset applied before streaming")
	flags.String("whence", "start", "seek origin: start, current or end")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", "console", "log format: console or json")

	_ = v.BindPFlag("chunk_size", flags.Lookup("chunk-size"))
	_ = v.BindPFlag("offset", flags.Lookup("offset"))
	_ = v.BindPFlag("whence", flags.Lookup("whence"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))

	return cmd
}

// run streams every named file from reg to out in order.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *filesource.Registry, names []string, out io.Writer) error {
	whence, err := filesource.ParseSeekMode(cfg.Whence)
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := catFile(ctx, cfg, logger, reg, name, whence, out); err != nil {
			return err
		}
	}
	return nil
}

func catFile(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	reg *filesource.Registry,
	name string,
	whence filesource.SeekMode,
	out io.Writer,
) error {
	f, err := reg.Open(name)
	if err != nil {
		return err
	}
	pos, err := f.SeekTo(cfg.Offset, whence)
	if err != nil {
		_ = f.Close()
		return err
	}
	logger.Debug().Str("file", name).Int64("offset", pos).Int("size", f.Stat().Size).Msg("opened")

	return streamFile(ctx, cfg, logger, f, out)
}

// streamFile copies f from its current offset to out and closes f.
func streamFile(ctx context.Context, cfg *config.Config, logger zerolog.Logger, f *filesource.File, out io.Writer) error {
	name := f.Name()
	defer func() {
		// A canceled stream has already closed f.
		if err := f.Close(); err != nil && !errors.Is(err, filesource.ErrFileClosed) {
			logger.Warn().Err(err).Str("file", name).Msg("close failed")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := filesource.Stream(f, cfg.ChunkSize, rstream.WithLogger(logger), rstream.WithContext(ctx))
	reader, err := s.GetReader()
	if err != nil {
		return err
	}
	defer reader.ReleaseLock()

	chunks, errs := reader.ToChan(ctx)
	var written int64
	for chunk := range chunks {
		n, werr := out.Write(chunk)
		written += int64(n)
		if werr != nil {
			cancel()
			chanx.Drain(chunks)
			_, _ = reader.Cancel(werr).Wait()
			return fmt.Errorf("write %s: %w", name, werr)
		}
	}
	if err := <-errs; err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	stats := s.Stats()
	logger.Info().
		Str("file", name).
		Int64("bytes", written).
		Int64("chunks", stats.Delivered).
		Int64("pulls", stats.Pulls).
		Msg("streamed")
	return nil
}
