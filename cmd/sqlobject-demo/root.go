package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coderi421/sqlobject"
	"github.com/coderi421/sqlobject/middleware/opentelemetry"
	"github.com/coderi421/sqlobject/middleware/querylog"
	"github.com/coderi421/sqlobject/middleware/recover"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagDriver        string
	flagDSN           string
	flagLogLevel      string
	flagSlow          time.Duration
	flagTraceExporter string
	flagTraceEndpoint string
)

var rootCmd = &cobra.Command{
	Use:           "sqlobject-demo",
	Short:         "Run the record finder against a database",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
		log.Logger = logger

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		shutdown, err := setupTracing(flagTraceExporter, flagTraceEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn().Err(err).Msg("shutdown tracer provider")
			}
		}()

		mdls := []sqlobject.Middleware{
			(&recover.MiddlewareBuilder{
				LogFunc: func(ctx context.Context, inv *sqlobject.Invocation, err any) {
					logger.Error().Str("method", inv.Method).Interface("panic", err).Msg("handler panic")
				},
			}).Build(),
			(&opentelemetry.MiddlewareBuilder{}).Build(),
			querylog.NewBuilder().SlowThreshold(flagSlow).LogFunc(func(l string) {
				logger.Debug().RawJSON("call", []byte(l)).Msg("sql object")
			}).Build(),
		}
		db, err := sqlobject.Open(flagDriver, flagDSN, sqlobject.DBWithMiddlewares(mdls...))
		if err != nil {
			return fmt.Errorf("open %s: %w", flagDriver, err)
		}
		defer func() {
			_ = db.Close()
		}()

		return run(ctx, db, logger)
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagDriver, "driver", "sqlite3", "database/sql driver name (sqlite3, mysql)")
	rootCmd.Flags().StringVar(&flagDSN, "dsn", "file:demo.db?cache=shared&mode=memory", "data source name")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().DurationVar(&flagSlow, "slow", 0, "only log calls slower than this")
	rootCmd.Flags().StringVar(&flagTraceExporter, "trace-exporter", "none", "trace exporter (none, jaeger, zipkin)")
	rootCmd.Flags().StringVar(&flagTraceEndpoint, "trace-endpoint", "", "collector endpoint of the trace exporter")
}
