package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ligun0805/crossapp-wallet/internal/emitters"
	"github.com/ligun0805/crossapp-wallet/internal/logger"
	"github.com/ligun0805/crossapp-wallet/internal/metrics"
	"github.com/ligun0805/crossapp-wallet/internal/poller"
	"github.com/ligun0805/crossapp-wallet/internal/units"
	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		kafkaBroker string
		kafkaTopic  string
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch [address]",
		Short: "Poll balances until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("kafka-broker") {
				kafkaBroker = a.cfg.KafkaBroker
			}
			if !cmd.Flags().Changed("kafka-topic") {
				kafkaTopic = a.cfg.KafkaTopic
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = a.cfg.MetricsAddr
			}

			account, err := a.account(args)
			if err != nil {
				return err
			}
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var tok *tokenInfo
			if a.cfg.TokenAddress != "" {
				info, err := loadTokenInfo(ctx, c, a.cfg.TokenAddress)
				if err != nil {
					return err
				}
				tok = &info
			}

			var emitter emitters.SnapshotEmitter
			if kafkaBroker != "" {
				emitter = emitters.NewKafkaEmitter(kafkaBroker, kafkaTopic, a.cfg.TokenAddress, logger.For("kafka"))
				defer emitter.Close()
			}

			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.log.Error().Err(err).Str("addr", metricsAddr).Msg("metrics server stopped")
					}
				}()
				defer srv.Shutdown(context.Background())
				a.log.Info().Str("addr", metricsAddr).Msg("serving metrics")
			}

			p := poller.New(c,
				poller.WithInterval(a.cfg.PollInterval),
				poller.WithToken(a.cfg.TokenAddress),
				poller.WithLogger(logger.For("poller")),
			)
			p.Start(ctx, wallet.Account(account), func(s wallet.BalanceSnapshot) {
				line := fmt.Sprintf("[%s] %s ETH", s.ObservedAt.Format(time.TimeOnly), units.FormatEther(s.Native()))
				if tok != nil {
					line += " | " + tok.format(s.Token())
				}
				fmt.Println(line)
				if emitter != nil {
					if err := emitter.Emit(ctx, s); err != nil {
						a.log.Warn().Err(err).Msg("snapshot not emitted")
					}
				}
			})
			defer p.Stop()

			<-ctx.Done()
			a.log.Info().Msg("received signal, stopping...")
			return nil
		},
	}
	cmd.Flags().StringVar(&kafkaBroker, "kafka-broker", "", "publish snapshots to this Kafka broker (KAFKA_BROKER)")
	cmd.Flags().StringVar(&kafkaTopic, "kafka-topic", "wallet-balances", "Kafka topic (KAFKA_TOPIC)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (METRICS_ADDR)")
	return cmd
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
