package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"goods-be/internal/db"
	"goods-be/internal/logger"
	"goods-be/internal/notify"

	"github.com/spf13/cobra"
)

type batchRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

func newRelayCommand() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Publish pending order events from the outbox",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, database, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			var pub notify.Publisher = notify.NewLogPublisher(logger.L())
			if len(cfg.KafkaBrokers) > 0 {
				pub = notify.NewKafkaPublisher(cfg.KafkaBrokers)
			}
			defer pub.Close()

			relay := notify.NewRelay(db.NewTxRunner(database), notify.NewRepository(database), pub,
				notify.RelayConfig{Interval: cfg.OutboxInterval, BatchSize: cfg.OutboxBatch}, logger.L())

			if once {
				return drain(cmd.Context(), relay, cmd.OutOrStdout())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			relay.Start(ctx)
			<-ctx.Done()
			return relay.Stop(context.Background())
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "publish until the outbox has no due entries, then exit")
	return cmd
}

// drain runs batches until one comes back empty.
func drain(ctx context.Context, r batchRunner, out io.Writer) error {
	total := 0
	for {
		n, err := r.RunOnce(ctx)
		if err != nil {
			return err
		}
		total += n
		if n == 0 {
			break
		}
	}
	fmt.Fprintf(out, "published %d events\n", total)
	return nil
}
