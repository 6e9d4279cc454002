package main

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	replayLimit       int
	replayConcurrency int
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-run stored raw events through the pipeline",
	Long:  "Reads the most recent raw webhook payloads from history and processes them again, for example after a filter or profile change. Duplicate suppression applies, so recently delivered lots stay quiet.",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := initBridge(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		stats, err := replayEvents(cmd.Context(), b, replayLimit, replayConcurrency)
		if err != nil {
			return err
		}

		zap.L().Info("replay complete",
			zap.Int64("events", stats.events),
			zap.Int64("delivered", stats.delivered),
			zap.Int64("skipped", stats.skipped),
			zap.Int64("failed", stats.failed),
		)
		return nil
	},
}

func init() {
	replayCmd.Flags().IntVar(&replayLimit, "limit", 100, "max raw events to replay")
	replayCmd.Flags().IntVar(&replayConcurrency, "concurrency", 4, "parallel pipeline workers")
	rootCmd.AddCommand(replayCmd)
}

type replayStats struct {
	events, delivered, skipped, failed int64
}

// replayEvents reprocesses stored raw payloads with bounded concurrency.
// Individual failures are counted, not fatal.
func replayEvents(ctx context.Context, b *bridge, limit, concurrency int) (replayStats, error) {
	events, err := b.store.RawEvents(ctx, limit)
	if err != nil {
		return replayStats{}, eris.Wrap(err, "load raw events")
	}

	var delivered, skipped, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, ev := range events {
		g.Go(func() error {
			res, err := b.pipeline.Replay(ctx, ev.Payload)
			switch {
			case err != nil:
				failed.Add(1)
				zap.L().Warn("replay: event failed",
					zap.String("lot_id", ev.LotID),
					zap.Error(err),
				)
			case res.Skipped:
				skipped.Add(1)
			default:
				delivered.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return replayStats{}, eris.Wrap(err, "replay")
	}

	return replayStats{
		events:    int64(len(events)),
		delivered: delivered.Load(),
		skipped:   skipped.Load(),
		failed:    failed.Load(),
	}, nil
}
