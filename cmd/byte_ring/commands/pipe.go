package commands

import (
	"context"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	rb "github.com/sushydev/byte_ring_go"
)

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Copy stdin to stdout through a ring buffer",
	Long: `Copy stdin to stdout through a locking ring buffer, with one goroutine
producing into the ring and another consuming from it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runPipe(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), current.capacity, current.chunkSize, current.logger)
		return err
	},
}

type pipeStats struct {
	in, out int64
}

func runPipe(ctx context.Context, src io.Reader, dst io.Writer, capacity, chunkSize int, logger *zap.Logger) (pipeStats, error) {
	var stats pipeStats

	if capacity == 0 {
		return stats, errors.New("pipe needs a non-zero capacity")
	}

	ring, err := rb.NewLockingRingBuffer(capacity, 0)
	if err != nil {
		return stats, errors.Wrap(err, "create ring")
	}
	defer ring.Close()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)

	// Unblocks both sides if either fails or the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = ring.Close() })
	defer stop()

	g.Go(func() error {
		defer ring.CloseWrite()

		chunk := make([]byte, chunkSize)
		for {
			n, err := src.Read(chunk)
			if n > 0 {
				if _, werr := ring.Write(chunk[:n]); werr != nil {
					return errors.Wrap(werr, "write ring")
				}
				stats.in += int64(n)
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return errors.Wrap(err, "read input")
			}
		}
	})

	g.Go(func() error {
		chunk := make([]byte, chunkSize)
		for {
			n, err := ring.Read(chunk)
			if n > 0 {
				if _, werr := dst.Write(chunk[:n]); werr != nil {
					return errors.Wrap(werr, "write output")
				}
				stats.out += int64(n)
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return errors.Wrap(err, "read ring")
			}
		}
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}

	logger.Info("pipe finished",
		zap.String("capacity", humanize.IBytes(uint64(capacity))),
		zap.String("in", humanize.IBytes(uint64(stats.in))),
		zap.String("out", humanize.IBytes(uint64(stats.out))),
		zap.Duration("elapsed", time.Since(start)),
	)

	return stats, nil
}
