package commands

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	rb "github.com/sushydev/byte_ring_go"
	"github.com/sushydev/byte_ring_go/frame"
)

var frameCount int

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "Push msgpack frames through a ring buffer",
	Long: `Encode records as checksummed frames into a ring of the configured
capacity, draining the ring whenever the next frame does not fit, and verify
that every record comes back in order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := runFrames(frameCount, current.capacity, current.chunkSize, current.logger)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), summary("frames", [][2]string{
			{"records", strconv.Itoa(stats.records)},
			{"payload", humanize.IBytes(uint64(stats.payloadBytes))},
			{"wire", humanize.IBytes(uint64(stats.wireBytes))},
			{"drains", strconv.Itoa(stats.drains)},
		}))
		return nil
	},
}

func init() {
	framesCmd.Flags().IntVar(&frameCount, "count", 100, "number of records to send")
}

type frameRecord struct {
	Seq  int    `msgpack:"seq"`
	Body []byte `msgpack:"body"`
}

type frameStats struct {
	records      int
	payloadBytes int
	wireBytes    int
	drains       int
}

func runFrames(count, capacity, bodySize int, logger *zap.Logger) (frameStats, error) {
	var stats frameStats

	ring, err := rb.New(capacity)
	if err != nil {
		return stats, errors.Wrap(err, "create ring")
	}
	defer ring.Release()

	w, r := frame.NewWriter(ring), frame.NewReader(ring)
	next := 0

	drain := func() error {
		stats.drains++
		for r.Pending() {
			var rec frameRecord
			if err := r.Decode(&rec); err != nil {
				return errors.Wrapf(err, "decode record %d", next)
			}
			if rec.Seq != next || !bytes.Equal(rec.Body, recordBody(next, bodySize)) {
				return errors.Errorf("record %d came back as %d", next, rec.Seq)
			}
			stats.records++
			stats.payloadBytes += len(rec.Body)
			next++
		}
		return nil
	}

	for seq := 0; seq < count; seq++ {
		rec := frameRecord{Seq: seq, Body: recordBody(seq, bodySize)}
		before := ring.WriteCursor()

		err := w.Encode(rec)
		if errors.Is(err, frame.ErrNoSpace) {
			logger.Debug("ring full, draining", zap.Int("seq", seq), zap.Int("used", ring.Occupancy()))
			if err := drain(); err != nil {
				return stats, err
			}
			err = w.Encode(rec)
		}
		if err != nil {
			return stats, errors.Wrapf(err, "encode record %d", seq)
		}

		stats.wireBytes += int(ring.WriteCursor() - before)
	}

	if err := drain(); err != nil {
		return stats, err
	}

	if next != count {
		return stats, errors.Wrap(io.ErrUnexpectedEOF, "records missing after drain")
	}

	logger.Info("frames finished",
		zap.Int("records", stats.records),
		zap.Int("drains", stats.drains),
		zap.String("wire", humanize.IBytes(uint64(stats.wireBytes))),
	)

	return stats, nil
}

func recordBody(seq, size int) []byte {
	body := make([]byte, size)
	for i := range body {
		body[i] = byte(seq + i)
	}
	return body
}
