package commands

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	rb "github.com/sushydev/byte_ring_go"
)

// The scenario below depends on this capacity.
const demoCapacity = 15

const helloWorld = "Hello, World!\n"

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Replay the reference ring buffer scenario",
	Long: `Replay the reference scenario on a 15 byte ring: a plain write and
read, a write that wraps around the end of storage, an overflowing write
that is clamped to capacity, and byte-by-byte and mixed transfers.

Every check is printed; the command fails if any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd.OutOrStdout(), current.logger)
	},
}

type demoRun struct {
	out    io.Writer
	logger *zap.Logger
	failed int
}

func (d *demoRun) check(ok bool, name string) {
	if !ok {
		d.failed++
	}
	fmt.Fprintln(d.out, checkLine(ok, name))
}

func drainBytes(ring *rb.RingBuffer) string {
	var out []byte
	for {
		b, ok := ring.TakeByte()
		if !ok {
			return string(out)
		}
		out = append(out, b)
	}
}

func runDemo(out io.Writer, logger *zap.Logger) error {
	ring, err := rb.New(demoCapacity)
	if err != nil {
		return errors.Wrap(err, "could not initialize the ring buffer")
	}
	defer ring.Release()

	d := &demoRun{out: out, logger: logger}

	written := ring.Write([]byte(helloWorld))
	d.check(written == 14 && ring.Occupancy() == 14, "write 14 bytes")

	var got []byte
	one := make([]byte, 1)
	for ring.Read(one) == 1 {
		got = append(got, one[0])
	}
	d.check(string(got) == helloWorld, "read back one byte at a time")

	// One unused byte is left at the end of storage, so this write wraps.
	logger.Debug("wrapping write", zap.Stringer("ring", ring))
	written = ring.Write([]byte(helloWorld))
	d.check(written == 14, "write across the storage boundary")
	d.check(drainBytes(ring) == helloWorld && ring.IsEmpty(), "read back wrapped bytes")

	written = ring.Write([]byte(helloWorld + "******"))
	d.check(written == demoCapacity && ring.IsFull(), "overflowing write is clamped to capacity")

	result := make([]byte, demoCapacity)
	n := ring.Read(result[:14])
	d.check(n == 14 && string(result[:14]) == helloWorld && ring.Occupancy() == 1, "read 14 of 15 bytes")

	tail := make([]byte, 100)
	n = ring.Read(tail)
	d.check(n == 1 && tail[0] == '*' && ring.IsEmpty(), "oversized read returns the last byte")

	for _, c := range []byte(helloWorld) {
		ring.PutByte(c)
	}
	d.check(drainBytes(ring) == helloWorld, "byte-by-byte transfer")

	ring.PutByte('H')
	ring.Write([]byte("el"))
	ring.Write([]byte("lo,"))
	ring.PutByte(' ')
	ring.Write([]byte("Wo"))
	ring.Write([]byte("rld"))
	ring.Write([]byte("!"))
	ring.PutByte('\n')
	d.check(drainBytes(ring) == helloWorld, "mixed byte and slice writes")

	ring.Write([]byte("He"))
	ring.PutByte('l')
	ring.Write([]byte("lo"))
	ring.PutByte(',')
	ring.PutByte(' ')
	ring.Write([]byte("Wor"))
	ring.Write([]byte("l"))
	ring.Write([]byte("d!\n"))
	got = got[:0]
	for ring.Read(one) == 1 {
		got = append(got, one[0])
	}
	d.check(string(got) == helloWorld && ring.Occupancy() == 0, "mixed writes read one byte at a time")

	logger.Info("demo finished", zap.Int("failed", d.failed), zap.Stringer("ring", ring))

	if d.failed > 0 {
		return errors.Errorf("%d demo checks failed", d.failed)
	}
	return nil
}
