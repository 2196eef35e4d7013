// byte_ring is a small driver around the byte_ring_go ring buffer.
//
// Usage:
//
//	byte_ring demo                        # replay the reference scenario
//	byte_ring pipe < in > out             # copy stdin to stdout through a ring
//	byte_ring frames --count 1000         # push msgpack frames through a ring
//	byte_ring --capacity 64KiB pipe       # override the configured capacity
package main

import (
	"os"

	"github.com/sushydev/byte_ring_go/cmd/byte_ring/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
