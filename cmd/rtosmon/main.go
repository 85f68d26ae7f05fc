// Command rtosmon is a host-side monitor for a target running the
// kernel: it opens the board's serial console, reads the line-oriented
// telemetry frames the trust logger's Stats channel emits, verifies
// each frame's trailing checksum, and prints a running view of the tick
// count, context switches and idle percentage. Timer fires are not part
// of the frame.
//
// The tty handling follows the same github.com/mattn/go-tty
// open-raw-read pattern used by this codebase's own boot loader tool;
// framing verification uses the same CRC-8 table style, applied here to
// a much simpler line protocol instead of a binary packet.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/sigurn/crc8"
	tty "github.com/mattn/go-tty"
)

var monitorTable = crc8.MakeTable(crc8.CRC8)

// frame is one parsed STATS line: "STATS,<tick>,<ctxsw>,<idle>,<checksum-hex>".
type frame struct {
	tick, contextSwitches, idleTicks uint64
}

func parseFrame(line string) (frame, bool) {
	line = strings.TrimSpace(line)
	fields := strings.Split(line, ",")
	if len(fields) != 5 || fields[0] != "STATS" {
		return frame{}, false
	}

	payload := strings.Join(fields[:4], ",")
	want, err := strconv.ParseUint(fields[4], 16, 8)
	if err != nil {
		return frame{}, false
	}
	got := crc8.Checksum([]byte(payload), monitorTable)
	if uint64(got) != want {
		log.Printf("rtosmon: checksum mismatch on %q (want %02x got %02x)", line, want, got)
		return frame{}, false
	}

	tick, err1 := strconv.ParseUint(fields[1], 10, 64)
	ctxsw, err2 := strconv.ParseUint(fields[2], 10, 64)
	idle, err3 := strconv.ParseUint(fields[3], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return frame{}, false
	}
	return frame{tick: tick, contextSwitches: ctxsw, idleTicks: idle}, true
}

func main() {
	devPath := flag.String("dev", "", "serial device path (e.g. /dev/ttyACM0)")
	flag.Parse()
	if *devPath == "" {
		log.Fatal("rtosmon: -dev is required")
	}

	t, err := tty.OpenDevice(*devPath)
	if err != nil {
		log.Fatalf("rtosmon: open %s: %v", *devPath, err)
	}
	defer t.Close()
	_ = t.MustRaw()

	fmt.Println("rtosmon: listening (ctrl-c to quit)")
	scanner := bufio.NewScanner(t.Input())
	for scanner.Scan() {
		f, ok := parseFrame(scanner.Text())
		if !ok {
			continue
		}
		idlePct := uint64(0)
		if f.tick > 0 {
			idlePct = f.idleTicks * 100 / f.tick
		}
		fmt.Printf("tick=%-10d ctx_sw=%-8d idle=%3d%%\n", f.tick, f.contextSwitches, idlePct)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("rtosmon: read: %v", err)
	}
}
