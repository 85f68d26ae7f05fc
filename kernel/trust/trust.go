// Package trust is the kernel's debug logging facility: a level-masked
// logger with no dynamic formatting cost beyond what the caller already
// pays for its arguments, and a Fatalf that never returns.
package trust

import (
	"fmt"
	"io"
	"os"

	"github.com/sigurn/crc8"
)

var telemetryTable = crc8.MakeTable(crc8.CRC8)

// MaskLevel is a bitmask selecting which log levels are emitted.
type MaskLevel int

const (
	Nothing MaskLevel = 0x0
	Error   MaskLevel = 0x1
	Warn    MaskLevel = 0x2
	Info    MaskLevel = 0x4
	Debug   MaskLevel = 0x8
	Stats   MaskLevel = 0x10

	fatalMask MaskLevel = 0x80
	allMask   MaskLevel = Error | Warn | Info | Debug | Stats
)

var (
	level  = fatalMask | Error | Warn
	output io.Writer = os.Stdout

	// haltFunc is called by Fatalf after the message has been logged.
	// It must not return. Tests replace it to observe the halt without
	// hanging the test binary.
	haltFunc = func() { select {} }
)

// SetOutput redirects log output. The port chooses the sink: a UART on
// real hardware, stdout for the host demo and tests.
func SetOutput(w io.Writer) {
	output = w
}

// SetLevel installs an explicit mask (e.g. Error|Debug) and returns the
// previous one.
func SetLevel(mask MaskLevel) MaskLevel {
	prev := level &^ fatalMask
	level = (mask & allMask) | fatalMask
	return prev
}

func Level() MaskLevel {
	return level &^ fatalMask
}

// SetHalt overrides what Fatalf does after logging. Used by tests.
func SetHalt(fn func()) {
	haltFunc = fn
}

func logf(l MaskLevel, tag string, format string, args ...interface{}) {
	if level&l == 0 {
		return
	}
	if len(format) == 0 || format[len(format)-1] != '\n' {
		format += "\n"
	}
	fmt.Fprintf(output, tag+format, args...)
}

func Errorf(format string, args ...interface{}) { logf(Error, "ERROR: ", format, args...) }
func Warnf(format string, args ...interface{})  { logf(Warn, " WARN: ", format, args...) }
func Infof(format string, args ...interface{})  { logf(Info, " INFO: ", format, args...) }
func Debugf(format string, args ...interface{}) { logf(Debug, "DEBUG: ", format, args...) }

// Statsf logs under the Stats mask, tagging the message with a category
// so a log-scraping tool can pull out just one kind of counter.
func Statsf(category, format string, args ...interface{}) {
	if level&Stats == 0 {
		return
	}
	logf(fatalMask|Stats, fmt.Sprintf("STATS[%s]: ", category), format, args...)
}

// TelemetryFrame appends a trailing hex CRC-8 to a comma-separated
// payload and logs it under the Stats mask, unframed and un-timestamped
// so a host monitor reading the raw line back can verify it survived the
// wire intact.
func TelemetryFrame(payload string) {
	if level&Stats == 0 {
		return
	}
	sum := crc8.Checksum([]byte(payload), telemetryTable)
	logf(fatalMask|Stats, "", "%s,%02x", payload, sum)
}

// Fatalf logs unconditionally and then halts. Used for catastrophic,
// unrecoverable conditions: stack overflow, a task returning from its
// entry function, a corrupted scheduler invariant.
func Fatalf(format string, args ...interface{}) {
	logf(fatalMask, "FATAL: ", format, args...)
	haltFunc()
}
