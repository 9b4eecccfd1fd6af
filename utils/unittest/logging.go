package unittest

import (
	"bytes"
	"flag"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var verbose = flag.Bool("vv", false, "print debugging logs")

func LogVerbose() {
	*verbose = true
}

// Logger returns a zerolog
// use -vv flag to print debugging logs for tests
func Logger() zerolog.Logger {
	var writer io.Writer = io.Discard
	if *verbose {
		writer = os.Stderr
	}
	return LoggerWithWriterAndLevel(writer, zerolog.DebugLevel)
}

// LoggerWithWriterAndLevel returns a logger writing json lines at or above
// level to writer.
func LoggerWithWriterAndLevel(writer io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// LogBuffer collects log lines for tests asserting on what was logged.
// It is safe for concurrent writers.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// BufferedLogger returns a debug level logger along with the buffer it
// writes to.
func BufferedLogger() (zerolog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return LoggerWithWriterAndLevel(buf, zerolog.DebugLevel), buf
}
