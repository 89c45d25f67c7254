// Package log configures apex/log for the nucleosynth tools.
package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvLevel names the environment variable consulted when no level is given.
const EnvLevel = "NUCLEOSYNTH_LOG"

// InitLogger installs a Handler writing to stderr and sets the level. An empty
// level falls back to NUCLEOSYNTH_LOG, then "info".
func InitLogger(level string) error {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetHandler(NewHandler(os.Stderr))
	log.SetLevel(lvl)
	return nil
}

// Handler formats entries as "timestamp L message key=value ...".
type Handler struct {
	mu  sync.Mutex
	out io.Writer
}

func NewHandler(w io.Writer) *Handler {
	return &Handler{out: w}
}

// HandleLog implements the log.Handler interface
func (h *Handler) HandleLog(e *log.Entry) error {
	timestamp := e.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	level := strings.ToUpper(e.Level.String())

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %.1s %s", timestamp.Format("2006-01-02 15:04:05"), level, e.Message)

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, " %s=%v", name, e.Fields[name])
	}
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}
