package output

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// ErrorLog appends "idx|message" lines for failed records.
type ErrorLog struct {
	mu   sync.Mutex
	file *os.File
}

// NewErrorLog opens path for appending.
func NewErrorLog(path string) (*ErrorLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrap(err, "output: open error log")
	}
	return &ErrorLog{file: f}, nil
}

// Record appends one failure line. Newlines in msg are flattened so the
// log stays one line per failure.
func (l *ErrorLog) Record(idx int, msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg = strings.ReplaceAll(msg, "\n", " ")
	_, err := fmt.Fprintf(l.file, "%d|%s\n", idx, msg)
	return eris.Wrap(err, "output: append error line")
}

// Close closes the log file.
func (l *ErrorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return eris.Wrap(l.file.Close(), "output: close error log")
}

// WriteProgress rewrites the legacy scalar progress file. It is written
// for operators watching a run; resume decisions come from the store.
func WriteProgress(path string, nextIndex int) error {
	err := os.WriteFile(path, []byte(fmt.Sprintf("%d\n", nextIndex)), 0o644)
	return eris.Wrap(err, "output: write progress")
}
