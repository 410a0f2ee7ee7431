package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/Cyclone1070/mcpchat", "ui")

// maxLineSize bounds one input line.
const maxLineSize = 1 << 20

// Console is a line-oriented UserInterface over plain reader/writer streams.
// It is used with --plain and whenever output is not a terminal.
type Console struct {
	out io.Writer

	mu sync.Mutex // guards writes to out

	lines chan string
	ready chan struct{}
	done  chan struct{}

	// scanErr is set before lines is closed.
	scanErr error

	quitOnce sync.Once
}

// NewConsole reads input lines from in and writes everything to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{
		out:   out,
		lines: make(chan string),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
	close(c.ready)
	go c.scan(in)
	return c
}

func (c *Console) scan(in io.Reader) {
	defer close(c.lines)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		select {
		case c.lines <- scanner.Text():
		case <-c.done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		c.scanErr = errors.Wrap(err, "read input")
		logger.KV(xlog.ERROR, "reason", "scan", "err", err.Error())
	}
}

// Start blocks until Quit is called.
func (c *Console) Start() error {
	<-c.done
	return nil
}

func (c *Console) Ready() <-chan struct{} {
	return c.ready
}

func (c *Console) Quit() {
	c.quitOnce.Do(func() { close(c.done) })
}

// ReadInput prints prompt and waits for one line. It returns io.EOF when
// input is exhausted and the read error when a line could not be read.
func (c *Console) ReadInput(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	fmt.Fprintf(c.out, "\n%s", prompt)
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", io.EOF
	case line, ok := <-c.lines:
		if !ok {
			if c.scanErr != nil {
				c.println(fmt.Sprintf("\nError: %v", c.scanErr))
				return "", c.scanErr
			}
			return "", io.EOF
		}
		return line, nil
	}
}

// WriteStatus is a no-op; the console has no status bar.
func (c *Console) WriteStatus(phase string, message string) {}

func (c *Console) WriteMessage(content string) {
	c.println("\n" + content)
}

func (c *Console) WriteNotice(content string) {
	c.println(content)
}

func (c *Console) WriteTool(content string, isError bool) {
	c.println("\n" + content)
}

func (c *Console) SetModel(model string) {}

func (c *Console) SetTools(names []string) {}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
