package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quicksquad-chat/internal/widget"
)

// terminalRenderer prints transcript entries as they arrive.
type terminalRenderer struct {
	out io.Writer
	cfg widget.Config
}

func newTerminalRenderer(out io.Writer, cfg widget.Config) *terminalRenderer {
	return &terminalRenderer{out: out, cfg: cfg}
}

func (t *terminalRenderer) Append(e widget.Entry) {
	who := "You"
	if e.Who == widget.SpeakerBot {
		who = t.cfg.Title
	}
	fmt.Fprintf(t.out, "%s: %s\n", who, e.Text)
}

func (t *terminalRenderer) SetPending(pending bool) {
	if pending {
		fmt.Fprintln(t.out, "Assistant is typing ...")
	}
}

func (t *terminalRenderer) SetOpen(open bool) {
	if !open {
		fmt.Fprintln(t.out, "[chat closed, /open to reopen]")
		return
	}
	fmt.Fprintf(t.out, "== %s · %s ==\n", t.cfg.Title, t.cfg.Subtitle)
	for i, p := range t.cfg.QuickPrompts {
		fmt.Fprintf(t.out, "  /%d %s\n", i+1, p)
	}
	fmt.Fprintln(t.out, t.cfg.Disclaimer)
}

// repl reads one line per turn until EOF, /quit or ctx is done.
func repl(ctx context.Context, s *widget.Session, r *terminalRenderer, in io.Reader, out io.Writer) error {
	s.Open()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "/quit":
			return nil
		case line == "/open":
			s.Open()
		case line == "/close":
			s.Close()
		case strings.HasPrefix(line, "/"):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "/"))
			if err != nil {
				fmt.Fprintf(out, "unknown command %q\n", line)
				continue
			}
			if n < 1 || n > len(r.cfg.QuickPrompts) {
				fmt.Fprintln(out, "no such quick prompt")
				continue
			}
			// Failures are already shown in the transcript.
			_ = s.QuickPrompt(ctx, n-1)
		default:
			if !s.IsOpen() {
				s.Open()
			}
			// Blank input is ErrEmptyMessage; other failures show the fallback.
			_ = s.Submit(ctx, line)
		}
	}
	return scanner.Err()
}
