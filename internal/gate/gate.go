// Package gate implements the interactive review gate: a line-oriented loop
// that collects sub-prompts from stdin between agent steps and ends the
// session when the reviewer submits an exit keyword, closes the stream, or
// interrupts the process.
//
// The stdout side is a protocol, not a UI. An orchestrating process scans the
// stream for lines starting with SubPromptMarker, so sub-prompt echoes carry
// no timestamp and no other decoration. All other output is a timestamped
// notice.
package gate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/thruflo/reviewgate/internal/logging"
)

// SubPromptMarker prefixes every echoed sub-prompt line. The orchestrator
// scans for this exact token; it must never be altered or localized.
const SubPromptMarker = "USER_REVIEW_SUB_PROMPT: "

// timestampLayout is the notice prefix format, local time.
const timestampLayout = "2006-01-02 15:04:05"

// Outcome indicates why the review session ended.
type Outcome int

const (
	OutcomeUnknown     Outcome = iota
	OutcomeClosed              // Input stream closed (EOF)
	OutcomeUserExit            // Reviewer submitted an exit keyword
	OutcomeInterrupted         // Interrupted while waiting for input
	OutcomeError               // Unexpected read or write failure
)

// String returns a human-readable description of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeClosed:
		return "closed"
	case OutcomeUserExit:
		return "user_exit"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a review session.
type Result struct {
	Outcome Outcome
	Keyword string // Matched exit keyword, original casing
	Prompts int    // Number of read attempts, including the terminating one
	Err     error  // Set when Outcome is OutcomeError
}

// Gate runs one review session over a line-oriented input/output pair.
type Gate struct {
	in  io.Reader
	out io.Writer
	now func() time.Time
	log *logging.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithLogger sets the logger for stderr diagnostics.
func WithLogger(log *logging.Logger) Option {
	return func(g *Gate) { g.log = log }
}

// New creates a Gate reading lines from in and emitting to out.
func New(in io.Reader, out io.Writer, opts ...Option) *Gate {
	g := &Gate{
		in:  in,
		out: out,
		now: time.Now,
		log: logging.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// lineEvent is one read attempt delivered by the reader goroutine.
// err is io.EOF when the stream closed cleanly.
type lineEvent struct {
	text string
	err  error
}

// Run executes the review loop until a terminal outcome is reached.
// Cancelling ctx while the loop waits for input ends the session with
// OutcomeInterrupted.
func (g *Gate) Run(ctx context.Context) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.banner()

	lines := make(chan lineEvent)
	go g.readLines(ctx, lines)

	prompts := 0
	for {
		prompts++
		select {
		case <-ctx.Done():
			g.notice("--- Review gate: interrupted. Exiting review for this step. ---")
			return Result{Outcome: OutcomeInterrupted, Prompts: prompts}
		case ev := <-lines:
			switch {
			case errors.Is(ev.err, io.EOF):
				g.notice("--- Review gate: input closed (EOF). Exiting review for this step. ---")
				return Result{Outcome: OutcomeClosed, Prompts: prompts}
			case ev.err != nil:
				g.notice(fmt.Sprintf("--- Review gate: error reading input: %v ---", ev.err))
				return Result{Outcome: OutcomeError, Prompts: prompts, Err: ev.err}
			}

			input := strings.TrimSpace(ev.text)
			if input == "" {
				g.notice(fmt.Sprintf("Review gate (prompt #%d): Waiting for input...", prompts))
				continue
			}

			if IsExitKeyword(input) {
				g.notice(fmt.Sprintf("--- Review gate: review for this step ended with keyword: %q (after %d prompts) ---", input, prompts))
				return Result{Outcome: OutcomeUserExit, Keyword: input, Prompts: prompts}
			}

			if err := g.emit(SubPromptMarker + input); err != nil {
				return Result{Outcome: OutcomeError, Prompts: prompts, Err: fmt.Errorf("failed to emit sub-prompt: %w", err)}
			}
		}
	}
}

// readLines feeds one event per input line, then a final event carrying
// io.EOF or the read error. It stops once ctx is cancelled. Lines are read
// with ReadString rather than a Scanner so sub-prompts have no length cap.
func (g *Gate) readLines(ctx context.Context, out chan<- lineEvent) {
	reader := bufio.NewReader(g.in)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			select {
			case out <- lineEvent{text: line}:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case out <- lineEvent{err: err}:
			case <-ctx.Done():
			}
			return
		}
	}
}

// banner prints the session opening, inviting either a sub-prompt or an
// exit keyword.
func (g *Gate) banner() {
	g.notice("Review gate: the current step's initial implementation is complete.")
	g.notice("Please provide your sub-prompt for iterative modifications for this step,")
	g.notice("or enter an exit keyword (e.g. '完成', 'next', 'task_complete', 'continue', 'ok') to finalize this step's review:")
}

// notice writes a timestamped line. Notice write failures cannot be reported
// through another notice, so they only surface on stderr.
func (g *Gate) notice(msg string) {
	line := "[" + g.now().Format(timestampLayout) + "] " + msg
	if err := g.emit(line); err != nil {
		g.log.Warn("failed to write notice", "err", err)
	}
}

type flusher interface {
	Flush() error
}

// emit writes one output line and flushes it so the orchestrator on the
// other end of a pipe observes it promptly.
func (g *Gate) emit(line string) error {
	if _, err := io.WriteString(g.out, line+"\n"); err != nil {
		return err
	}
	if f, ok := g.out.(flusher); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	return nil
}
