package gate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		expected string
	}{
		{OutcomeClosed, "closed"},
		{OutcomeUserExit, "user_exit"},
		{OutcomeInterrupted, "interrupted"},
		{OutcomeError, "error"},
		{OutcomeUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.outcome.String(); got != tt.expected {
				t.Errorf("Outcome.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// fixedClock pins timestamps so notice prefixes are assertable.
func fixedClock() func() time.Time {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local)
	return func() time.Time { return at }
}

func runGate(t *testing.T, input io.Reader) (Result, []string) {
	t.Helper()

	var buf bytes.Buffer
	g := New(input, &buf, WithClock(fixedClock()))
	result := g.Run(context.Background())

	return result, strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestGate_Run_SubPromptEcho(t *testing.T) {
	result, lines := runGate(t, strings.NewReader("please add more tests\n"))

	// Sub-prompt, then EOF ends the session
	assert.Equal(t, OutcomeClosed, result.Outcome)
	assert.Equal(t, 2, result.Prompts)

	assert.Contains(t, lines, "USER_REVIEW_SUB_PROMPT: please add more tests")
}

func TestGate_Run_SubPromptHasNoTimestamp(t *testing.T) {
	_, lines := runGate(t, strings.NewReader("  fix lint  \n"))

	var marker []string
	for _, line := range lines {
		if strings.Contains(line, SubPromptMarker) {
			marker = append(marker, line)
		}
	}

	require.Len(t, marker, 1)
	// The marker is the first token on the line and the input is trimmed
	assert.Equal(t, "USER_REVIEW_SUB_PROMPT: fix lint", marker[0])
}

func TestGate_Run_NoticesAreTimestamped(t *testing.T) {
	_, lines := runGate(t, strings.NewReader("hello\n"))

	for _, line := range lines {
		if strings.HasPrefix(line, SubPromptMarker) {
			continue
		}
		assert.True(t, strings.HasPrefix(line, "[2025-03-01 12:00:00] "),
			"notice %q should carry the timestamp prefix", line)
	}
}

func TestGate_Run_LatinKeywordCaseInsensitive(t *testing.T) {
	result, lines := runGate(t, strings.NewReader("task_COMPLETE\n"))

	assert.Equal(t, OutcomeUserExit, result.Outcome)
	assert.Equal(t, "task_COMPLETE", result.Keyword)
	assert.Equal(t, 1, result.Prompts)

	// Original casing is preserved in the notice
	assert.Contains(t, lines[len(lines)-1], `"task_COMPLETE"`)
}

func TestGate_Run_CJKKeywordExact(t *testing.T) {
	result, _ := runGate(t, strings.NewReader("完成\n"))

	assert.Equal(t, OutcomeUserExit, result.Outcome)
	assert.Equal(t, "完成", result.Keyword)
}

func TestGate_Run_CJKVariantDoesNotExit(t *testing.T) {
	result, lines := runGate(t, strings.NewReader("完成了\n"))

	assert.Equal(t, OutcomeClosed, result.Outcome)
	assert.Contains(t, lines, "USER_REVIEW_SUB_PROMPT: 完成了")
}

func TestGate_Run_EmptyLinesNeverExit(t *testing.T) {
	result, lines := runGate(t, strings.NewReader("\n   \n"))

	assert.Equal(t, OutcomeClosed, result.Outcome)
	assert.Equal(t, 3, result.Prompts)

	var waiting int
	for _, line := range lines {
		assert.NotContains(t, line, SubPromptMarker)
		if strings.Contains(line, "Waiting for input") {
			waiting++
		}
	}
	assert.Equal(t, 2, waiting)

	// The prompt counter keeps increasing across blank lines
	assert.Contains(t, strings.Join(lines, "\n"), "prompt #1")
	assert.Contains(t, strings.Join(lines, "\n"), "prompt #2")
}

func TestGate_Run_EOFImmediately(t *testing.T) {
	result, lines := runGate(t, strings.NewReader(""))

	assert.Equal(t, OutcomeClosed, result.Outcome)
	assert.Equal(t, 1, result.Prompts)
	assert.Contains(t, lines[len(lines)-1], "EOF")
}

func TestGate_Run_Scenario(t *testing.T) {
	// hello → sub-prompt, blank → waiting notice, 继续 → user exit
	result, lines := runGate(t, strings.NewReader("hello\n\n继续\n"))

	assert.Equal(t, OutcomeUserExit, result.Outcome)
	assert.Equal(t, "继续", result.Keyword)
	assert.Equal(t, 3, result.Prompts)

	assert.Contains(t, lines, "USER_REVIEW_SUB_PROMPT: hello")
	assert.Contains(t, strings.Join(lines, "\n"), "Waiting for input")
	assert.Contains(t, lines[len(lines)-1], `"继续"`)
	assert.Contains(t, lines[len(lines)-1], "after 3 prompts")
}

func TestGate_Run_LongSubPrompt(t *testing.T) {
	// Sub-prompts have no length cap; a line well past any scanner token
	// limit must still be echoed, not end the session.
	long := strings.Repeat("a", 70_000)
	result, lines := runGate(t, strings.NewReader(long+"\ndone\n"))

	assert.Equal(t, OutcomeUserExit, result.Outcome)
	assert.Equal(t, 2, result.Prompts)
	assert.Contains(t, lines, SubPromptMarker+long)
}

func TestGate_Run_FinalLineWithoutNewline(t *testing.T) {
	result, lines := runGate(t, strings.NewReader("last words"))

	assert.Equal(t, OutcomeClosed, result.Outcome)
	assert.Contains(t, lines, "USER_REVIEW_SUB_PROMPT: last words")
}

func TestGate_Run_Interrupted(t *testing.T) {
	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())

	var buf bytes.Buffer
	g := New(in, &buf, WithClock(fixedClock()))

	done := make(chan Result, 1)
	go func() { done <- g.Run(ctx) }()

	cancel()

	select {
	case result := <-done:
		assert.Equal(t, OutcomeInterrupted, result.Outcome)
		assert.Contains(t, buf.String(), "interrupted")
	case <-time.After(5 * time.Second):
		t.Fatal("gate did not stop after cancellation")
	}
}

func TestGate_Run_ReadError(t *testing.T) {
	errBoom := errors.New("boom")
	in := io.MultiReader(strings.NewReader("hello\n"), iotest.ErrReader(errBoom))

	result, lines := runGate(t, in)

	assert.Equal(t, OutcomeError, result.Outcome)
	assert.ErrorIs(t, result.Err, errBoom)
	assert.Equal(t, 2, result.Prompts)
	assert.Contains(t, lines[len(lines)-1], "boom")
}

// failWriter errors on every write, exercising the emit error path.
type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("pipe gone")
}

func TestGate_Run_WriteError(t *testing.T) {
	g := New(strings.NewReader("hello\n"), failWriter{}, WithClock(fixedClock()))
	result := g.Run(context.Background())

	assert.Equal(t, OutcomeError, result.Outcome)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "pipe gone")
}

// flushWriter counts Flush calls, standing in for a buffered consumer pipe.
type flushWriter struct {
	bytes.Buffer
	flushes int
}

func (w *flushWriter) Flush() error {
	w.flushes++
	return nil
}

func TestGate_Run_FlushesEveryLine(t *testing.T) {
	var w flushWriter
	g := New(strings.NewReader("hello\n"), &w, WithClock(fixedClock()))
	g.Run(context.Background())

	written := strings.Count(w.String(), "\n")
	assert.Equal(t, written, w.flushes, "every emitted line should be flushed")
	assert.Greater(t, w.flushes, 0)
}
