// internal/tui/highlight_test.go
package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbdeck/dbdeck/internal/cred"
)

func TestHighlightEditorPreservesExistingEscapes(t *testing.T) {
	cursor := "\x1b[7m"
	view := "SELECT " + cursor + "i" + "\x1b[0m" + "d FROM users"

	out := highlightEditor(view)

	assert.Contains(t, out, cursor, "cursor escape must pass through untouched")
	assert.Contains(t, out, fgKeyword+"SELECT"+fgReset)
	assert.Contains(t, out, fgKeyword+"FROM"+fgReset)
}

func TestHighlightEditorColorsTokens(t *testing.T) {
	out := highlightEditor("SELECT * FROM t WHERE name = 'bob' AND n > 42")

	assert.Contains(t, out, fgStar+"*"+fgReset)
	assert.Contains(t, out, fgString+"'bob'"+fgReset)
	assert.Contains(t, out, fgNumber+"42"+fgReset)
	assert.NotContains(t, out, fgKeyword+"name")
}

func TestHighlightEditorLeavesIdentifiersAlone(t *testing.T) {
	out := highlightEditor("order_date")
	assert.Equal(t, "order_date", out)
}

func TestHighlightSQLFallsBackOnPlainInput(t *testing.T) {
	// Whatever chroma does with it, the text content must survive.
	out := HighlightSQL("SELECT 1")
	stripped := stripEscapes(out)
	assert.Equal(t, "SELECT 1", stripped)
}

func stripEscapes(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' {
			i = ansiEnd(s, i)
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func TestLimitStringKeepsEnds(t *testing.T) {
	assert.Equal(t, "short", limitString("short", 10))
	got := limitString("averyverylongidentifier", 11)
	assert.LessOrEqual(t, len(got), 11)
	assert.True(t, strings.HasPrefix(got, "aver"))
	assert.True(t, strings.HasSuffix(got, "fier"))
	assert.Contains(t, got, "...")
}

func TestCalculateColumnWidthsPadsWidest(t *testing.T) {
	widths := calculateColumnWidths(
		[]string{"id", "name"},
		[][]string{{"1", "a"}, {"12345", "bb"}},
	)
	assert.Equal(t, 7, widths["id"], "widest value plus padding")
	assert.Equal(t, 6, widths["name"], "header wins when values are shorter")
}

func TestPrompterRoundTrip(t *testing.T) {
	p := NewPrompter()

	type result struct {
		secret string
		err    error
	}
	got := make(chan result, 1)
	go func() {
		secret, err := p.Prompt(context.Background(), cred.PromptRequest{ProfileName: "staging"})
		got <- result{secret, err}
	}()

	select {
	case req := <-p.requests:
		assert.Equal(t, "staging", req.req.ProfileName)
		req.reply <- promptReply{secret: "hunter2"}
	case <-time.After(2 * time.Second):
		t.Fatal("prompt request never arrived")
	}

	select {
	case res := <-got:
		require.NoError(t, res.err)
		assert.Equal(t, "hunter2", res.secret)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt never returned")
	}
}

func TestPrompterCancelledContext(t *testing.T) {
	p := NewPrompter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nobody is listening; the cancelled context must unblock the call.
	_, err := p.Prompt(ctx, cred.PromptRequest{ProfileName: "gone"})
	require.ErrorIs(t, err, cred.ErrPromptCancelled)
}
