package app

import (
	"bytes"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressUpdateMath(t *testing.T) {
	update := &ProgressUpdate{
		Completed:   250,
		Total:       1000,
		ElapsedTime: 10 * time.Second,
	}

	assert.Equal(t, 25, update.Percent())
	assert.InDelta(t, 25.0, update.Rate(), 0.001)

	// Rate and ETA come from the same quantity: 750 remaining at 25/s.
	assert.Equal(t, 30*time.Second, update.ETA())
}

func TestProgressUpdateZeroValues(t *testing.T) {
	update := &ProgressUpdate{}
	assert.Zero(t, update.Percent())
	assert.Zero(t, update.Rate())
	assert.Zero(t, update.ETA())

	update = &ProgressUpdate{Completed: 10, Total: 100}
	assert.Zero(t, update.ETA(), "no elapsed time means no estimate")
}

func TestConsoleProgressRendering(t *testing.T) {
	var buf bytes.Buffer
	render := ConsoleProgress(&buf)

	render(ProgressUpdate{Completed: 500, Total: 1000, ElapsedTime: 5 * time.Second})
	line := buf.String()
	assert.Contains(t, line, "\r")
	assert.Contains(t, line, "50%")
	assert.Contains(t, line, "500/1000")
	assert.NotContains(t, line, "trying")

	buf.Reset()
	render(ProgressUpdate{Completed: 1, Total: 10, ElapsedTime: time.Second, Message: "hunter2"})
	assert.Contains(t, buf.String(), `trying "hunter2"`)
}

func TestContextProgressCallback(t *testing.T) {
	ctx := NewContext()

	// No callback installed: reporting is a no-op.
	ctx.Progress(ProgressUpdate{Completed: 1, Total: 2})

	var got []ProgressUpdate
	ctx.SetProgress(func(update ProgressUpdate) {
		got = append(got, update)
	})
	ctx.Progress(ProgressUpdate{Completed: 7, Total: 10})

	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].Completed)
}

func TestNewAccessErrorClassification(t *testing.T) {
	err := NewAccessError("cannot open source", fmt.Errorf("open /dev/sdb: %w", fs.ErrPermission))
	assert.Equal(t, ErrCodePermission, err.Code)

	err = NewAccessError("cannot open source", fmt.Errorf("open gone.img: %w", fs.ErrNotExist))
	assert.Equal(t, ErrCodeSourceAccess, err.Code)

	err = NewAccessError("cannot open source", nil)
	assert.Equal(t, ErrCodeSourceAccess, err.Code)
}
