package report

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	require.NoError(t, s.Report("Tasks:\n\tsysworkq\n"))
	assert.Equal(t, "Tasks:\n\tsysworkq\n", buf.String())
}

func TestWriterSinkError(t *testing.T) {
	s := NewWriterSink(failingWriter{})
	err := s.Report("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestWriterSinkConcurrentReportsDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Report("Tasks:\n\ta\n\tb\n")
		}()
	}
	wg.Wait()

	assert.Equal(t, bytes.Repeat([]byte("Tasks:\n\ta\n\tb\n"), 50), buf.Bytes())
}

func TestLogSink(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewLogSink(logger.WithField("sink", "test"))

	require.NoError(t, s.Report("Tasks:\n\tsysworkq\n\n\tbutton\n"))

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, "Tasks:", entries[0].Message)
	assert.Equal(t, "sysworkq", entries[1].Message)
	assert.Equal(t, "button", entries[2].Message)
	assert.Equal(t, log.InfoLevel, entries[0].Level)
	assert.Equal(t, "test", entries[0].Data["sink"])
}

func TestMultiTriesEverySink(t *testing.T) {
	bad := NewRecorder()
	bad.Err = errors.New("refused")
	good := NewRecorder()

	err := Multi{bad, good}.Report("hello")
	assert.EqualError(t, err, "refused")
	assert.Equal(t, []string{"hello"}, good.Reports())
	assert.Empty(t, bad.Reports())
}

func TestRecorderReset(t *testing.T) {
	r := NewRecorder()
	r.Report("a")
	r.Reset()
	assert.Empty(t, r.Reports())
}
