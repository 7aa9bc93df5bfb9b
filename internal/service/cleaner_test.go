package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestFileCleaner_InlineWhenStopped(t *testing.T) {
	r := &recordingRemover{}
	c := NewFileCleaner(r, zaptest.NewLogger(t), CleanerOptions{})
	c.Enqueue("uploads/a.pdf", "", "uploads/b.pdf")
	assert.Equal(t, []string{"uploads/a.pdf", "uploads/b.pdf"}, r.Deleted())
}

func TestFileCleaner_Retries(t *testing.T) {
	r := &recordingRemover{failures: 2}
	c := NewFileCleaner(r, zaptest.NewLogger(t), CleanerOptions{MaxAttempts: 3})
	var waits []time.Duration
	c.sleep = func(d time.Duration) { waits = append(waits, d) }

	c.Enqueue("uploads/a.pdf")
	assert.Equal(t, []string{"uploads/a.pdf"}, r.Deleted())
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, waits)
}

func TestFileCleaner_GivesUp(t *testing.T) {
	r := &recordingRemover{failures: 10}
	c := NewFileCleaner(r, zaptest.NewLogger(t), CleanerOptions{MaxAttempts: 2})
	c.sleep = func(time.Duration) {}

	c.Enqueue("uploads/a.pdf")
	assert.Empty(t, r.Deleted())
	assert.Equal(t, 2, r.calls)
}

func TestFileCleaner_WorkerDrainsOnStop(t *testing.T) {
	r := &recordingRemover{}
	c := NewFileCleaner(r, zaptest.NewLogger(t), CleanerOptions{QueueSize: 100})
	c.Start()
	c.Start()

	var want []string
	for i := 0; i < 50; i++ {
		p := fmt.Sprintf("uploads/resumes/%d.pdf", i)
		want = append(want, p)
		c.Enqueue(p)
	}
	c.Stop()
	c.Stop()

	assert.ElementsMatch(t, want, r.Deleted())

	c.Enqueue("uploads/after.pdf")
	assert.Contains(t, r.Deleted(), "uploads/after.pdf")
}
