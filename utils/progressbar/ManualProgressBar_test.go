package progressbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualProgressBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewManualProgressBar(&buf, 10, 4)

	assert.Equal(t, 0.0, p.Progress())
	assert.Contains(t, p.String(), "[0.00%")

	p.Increment()
	p.Increment()
	assert.Equal(t, 0.5, p.Progress())
	assert.Equal(t, 5, strings.Count(p.String(), "█"))

	for i := 0; i < 10; i++ {
		p.Increment()
	}
	assert.Equal(t, 1.0, p.Progress())
	assert.Contains(t, p.String(), "[100.00%")

	p.Display()
	p.Close()
	assert.Contains(t, buf.String(), "\033[K|")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestManualProgressBarEmpty(t *testing.T) {
	p := NewManualProgressBar(&bytes.Buffer{}, 10, 0)
	p.Increment()
	assert.Equal(t, 1.0, p.Progress())
}
