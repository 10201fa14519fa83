package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressBarDrawsPercentage(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(&buf, "Loading", 10)

	pb.SetPercentage(42)
	out := buf.String()
	assert.Contains(t, out, "Loading")
	assert.Contains(t, out, "42%")
	assert.Equal(t, 4, strings.Count(out, filledCell))
	assert.Equal(t, 6, strings.Count(out, emptyCell))
	assert.Equal(t, 42, pb.Percentage())
}

func TestProgressBarClampsAndSkipsRepeats(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(&buf, "", 0)

	pb.SetPercentage(250)
	assert.Equal(t, 100, pb.Percentage())
	assert.Equal(t, DefaultBarWidth, strings.Count(buf.String(), filledCell))

	buf.Reset()
	pb.SetPercentage(100)
	assert.Empty(t, buf.String())

	pb.SetPercentage(-5)
	assert.Equal(t, 0, pb.Percentage())
	assert.Contains(t, buf.String(), "0%")
}

func TestProgressBarHideIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(&buf, "Loading", 10)
	pb.SetPercentage(99)

	buf.Reset()
	pb.Hide()
	assert.Equal(t, clearLine, buf.String())
	assert.True(t, pb.Hidden())

	buf.Reset()
	pb.Hide()
	pb.SetPercentage(100)
	assert.Empty(t, buf.String())
	assert.Equal(t, 99, pb.Percentage())
}

func TestHideBeforeAnyDrawWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(&buf, "Loading", 10)
	pb.Hide()
	assert.Empty(t, buf.String())
}
