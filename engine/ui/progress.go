package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/spaghettifunk/showroom/engine/math"
)

const (
	DefaultBarWidth = 40

	filledCell = "█"
	emptyCell  = "░"
	// carriage return plus erase-line, so the bar redraws in place
	clearLine = "\r\x1b[2K"
)

/**
 * @brief A single-line loading bar drawn on a terminal. Satisfies the
 * loading orchestrator's progress UI; safe to call from any goroutine.
 */
type ProgressBar struct {
	mu     sync.Mutex
	out    io.Writer
	width  int
	label  string
	drawn  bool
	value  int
	hidden bool

	labelStyle  lipgloss.Style
	filledStyle lipgloss.Style
	emptyStyle  lipgloss.Style
	valueStyle  lipgloss.Style
}

func NewProgressBar(out io.Writer, label string, width int) *ProgressBar {
	if width <= 0 {
		width = DefaultBarWidth
	}
	r := lipgloss.NewRenderer(out)
	return &ProgressBar{
		out:         out,
		width:       width,
		label:       label,
		labelStyle:  r.NewStyle().Bold(true).PaddingRight(1),
		filledStyle: r.NewStyle().Foreground(lipgloss.Color("#7D56F4")),
		emptyStyle:  r.NewStyle().Foreground(lipgloss.Color("240")),
		valueStyle:  r.NewStyle().Width(5).Align(lipgloss.Right),
	}
}

// SetPercentage redraws the bar. Values are clamped to [0,100]; repeated
// values and calls after Hide are ignored.
func (pb *ProgressBar) SetPercentage(percentage int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	percentage = math.Clamp(percentage, 0, 100)
	if pb.hidden || (pb.drawn && percentage == pb.value) {
		return
	}
	pb.value = percentage
	pb.drawn = true
	fmt.Fprint(pb.out, clearLine+pb.render())
}

// Hide erases the bar. Only the first call has an effect.
func (pb *ProgressBar) Hide() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.hidden {
		return
	}
	pb.hidden = true
	if pb.drawn {
		fmt.Fprint(pb.out, clearLine)
	}
}

func (pb *ProgressBar) Percentage() int {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.value
}

func (pb *ProgressBar) Hidden() bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.hidden
}

func (pb *ProgressBar) render() string {
	filled := pb.width * pb.value / 100
	bar := pb.filledStyle.Render(strings.Repeat(filledCell, filled)) +
		pb.emptyStyle.Render(strings.Repeat(emptyCell, pb.width-filled))
	value := pb.valueStyle.Render(fmt.Sprintf("%d%%", pb.value))

	if pb.label == "" {
		return bar + value
	}
	return pb.labelStyle.Render(pb.label) + bar + value
}
