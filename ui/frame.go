// Package ui renders playback snapshots into full terminal frames at the
// display loop's cadence. It only writes; input handling lives in the player.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/muesli/reflow/wordwrap"

	"github.com/aurras-cli/aurras/history"
	"github.com/aurras-cli/aurras/icon"
	"github.com/aurras-cli/aurras/player"
	"github.com/aurras-cli/aurras/style"
	"github.com/aurras-cli/aurras/util"
)

const (
	ansiHome      = "\x1b[H"
	ansiEraseDown = "\x1b[J"
	ansiEraseAll  = "\x1b[2J"

	fallbackWidth = 80
	queueWindow   = 7
	maxLyricLines = 12
)

// Frame is the player.Renderer used by the CLI.
type Frame struct {
	mu  sync.Mutex
	out io.Writer
	bar progress.Model

	// Wrapped lyric lines are cached per song, theme and width, since
	// reflowing a full lyric sheet at 4 Hz is wasted work.
	wrapKey   string
	wrapLines []string
}

// NewFrame creates a renderer writing to out. A nil out falls back to stdout.
func NewFrame(out io.Writer) *Frame {
	if out == nil {
		out = os.Stdout
	}
	return &Frame{
		out: out,
		bar: progress.New(progress.WithoutPercentage()),
	}
}

// Render draws one full frame from the snapshot.
func (f *Frame) Render(s *player.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	width, _, err := util.TerminalSize()
	if err != nil || width <= 0 {
		width = fallbackWidth
	}

	theme := style.Active()

	var b strings.Builder
	b.WriteString(ansiHome)

	f.writeHeader(&b, s, theme, width)
	f.writeProgress(&b, s, theme, width)
	f.writeStatusLine(&b, s, theme)
	f.writeQueue(&b, s, theme, width)
	if s.LyricsOn || s.Lyrics != player.LyricsDisabled {
		f.writeLyrics(&b, s, theme, width)
	}
	f.writeFeedback(&b, s, theme)

	b.WriteString(ansiEraseDown)
	fmt.Fprint(f.out, b.String())
}

// Clear erases the screen and drops cached renders. The player calls it on
// teardown and when the theme changes.
func (f *Frame) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.wrapKey = ""
	f.wrapLines = nil
	fmt.Fprint(f.out, ansiEraseAll+ansiHome)
}

func (f *Frame) writeHeader(b *strings.Builder, s *player.Snapshot, theme style.Theme, width int) {
	title := style.New().Bold(true).Foreground(theme.Primary).Render(
		style.Truncate(width - 8)(icon.Get(icon.Note) + " " + s.Song),
	)
	b.WriteString(title)

	if s.History.Loaded && s.History.Category != history.CategoryNew {
		b.WriteString("  ")
		b.WriteString(style.Tag(theme.Primary, theme.Dim)(string(s.History.Category)))
	}
	b.WriteString("\r\n")

	info := s.Artist
	if s.Album != "" && s.Album != "Unknown" {
		info += " · " + s.Album
	}
	b.WriteString(style.Fg(theme.Secondary)(style.Truncate(width - 2)(info)))
	b.WriteString("\r\n\r\n")
}

func (f *Frame) writeProgress(b *strings.Builder, s *player.Snapshot, theme style.Theme, width int) {
	elapsed := util.FormatDuration(s.Elapsed)
	total := util.FormatDuration(s.Duration)

	barWidth := width - len(elapsed) - len(total) - 6
	if barWidth < 10 {
		barWidth = 10
	}

	f.bar.Width = barWidth
	f.bar.FullColor = string(theme.Primary)
	f.bar.EmptyColor = string(theme.Dim)

	percent := 0.0
	if s.Duration > 0 {
		percent = s.Elapsed / s.Duration
		if percent > 1 {
			percent = 1
		}
	}

	fmt.Fprintf(b, "%s  %s  %s\r\n", style.Fg(theme.Secondary)(elapsed), f.bar.ViewAs(percent), style.Fg(theme.Secondary)(total))
}

func (f *Frame) writeStatusLine(b *strings.Builder, s *player.Snapshot, theme style.Theme) {
	statusIcon := icon.Get(icon.Stop)
	switch s.Status {
	case player.Playing:
		statusIcon = icon.Get(icon.Play)
	case player.Paused:
		statusIcon = icon.Get(icon.Pause)
	}

	line := fmt.Sprintf("%s %s   %s %d%%   %d/%d",
		statusIcon, s.Status,
		icon.Get(icon.Volume), s.Volume,
		s.Index+1, s.QueueLen,
	)

	if s.JumpDigits != "" {
		line += "   jump:" + s.JumpDigits
	}

	b.WriteString(style.Fg(theme.Accent)(line))
	b.WriteString("\r\n\r\n")
}

// writeQueue shows a window of songs around the current one. Entries before
// the queue start index came from history and are labeled as such.
func (f *Frame) writeQueue(b *strings.Builder, s *player.Snapshot, theme style.Theme, width int) {
	if len(s.SongNames) == 0 {
		return
	}

	from := s.Index - queueWindow/2
	if from < 0 {
		from = 0
	}
	to := from + queueWindow
	if to > len(s.SongNames) {
		to = len(s.SongNames)
		if from = to - queueWindow; from < 0 {
			from = 0
		}
	}

	for i := from; i < to; i++ {
		marker := "  "
		styled := style.Fg(theme.Dim)
		if i == s.Index {
			marker = icon.Get(icon.Play) + " "
			styled = style.Fg(theme.Primary)
		}

		label := ""
		if i < s.StartIndex {
			label = " " + style.Fg(theme.Dim)("["+icon.Get(icon.History)+" history]")
		}

		b.WriteString(marker + styled(style.Truncate(width-14)(s.SongNames[i])) + label)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
}

func (f *Frame) writeLyrics(b *strings.Builder, s *player.Snapshot, theme style.Theme, width int) {
	b.WriteString(style.Fg(theme.Secondary)(icon.Get(icon.Lyric) + " Lyrics"))
	b.WriteString("\r\n")

	for _, line := range f.wrappedLyrics(s, width) {
		b.WriteString("  " + style.Fg(theme.Dim)(line))
		b.WriteString("\r\n")
	}
}

func (f *Frame) wrappedLyrics(s *player.Snapshot, width int) []string {
	key := fmt.Sprintf("%s|%s|%d|%d", s.Song, style.Active().Name, width, s.Lyrics)
	if key == f.wrapKey {
		return f.wrapLines
	}

	wrapped := wordwrap.String(strings.Join(s.LyricLines, "\n"), width-4)
	lines := strings.Split(wrapped, "\n")
	if len(lines) > maxLyricLines {
		lines = lines[:maxLyricLines]
	}

	f.wrapKey = key
	f.wrapLines = lines
	return lines
}

func (f *Frame) writeFeedback(b *strings.Builder, s *player.Snapshot, theme style.Theme) {
	if s.Feedback == nil {
		return
	}

	prefix := icon.Get(icon.Success)
	color := theme.Accent
	if s.Feedback.Kind == player.FeedbackError {
		prefix = icon.Get(icon.Error)
		color = theme.ErrorFg
	}

	b.WriteString(style.Fg(color)(prefix + " " + s.Feedback.Description))
	b.WriteString("\r\n")
}
