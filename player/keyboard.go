package player

import (
	"errors"
	"io"
	"os"
	"strconv"

	"github.com/muesli/cancelreader"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/aurras-cli/aurras/engine"
	"github.com/aurras-cli/aurras/key"
	"github.com/aurras-cli/aurras/log"
	"github.com/aurras-cli/aurras/style"
	"github.com/aurras-cli/aurras/util"
)

// Logical names the reader produces for non-printable input.
const (
	keyEscape    = "esc"
	keySpace     = "space"
	keyRight     = "right"
	keyLeft      = "left"
	keyInterrupt = "ctrl+c"
)

const volumeStep = 5

// maxJumpDigits bounds the jump buffer; nobody jumps 1000 tracks.
const maxJumpDigits = 3

// startKeyboard switches the terminal into raw mode and spawns the reader
// goroutine. The returned stop function restores the terminal. When stdin is
// not a terminal (tests, pipes) the keyboard is disabled and stop is a no-op.
func (c *Controller) startKeyboard() (stop func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, err
	}

	// The cancelable reader lets stop unblock a pending stdin read instead of
	// leaving the goroutine parked until one more keypress.
	reader, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		_ = term.Restore(fd, oldState)
		return func() {}, err
	}

	go c.readKeys(reader)

	return func() {
		reader.Cancel()
		if err := term.Restore(fd, oldState); err != nil {
			log.Warnf("restoring terminal: %v", err)
		}
	}, nil
}

// readKeys reads input until the reader is cancelled or fails. Each keypress
// is handled synchronously before the next read.
func (c *Controller) readKeys(in io.Reader) {
	buf := make([]byte, 8)
	for {
		n, err := in.Read(buf)
		if err != nil {
			return
		}
		if k := decodeKey(buf[:n]); k != "" {
			c.handleKey(k)
		}
	}
}

// decodeKey maps a raw input chunk onto a logical key name. Arrow keys arrive
// as three-byte escape sequences; a lone escape byte is the escape key itself.
func decodeKey(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	if b[0] == 0x1b {
		if len(b) >= 3 && b[1] == '[' {
			switch b[2] {
			case 'C':
				return keyRight
			case 'D':
				return keyLeft
			}
			return ""
		}
		return keyEscape
	}

	switch b[0] {
	case 0x03:
		return keyInterrupt
	case ' ':
		return keySpace
	}

	if b[0] >= 0x21 && b[0] <= 0x7e {
		return string(b[0])
	}
	return ""
}

// handleKey executes the action bound to the key. A panic inside an action
// degrades to a logged warning so one bad keypress cannot kill the reader.
func (c *Controller) handleKey(k string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("key handler %q: %v", k, r)
		}
	}()

	if len(k) == 1 && k[0] >= '0' && k[0] <= '9' {
		c.accumulateJumpDigit(k)
		return
	}

	switch k {
	case keyInterrupt:
		c.requestStop(true)
		return
	case keyEscape:
		c.cancelJumpMode()
		return
	}

	switch k {
	case viper.GetString(key.KeyboardQuit):
		c.requestStop(false)
	case viper.GetString(key.KeyboardPause):
		if err := c.engine.TogglePause(); err != nil && !errors.Is(err, engine.ErrShutdown) {
			log.Warnf("toggling pause: %v", err)
		}
	case viper.GetString(key.KeyboardVolumeUp), "=":
		c.SetVolume(c.currentVolume() + volumeStep)
	case viper.GetString(key.KeyboardVolumeDown):
		c.SetVolume(c.currentVolume() - volumeStep)
	case viper.GetString(key.KeyboardToggleLyrics):
		c.toggleLyrics()
	case viper.GetString(key.KeyboardSeekForward), keyRight:
		c.seek(viper.GetFloat64(key.PlaybackSeekSeconds))
	case viper.GetString(key.KeyboardSeekBackward), keyLeft:
		c.seek(-viper.GetFloat64(key.PlaybackSeekSeconds))
	case viper.GetString(key.KeyboardNextTrack):
		c.executeJump(1)
	case viper.GetString(key.KeyboardPrevTrack):
		c.executeJump(-1)
	case viper.GetString(key.KeyboardSwitchTheme):
		c.cycleTheme()
	}
}

func (c *Controller) accumulateJumpDigit(digit string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.jumpMode = true
	if len(c.state.jumpDigits) < maxJumpDigits {
		c.state.jumpDigits += digit
	}
	c.setFeedbackLocked("jump", "Jump "+c.state.jumpDigits, FeedbackAction)
}

func (c *Controller) cancelJumpMode() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.jumpMode {
		return
	}
	c.state.jumpMode = false
	c.state.jumpDigits = ""
	c.setFeedbackLocked("jump", "Jump cancelled", FeedbackAction)
}

func (c *Controller) currentVolume() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *Controller) seek(deltaSeconds float64) {
	if err := c.engine.Seek(deltaSeconds); err != nil && !errors.Is(err, engine.ErrShutdown) {
		log.Warnf("seeking: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if deltaSeconds >= 0 {
		c.setFeedbackLocked("seek", "Seeked forward", FeedbackAction)
	} else {
		c.setFeedbackLocked("seek", "Seeked backward", FeedbackAction)
	}
}

// toggleLyrics flips lyric display. Enabling with settled metadata triggers a
// prefetch immediately; disabling cancels any in-flight lookup.
func (c *Controller) toggleLyrics() {
	c.mu.Lock()
	c.state.showLyrics = !c.state.showLyrics
	enabled := c.state.showLyrics
	c.lyrics.reset(enabled)
	ready := c.state.metadataReady
	meta := c.metadata
	if enabled {
		c.setFeedbackLocked("lyrics", "Lyrics on", FeedbackAction)
	} else {
		c.setFeedbackLocked("lyrics", "Lyrics off", FeedbackAction)
	}
	c.mu.Unlock()

	if enabled {
		if ready {
			c.pool.prefetch(meta.Title, meta.Artist, meta.knownAlbum(), meta.Duration)
		}
	} else {
		c.pool.cancelCurrent()
	}
}

// executeJump moves through the queue. Pending jump digits scale the step;
// without digits the move is a single track. The target is clamped to the
// queue, or wrapped when wrap_jump is enabled.
func (c *Controller) executeJump(direction int) {
	c.mu.Lock()
	digits := c.state.jumpDigits
	jumping := c.state.jumpMode
	c.state.jumpMode = false
	c.state.jumpDigits = ""
	current := c.state.currentIndex
	length := len(c.queue)
	c.mu.Unlock()

	if length == 0 {
		return
	}

	amount := 1
	if jumping && digits != "" {
		parsed, err := strconv.Atoi(digits)
		if err != nil {
			c.mu.Lock()
			c.setFeedbackLocked("jump", "Invalid jump count "+digits, FeedbackError)
			c.mu.Unlock()
			return
		}
		amount = parsed
	}

	target := current + direction*amount
	if viper.GetBool(key.PlaybackWrapJump) {
		target = ((target % length) + length) % length
	} else {
		target = util.Clamp(target, 0, length-1)
	}

	if target == current {
		return
	}

	if err := c.engine.PlayAt(target); err != nil && !errors.Is(err, engine.ErrShutdown) {
		log.Warnf("jumping to track %d: %v", target, err)
	}
}

// cycleTheme advances to the next theme and clears the renderer, since every
// cached render (wrapped lyrics included) is theme dependent.
func (c *Controller) cycleTheme() {
	theme := style.CycleTheme()

	c.mu.Lock()
	c.setFeedbackLocked("theme", "Theme "+theme.Name, FeedbackAction)
	c.mu.Unlock()

	c.renderer.Clear()
}
