package engine

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aurras-cli/aurras/log"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	terminateGrace    = 2 * time.Second
)

// Options configures the mpv child process.
type Options struct {
	// Volume is the initial volume level (0 to MaxVolume).
	Volume int
	// LogLevel is the message level passed to mpv (fatal/error/warn/info/debug).
	LogLevel string
	// RemoteMedia enables yt-dlp resolution of remote URLs.
	RemoteMedia bool
}

// MPV drives an mpv process through its JSON-IPC protocol.
type MPV struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when mpv process exits
	ipcMu      sync.Mutex    // protects socket command writes

	listener    *eventListener
	terminating atomic.Bool
	termOnce    sync.Once
}

// New creates an MPV engine handle (does not start the process).
func New() *MPV {
	return &MPV{
		exited: make(chan struct{}),
	}
}

// Attach binds a handle to the IPC socket of an engine owned by another
// process. The handle can query and control that instance but does not manage
// its lifecycle.
func Attach(socketPath string) *MPV {
	return &MPV{
		socketPath: socketPath,
		exited:     make(chan struct{}),
	}
}

// Start spawns the idle mpv process and waits for its IPC socket to accept commands.
func (m *MPV) Start(opts Options) error {
	if m.socketPath == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("aurras-%x.sock", randomBytes))
	}

	loglevel := opts.LogLevel
	if loglevel == "" {
		loglevel = "warn"
	}

	args := []string{
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--volume=%d", opts.Volume),
		fmt.Sprintf("--msg-level=all=%s", loglevel),
		"--audio-buffer=2.0",
		"--cache=yes",
	}

	if opts.RemoteMedia {
		args = append(args, "--ytdl=yes", "--ytdl-format=bestaudio")
	} else {
		args = append(args, "--ytdl=no")
	}

	m.cmd = exec.Command("mpv", args...)

	// Detach from the parent process group so terminal signals don't tear mpv down first.
	m.cmd.SysProcAttr = sysProcAttr()

	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	// Reap the process to prevent zombies.
	m.exited = make(chan struct{})
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		if m.cmd.Process != nil {
			select {
			case <-m.exited:
			default:
				log.Warnf("killing mpv: socket never became ready")
				_ = killProcess(m.cmd)
			}
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.listener = newEventListener(m)
	return nil
}

// Socket retrieves the identifier for the IPC channel.
func (m *MPV) Socket() string {
	return m.socketPath
}

// Done returns a channel that is closed when the mpv process exits.
func (m *MPV) Done() <-chan struct{} {
	return m.exited
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// shuttingDown reports whether commands should be refused with ErrShutdown.
func (m *MPV) shuttingDown() bool {
	if m.terminating.Load() {
		return true
	}
	select {
	case <-m.exited:
		return true
	default:
		return false
	}
}

// Append adds a URL to the end of the playlist without starting playback.
func (m *MPV) Append(url string) error {
	_, err := m.sendCommand([]interface{}{"loadfile", url, "append"})
	return err
}

// PlayAt starts playback of the playlist entry at the given index.
func (m *MPV) PlayAt(index int) error {
	return m.SetProperty("playlist-pos", index)
}

// Seek moves playback relative to the current position by the given number of seconds.
func (m *MPV) Seek(deltaSeconds float64) error {
	_, err := m.sendCommand([]interface{}{"seek", deltaSeconds, "relative"})
	return err
}

// TogglePause inverts the current playback suspension state.
func (m *MPV) TogglePause() error {
	_, err := m.sendCommand([]interface{}{"cycle", "pause"})
	return err
}

// GetProperty retrieves the current value of an engine property.
func (m *MPV) GetProperty(name string) (interface{}, error) {
	return m.sendCommand([]interface{}{"get_property", name})
}

// GetPropertyOr retrieves a property, degrading to the default on shutdown or
// any transient IPC failure. It never returns an error.
func (m *MPV) GetPropertyOr(name string, def interface{}) interface{} {
	if m.shuttingDown() {
		return def
	}
	value, err := m.GetProperty(name)
	if err != nil || value == nil {
		return def
	}
	return value
}

// SetProperty assigns a new value to an engine property.
func (m *MPV) SetProperty(name string, value interface{}) error {
	_, err := m.sendCommand([]interface{}{"set_property", name, value})
	return err
}

// Subscribe registers a callback for changes of the named property and returns
// the owned handle used to unregister it.
func (m *MPV) Subscribe(property string, cb PropertyCallback) (*Subscription, error) {
	if m.listener == nil {
		return nil, fmt.Errorf("engine not started")
	}
	return m.listener.subscribe(property, cb)
}

// Terminate shuts the engine down gracefully, then forcefully. Safe to call
// multiple times; subsequent calls are no-ops.
func (m *MPV) Terminate() error {
	m.termOnce.Do(func() {
		m.terminating.Store(true)

		if m.listener != nil {
			m.listener.stop()
		}

		// Best-effort graceful quit. The terminating flag is already set, so we
		// bypass sendCommand's shutdown guard with a direct write.
		if m.socketPath != "" {
			_, _ = doSendCommand(m.socketPath, []interface{}{"quit"})
		}

		if m.cmd == nil || m.cmd.Process == nil {
			return
		}

		select {
		case <-m.exited:
		case <-time.After(terminateGrace):
			log.Warnf("mpv did not quit within %s, killing", terminateGrace)
			_ = killProcess(m.cmd)
		}

		_ = os.Remove(m.socketPath)
	})
	return nil
}
