package engine

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/aurras-cli/aurras/log"
)

// registration is one callback bound to an observed property.
type registration struct {
	id int
	cb PropertyCallback
}

// eventListener owns the persistent IPC connection used for property-change
// notifications and dispatches them to subscribed callbacks.
type eventListener struct {
	mpv    *MPV
	conn   net.Conn
	stopCh chan struct{}

	mu        sync.Mutex
	listening bool
	nextID    int
	subs      map[string][]*registration
}

func newEventListener(mpv *MPV) *eventListener {
	return &eventListener{
		mpv:    mpv,
		stopCh: make(chan struct{}),
		nextID: 1,
		subs:   make(map[string][]*registration),
	}
}

// subscribe registers a property observer with mpv and tracks the callback.
// The read loop is started lazily with the first subscriber.
func (el *eventListener) subscribe(property string, cb PropertyCallback) (*Subscription, error) {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		conn, err := net.Dial("unix", el.mpv.socketPath)
		if err != nil {
			return nil, fmt.Errorf("event listener connect: %w", err)
		}
		el.conn = conn
		el.listening = true
		go el.readLoop()
	}

	id := el.nextID
	el.nextID++

	// observe_property <id> <property>: mpv notifies on every change.
	if _, err := doSendCommand(el.mpv.socketPath, []interface{}{"observe_property", id, property}); err != nil {
		return nil, fmt.Errorf("observe %s: %w", property, err)
	}

	reg := &registration{id: id, cb: cb}
	el.subs[property] = append(el.subs[property], reg)

	return NewSubscription(property, func() error {
		return el.unsubscribe(property, reg)
	}), nil
}

// unsubscribe drops the callback and unobserves the property with mpv.
// A failed unobserve during shutdown is not an error.
func (el *eventListener) unsubscribe(property string, reg *registration) error {
	el.mu.Lock()
	regs := el.subs[property]
	for i, r := range regs {
		if r == reg {
			el.subs[property] = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	el.mu.Unlock()

	if el.mpv.shuttingDown() {
		return nil
	}

	if _, err := doSendCommand(el.mpv.socketPath, []interface{}{"unobserve_property", reg.id}); err != nil {
		return fmt.Errorf("unobserve %s: %w", property, err)
	}
	return nil
}

// stop terminates the read loop and closes the persistent connection.
func (el *eventListener) stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}

	close(el.stopCh)
	if el.conn != nil {
		el.conn.Close()
	}
	el.listening = false
}

// readLoop continuously reads events from the persistent mpv connection.
// mpv sends newline-delimited JSON events when observed properties change.
func (el *eventListener) readLoop() {
	defer func() {
		el.mu.Lock()
		el.listening = false
		el.mu.Unlock()
	}()

	buf := make([]byte, 4096)
	var remainder []byte

	for {
		select {
		case <-el.stopCh:
			return
		default:
		}

		if err := el.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}

		n, err := el.conn.Read(buf)
		if err != nil {
			if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline") {
				continue // timeout is normal, keep listening
			}
			if !el.mpv.shuttingDown() {
				log.Warnf("event listener read error: %v", err)
			}
			return
		}

		data := append(remainder, buf[:n]...)
		remainder = nil

		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			// Last incomplete line goes to the remainder for the next read.
			if i == len(lines)-1 && !strings.HasSuffix(string(data), "\n") {
				remainder = []byte(line)
				continue
			}

			el.processEvent(line)
		}
	}
}

// processEvent parses and dispatches a single mpv event JSON line.
func (el *eventListener) processEvent(line string) {
	var event map[string]interface{}
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return // skip unparseable lines
	}

	eventType, _ := event["event"].(string)
	switch eventType {
	case "property-change":
		name, _ := event["name"].(string)
		if name == "" {
			return
		}
		el.dispatch(name, event["data"])
	case "shutdown":
		// The engine is tearing down on its own (e.g. external quit); flip the
		// shutdown flag so pending commands degrade instead of hanging.
		el.mpv.terminating.Store(true)
	}
}

// dispatch invokes every callback subscribed to the property. Callbacks are
// copied out under the lock and invoked outside it so a slow callback cannot
// stall subscription management.
func (el *eventListener) dispatch(property string, value interface{}) {
	el.mu.Lock()
	regs := make([]*registration, len(el.subs[property]))
	copy(regs, el.subs[property])
	el.mu.Unlock()

	for _, reg := range regs {
		reg.cb(property, value)
	}
}
