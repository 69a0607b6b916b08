package engine

import (
	"encoding/json"
	"net"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeSocket serves a single IPC exchange: it reads one newline-delimited
// command and writes the canned response.
func fakeSocket(t *testing.T, response string) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "aurras-test.sock")
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 4096)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		_, _ = conn.Write([]byte(response + "\n"))
	}()

	return socketPath
}

func TestIPC(t *testing.T) {
	Convey("doSendCommand", t, func() {
		Convey("Should return the data field on success", func() {
			socketPath := fakeSocket(t, `{"data":130,"error":"success"}`)

			data, err := doSendCommand(socketPath, []interface{}{"get_property", "volume"})
			So(err, ShouldBeNil)
			So(data, ShouldEqual, float64(130))
		})

		Convey("Should surface mpv errors", func() {
			socketPath := fakeSocket(t, `{"error":"property not found"}`)

			_, err := doSendCommand(socketPath, []interface{}{"get_property", "nope"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "property not found")
		})

		Convey("Should send newline-delimited command JSON", func() {
			socketPath := filepath.Join(t.TempDir(), "echo.sock")
			ln, err := net.Listen("unix", socketPath)
			So(err, ShouldBeNil)
			defer ln.Close()

			received := make(chan []byte, 1)
			go func() {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				defer conn.Close()

				buf := make([]byte, 4096)
				n, _ := conn.Read(buf)
				received <- buf[:n]
				_, _ = conn.Write([]byte(`{"error":"success"}` + "\n"))
			}()

			_, err = doSendCommand(socketPath, []interface{}{"seek", 10.0, "relative"})
			So(err, ShouldBeNil)

			raw := <-received
			So(raw[len(raw)-1], ShouldEqual, byte('\n'))

			var cmd ipcCommand
			So(json.Unmarshal(raw[:len(raw)-1], &cmd), ShouldBeNil)
			So(cmd.Command[0], ShouldEqual, "seek")
		})
	})
}

func TestMPVShutdown(t *testing.T) {
	Convey("MPV shutdown behavior", t, func() {
		mpv := New()
		mpv.terminating.Store(true)

		Convey("sendCommand should refuse with ErrShutdown", func() {
			_, err := mpv.sendCommand([]interface{}{"get_property", "volume"})
			So(err, ShouldEqual, ErrShutdown)
		})

		Convey("GetPropertyOr should degrade to the default", func() {
			So(mpv.GetPropertyOr("time-pos", 0.0), ShouldEqual, 0.0)
			So(mpv.GetPropertyOr("pause", true), ShouldEqual, true)
		})
	})
}

func TestSubscription(t *testing.T) {
	Convey("Subscription", t, func() {
		Convey("Should cancel exactly once", func() {
			calls := 0
			sub := NewSubscription("pause", func() error {
				calls++
				return nil
			})

			So(sub.Unsubscribe(), ShouldBeNil)
			So(sub.Unsubscribe(), ShouldBeNil)
			So(calls, ShouldEqual, 1)
			So(sub.Property(), ShouldEqual, "pause")
		})
	})
}

func TestEventDispatch(t *testing.T) {
	Convey("eventListener", t, func() {
		mpv := New()
		el := newEventListener(mpv)

		Convey("Should dispatch property-change events to subscribers", func() {
			var gotProperty string
			var gotValue interface{}

			reg := &registration{id: 1, cb: func(property string, value interface{}) {
				gotProperty = property
				gotValue = value
			}}
			el.subs["pause"] = append(el.subs["pause"], reg)

			el.processEvent(`{"event":"property-change","id":1,"name":"pause","data":true}`)

			So(gotProperty, ShouldEqual, "pause")
			So(gotValue, ShouldEqual, true)
		})

		Convey("Should ignore unparseable lines", func() {
			So(func() { el.processEvent("not json at all") }, ShouldNotPanic)
		})

		Convey("Should flip the shutdown flag on a shutdown event", func() {
			el.processEvent(`{"event":"shutdown"}`)
			So(mpv.shuttingDown(), ShouldBeTrue)
		})

		Convey("Should stop dispatching after unsubscribe", func() {
			calls := 0
			reg := &registration{id: 2, cb: func(string, interface{}) { calls++ }}
			el.subs["duration"] = append(el.subs["duration"], reg)
			mpv.terminating.Store(true) // skip the unobserve round trip

			So(el.unsubscribe("duration", reg), ShouldBeNil)
			el.processEvent(`{"event":"property-change","name":"duration","data":194.5}`)
			So(calls, ShouldEqual, 0)
		})
	})
}
