// Package wm speaks the i3-ipc binary protocol (also implemented by Sway)
// to read the focused window and subscribe to focus-change events.
package wm

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
)

const (
	magic = "i3-ipc"

	msgGetTree   = 4
	msgSubscribe = 2

	eventWindow uint32 = 0x80000003

	headerLen = 14
)

// FocusedWindow describes one focused-window observation, either from a
// synchronous tree query or a focus-change event.
type FocusedWindow struct {
	AppID string
	Title string
	PID   int
}

// Empty reports whether the query/event yielded nothing.
func (w FocusedWindow) Empty() bool {
	return w.AppID == "" && w.Title == "" && w.PID == 0
}

// IPC holds the two connections the window manager protocol needs: one
// for synchronous queries, one for the subscribed event stream. Either
// may be nil if Connect/SubscribeFocusEvents was never called or failed;
// callers treat that as "no window information available" rather than an
// error.
type IPC struct {
	queryConn net.Conn
	eventConn net.Conn
}

// New returns an unconnected IPC. Connect and SubscribeFocusEvents are
// both optional and independent.
func New() *IPC {
	return &IPC{}
}

func socketPath() (string, error) {
	for _, env := range []string{"SWAYSOCK", "I3SOCK"} {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}
	return "", errors.New("wm: neither SWAYSOCK nor I3SOCK is set")
}

// Connect opens the query connection. Failure leaves the IPC unusable but
// is not fatal to the caller.
func (w *IPC) Connect() error {
	path, err := socketPath()
	if err != nil {
		return err
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return fmt.Errorf("wm: connect: %w", err)
	}
	w.queryConn = conn
	return nil
}

// SubscribeFocusEvents opens a second connection and subscribes it to
// window events. It requires Connect to have succeeded first only in the
// sense that a socket path must resolve; the connections are otherwise
// independent.
func (w *IPC) SubscribeFocusEvents() error {
	path, err := socketPath()
	if err != nil {
		return err
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return fmt.Errorf("wm: connect event socket: %w", err)
	}

	if err := sendMessage(conn, msgSubscribe, []byte(`["window"]`)); err != nil {
		conn.Close()
		return fmt.Errorf("wm: subscribe: %w", err)
	}
	if _, _, err := recvMessage(conn); err != nil {
		conn.Close()
		return fmt.Errorf("wm: read subscribe ack: %w", err)
	}

	w.eventConn = conn
	return nil
}

// EventConn exposes the event connection for reactor registration; nil if
// SubscribeFocusEvents was never called or failed.
func (w *IPC) EventConn() net.Conn {
	return w.eventConn
}

// GetFocusedWindow walks the window tree once and returns the first node
// flagged focused, or an empty FocusedWindow if the query connection is
// unavailable or nothing is focused.
func (w *IPC) GetFocusedWindow() FocusedWindow {
	if w.queryConn == nil {
		return FocusedWindow{}
	}
	if err := sendMessage(w.queryConn, msgGetTree, nil); err != nil {
		return FocusedWindow{}
	}
	_, payload, err := recvMessage(w.queryConn)
	if err != nil {
		return FocusedWindow{}
	}

	var tree treeNode
	if err := json.Unmarshal(payload, &tree); err != nil {
		return FocusedWindow{}
	}
	return findFocused(tree)
}

// ReadEvent reads messages off the event connection, skipping any that
// are not focus-change events, and returns true with the newly focused
// window once a focus change arrives. It returns false only when there is
// no event connection or a read from it fails.
func (w *IPC) ReadEvent() (FocusedWindow, bool) {
	if w.eventConn == nil {
		return FocusedWindow{}, false
	}
	for {
		msgType, payload, err := recvMessage(w.eventConn)
		if err != nil {
			return FocusedWindow{}, false
		}
		if msgType != eventWindow {
			continue
		}

		var evt focusEvent
		if err := json.Unmarshal(payload, &evt); err != nil || evt.Change != "focus" {
			continue
		}

		return FocusedWindow{
			AppID: evt.Container.AppID,
			Title: evt.Container.Name,
			PID:   evt.Container.PID,
		}, true
	}
}

// Close tears down both connections, ignoring already-nil ones.
func (w *IPC) Close() {
	if w.queryConn != nil {
		w.queryConn.Close()
	}
	if w.eventConn != nil {
		w.eventConn.Close()
	}
}

type treeNode struct {
	Focused       bool       `json:"focused"`
	AppID         string     `json:"app_id"`
	Name          string     `json:"name"`
	PID           int        `json:"pid"`
	Nodes         []treeNode `json:"nodes"`
	FloatingNodes []treeNode `json:"floating_nodes"`
}

type focusEvent struct {
	Change    string `json:"change"`
	Container struct {
		AppID string `json:"app_id"`
		Name  string `json:"name"`
		PID   int    `json:"pid"`
	} `json:"container"`
}

func findFocused(node treeNode) FocusedWindow {
	if node.Focused {
		return FocusedWindow{AppID: node.AppID, Title: node.Name, PID: node.PID}
	}
	for _, child := range node.Nodes {
		if w := findFocused(child); !w.Empty() {
			return w
		}
	}
	for _, child := range node.FloatingNodes {
		if w := findFocused(child); !w.Empty() {
			return w
		}
	}
	return FocusedWindow{}
}

func sendMessage(conn net.Conn, msgType uint32, payload []byte) error {
	header := make([]byte, headerLen)
	copy(header[0:6], magic)
	binary.LittleEndian.PutUint32(header[6:10], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[10:14], msgType)

	if _, err := conn.Write(header); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := conn.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

func recvMessage(conn net.Conn) (msgType uint32, payload []byte, err error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(conn, header); err != nil {
		return 0, nil, err
	}
	if string(header[0:6]) != magic {
		return 0, nil, errors.New("wm: bad magic in reply header")
	}

	length := binary.LittleEndian.Uint32(header[6:10])
	msgType = binary.LittleEndian.Uint32(header[10:14])

	payload = make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(conn, payload); err != nil {
			return 0, nil, err
		}
	}
	return msgType, payload, nil
}
