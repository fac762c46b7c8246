package x11

import (
	"encoding/binary"
	"log"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

// ErrNoSuchWindow reports that the queried window is gone. Callers normally
// treat it as "nothing to do" rather than a failure.
var ErrNoSuchWindow = errors.New("window does not exist")

const (
	atomNetActiveWindow = "_NET_ACTIVE_WINDOW"
	atomNetWmPid        = "_NET_WM_PID"
)

// Property is the decoded result of a window property query. A nil *Property
// with a nil error means the property is cleanly absent from the window.
type Property struct {
	Type     xproto.Atom
	Format   byte
	NumItems uint32
	Value    []byte
}

// Client wraps the X connection. Atoms are interned once at connect time and
// cached for the life of the connection.
type Client struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// NewClient opens the default display and interns the atoms this program
// consumes. Failure here is fatal to the caller: without a display connection
// there is nothing to watch.
func NewClient() (*Client, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to X display")
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	c := &Client{
		conn:  conn,
		root:  root,
		atoms: make(map[string]xproto.Atom),
	}

	for _, name := range []string{atomNetActiveWindow, atomNetWmPid} {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		c.atoms[name] = reply.Atom
	}

	return c, nil
}

// Root returns the root window of the default screen.
func (c *Client) Root() xproto.Window {
	return c.root
}

// FetchProperty reads the full value of the named property on window. It
// requests an unrestricted length so the whole value arrives in one round
// trip. A property the window does not carry yields (nil, nil); a window that
// no longer exists yields ErrNoSuchWindow.
func (c *Client) FetchProperty(window xproto.Window, name string) (*Property, error) {
	atom, ok := c.atoms[name]
	if !ok {
		reply, err := xproto.InternAtom(c.conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		atom = reply.Atom
		c.atoms[name] = atom
	}

	reply, err := xproto.GetProperty(c.conn, false, window, atom,
		xproto.GetPropertyTypeAny, 0, ^uint32(0)).Reply()
	if err != nil {
		if _, ok := err.(xproto.WindowError); ok {
			return nil, errors.Wrapf(ErrNoSuchWindow, "window 0x%x", window)
		}
		return nil, errors.Wrapf(err, "GetProperty %s on window 0x%x failed", name, window)
	}

	if reply.Format == 0 {
		// Property not set on this window.
		return nil, nil
	}

	return &Property{
		Type:     reply.Type,
		Format:   reply.Format,
		NumItems: reply.ValueLen,
		Value:    reply.Value,
	}, nil
}

// ActiveWindow resolves the window manager's currently active window from the
// root window. The bool is false when no active window can be determined.
func (c *Client) ActiveWindow() (xproto.Window, bool) {
	prop, err := c.FetchProperty(c.root, atomNetActiveWindow)
	if err != nil {
		log.Printf("Failed to query active window: %v", err)
		return 0, false
	}
	if prop == nil {
		return 0, false
	}

	id, ok := decodeCardinal(prop)
	if !ok {
		log.Printf("Could not get active window")
		return 0, false
	}
	if id == 0 {
		// The WM sets the property to None when nothing has focus.
		return 0, false
	}
	return xproto.Window(id), true
}

// OwningProcess resolves the _NET_WM_PID of window. Windows without the
// property (desktop backgrounds, WM decorations) yield false without noise.
func (c *Client) OwningProcess(window xproto.Window) (int, bool) {
	prop, err := c.FetchProperty(window, atomNetWmPid)
	if err != nil {
		log.Printf("Failed to query PID of owner of window 0x%x: %v", window, err)
		return 0, false
	}
	if prop == nil {
		return 0, false
	}

	pid, ok := decodeCardinal(prop)
	if !ok {
		log.Printf("Could not get PID of owner of window 0x%x", window)
		return 0, false
	}
	if pid == 0 {
		return 0, false
	}
	return int(pid), true
}

// ActivePID resolves the owning process of the currently active window.
func (c *Client) ActivePID() (int, bool) {
	window, ok := c.ActiveWindow()
	if !ok {
		return 0, false
	}
	return c.OwningProcess(window)
}

// Subscribe registers for property-change notifications on the root window.
func (c *Client) Subscribe() error {
	err := xproto.ChangeWindowAttributesChecked(c.conn, c.root,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		return errors.Wrap(err, "failed to subscribe to root window property changes")
	}
	return nil
}

// WaitFocusChange blocks until the root window's active-window property takes
// a new value. It returns false when the connection has been closed.
func (c *Client) WaitFocusChange() (bool, error) {
	active := c.atoms[atomNetActiveWindow]
	for {
		event, xerr := c.conn.WaitForEvent()
		if event == nil && xerr == nil {
			return false, nil
		}
		if xerr != nil {
			// Asynchronous X errors are not tied to our property queries;
			// report and keep listening.
			log.Printf("X error event: %v", xerr)
			continue
		}

		prop, ok := event.(xproto.PropertyNotifyEvent)
		if !ok {
			continue
		}
		if prop.Atom != active || prop.State != xproto.PropertyNewValue {
			continue
		}
		return true, nil
	}
}

// Close shuts down the X connection, unblocking any WaitFocusChange caller.
func (c *Client) Close() {
	c.conn.Close()
}

// decodeCardinal interprets the first item of a 32-bit property value.
// Short or malformed values are reported as absent, never as a crash.
func decodeCardinal(prop *Property) (uint32, bool) {
	if prop == nil || prop.NumItems == 0 || len(prop.Value) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(prop.Value), true
}
