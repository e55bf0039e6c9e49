package protocol

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPort is the control port the soundbar listens on.
const DefaultPort = 9741

const (
	// maxPacketSize bounds a single inbound frame. Real payloads are a few
	// hundred bytes; anything larger means a desynced stream.
	maxPacketSize = 1 << 16

	writeTimeout = 5 * time.Second
)

// Client speaks the soundbar control protocol over a single TCP connection.
// Packets are JSON documents framed with a 4-byte big-endian length prefix.
// Every request is fire-and-forget; the device answers, if at all, with an
// unsolicited message on the same connection, delivered to the callback
// registered at dial time.
//
// The callback is invoked from a single goroutine, one message at a time,
// and never after Close returns.
type Client struct {
	conn    net.Conn
	onEvent func(Message)

	writeMu sync.Mutex
	closed  atomic.Bool
	done    chan struct{}
}

// Dial connects to a soundbar and starts the inbound read loop.
func Dial(ctx context.Context, host string, port int, onEvent func(Message)) (*Client, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &UnreachableError{Addr: addr, Err: err}
	}

	c := &Client{
		conn:    conn,
		onEvent: onEvent,
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection. The event callback does not fire after
// Close returns.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	err := c.conn.Close()
	// Wait for the read loop to exit so no callback is in flight.
	<-c.done
	return err
}

// GetProductInfo requests model and firmware identification.
func (c *Client) GetProductInfo() error {
	return c.send(Packet{Cmd: "get", Msg: MsgProductInfo})
}

// GetMACInfo requests the device MAC address block.
func (c *Client) GetMACInfo() error {
	return c.send(Packet{Cmd: "get", Msg: MsgMACInfo})
}

// GetEQ requests equaliser state (bass, treble, mode list, current mode).
func (c *Client) GetEQ() error {
	return c.send(Packet{Cmd: "get", Msg: MsgEQViewInfo})
}

// GetInfo requests volume range, current volume, function and power status.
func (c *Client) GetInfo() error {
	return c.send(Packet{Cmd: "get", Msg: MsgSpkListViewInfo})
}

// GetFunc requests the current function and the available function list.
func (c *Client) GetFunc() error {
	return c.send(Packet{Cmd: "get", Msg: MsgFuncViewInfo})
}

// GetSettings requests extended settings (rear/woofer levels, user name).
func (c *Client) GetSettings() error {
	return c.send(Packet{Cmd: "get", Msg: MsgSettingViewInfo})
}

// SetVolume sets the absolute volume in device units.
func (c *Client) SetVolume(level int) error {
	return c.send(Packet{Cmd: "set", Msg: MsgSpkListViewInfo, Data: map[string]any{"i_vol": level}})
}

// SetMute mutes or unmutes the device.
func (c *Client) SetMute(muted bool) error {
	return c.send(Packet{Cmd: "set", Msg: MsgSpkListViewInfo, Data: map[string]any{"b_mute": muted}})
}

// SetFunc selects the input function by table index.
func (c *Client) SetFunc(index int) error {
	return c.send(Packet{Cmd: "set", Msg: MsgFuncViewInfo, Data: map[string]any{"i_curr_func": index}})
}

// SetEQ selects the equaliser mode by table index.
func (c *Client) SetEQ(index int) error {
	return c.send(Packet{Cmd: "set", Msg: MsgEQViewInfo, Data: map[string]any{"i_curr_eq": index}})
}

// SetPower turns the device on or off.
func (c *Client) SetPower(on bool) error {
	return c.send(Packet{Cmd: "set", Msg: MsgSpkListViewInfo, Data: map[string]any{"b_powerkey": on}})
}

func (c *Client) send(p Packet) error {
	if c.closed.Load() {
		return ErrClosed
	}

	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(body)))
	copy(frame[4:], body)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	_, err = c.conn.Write(frame)
	return err
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		var header [4]byte
		if _, err := io.ReadFull(c.conn, header[:]); err != nil {
			if !c.closed.Load() {
				log.Printf("PROTO: connection to %s lost: %v", c.conn.RemoteAddr(), err)
			}
			return
		}

		size := binary.BigEndian.Uint32(header[:])
		if size == 0 || size > maxPacketSize {
			log.Printf("PROTO: invalid frame length %d from %s, closing", size, c.conn.RemoteAddr())
			c.conn.Close()
			return
		}

		body := make([]byte, size)
		if _, err := io.ReadFull(c.conn, body); err != nil {
			if !c.closed.Load() {
				log.Printf("PROTO: connection to %s lost: %v", c.conn.RemoteAddr(), err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			log.Printf("PROTO: dropping malformed packet: %v", err)
			continue
		}

		if c.closed.Load() {
			return
		}
		c.onEvent(msg)
	}
}
