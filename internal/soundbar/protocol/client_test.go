package protocol

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDevice is a loopback TCP endpoint speaking the framed JSON protocol.
type testDevice struct {
	listener net.Listener
	conns    chan net.Conn
}

func newTestDevice(t *testing.T) *testDevice {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	device := &testDevice{listener: listener, conns: make(chan net.Conn, 1)}
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		device.conns <- conn
	}()
	return device
}

func (d *testDevice) hostPort(t *testing.T) (string, int) {
	t.Helper()
	addr := d.listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func (d *testDevice) conn(t *testing.T) net.Conn {
	t.Helper()
	select {
	case conn := <-d.conns:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("no connection accepted")
		return nil
	}
}

func readPacket(t *testing.T, conn net.Conn) Packet {
	t.Helper()

	var header [4]byte
	_, err := io.ReadFull(conn, header[:])
	require.NoError(t, err)

	body := make([]byte, binary.BigEndian.Uint32(header[:]))
	_, err = io.ReadFull(conn, body)
	require.NoError(t, err)

	var packet Packet
	require.NoError(t, json.Unmarshal(body, &packet))
	return packet
}

func writeFrame(t *testing.T, conn net.Conn, payload string) {
	t.Helper()

	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)
	_, err := conn.Write(frame)
	require.NoError(t, err)
}

func TestDialUnreachable(t *testing.T) {
	// A listener that is immediately closed yields a refused port.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	listener.Close()

	_, err = Dial(context.Background(), addr.IP.String(), addr.Port, func(Message) {})
	require.Error(t, err)

	var unreachable *UnreachableError
	assert.ErrorAs(t, err, &unreachable)
}

func TestQueriesAndCommandsOnTheWire(t *testing.T) {
	device := newTestDevice(t)
	host, port := device.hostPort(t)

	client, err := Dial(context.Background(), host, port, func(Message) {})
	require.NoError(t, err)
	defer client.Close()

	conn := device.conn(t)
	defer conn.Close()

	require.NoError(t, client.GetEQ())
	packet := readPacket(t, conn)
	assert.Equal(t, "get", packet.Cmd)
	assert.Equal(t, MsgEQViewInfo, packet.Msg)
	assert.Nil(t, packet.Data)

	require.NoError(t, client.SetVolume(17))
	packet = readPacket(t, conn)
	assert.Equal(t, "set", packet.Cmd)
	assert.Equal(t, MsgSpkListViewInfo, packet.Msg)
	assert.Equal(t, map[string]any{"i_vol": float64(17)}, packet.Data)

	require.NoError(t, client.SetPower(false))
	packet = readPacket(t, conn)
	assert.Equal(t, MsgSpkListViewInfo, packet.Msg)
	assert.Equal(t, map[string]any{"b_powerkey": false}, packet.Data)
}

func TestInboundMessagesReachCallback(t *testing.T) {
	device := newTestDevice(t)
	host, port := device.hostPort(t)

	received := make(chan Message, 2)
	client, err := Dial(context.Background(), host, port, func(msg Message) {
		received <- msg
	})
	require.NoError(t, err)
	defer client.Close()

	conn := device.conn(t)
	defer conn.Close()

	writeFrame(t, conn, `{"msg": "EQ_VIEW_INFO", "data": {"i_bass": 4}}`)

	select {
	case msg := <-received:
		assert.Equal(t, MsgEQViewInfo, msg.Msg)
		assert.JSONEq(t, `{"i_bass": 4}`, string(msg.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
	}

	// Malformed frames are dropped without killing the stream.
	writeFrame(t, conn, `not-json`)
	writeFrame(t, conn, `{"msg": "FUNC_VIEW_INFO", "data": {}}`)

	select {
	case msg := <-received:
		assert.Equal(t, MsgFuncViewInfo, msg.Msg)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not survive malformed frame")
	}
}

func TestCloseStopsCallbackAndSends(t *testing.T) {
	device := newTestDevice(t)
	host, port := device.hostPort(t)

	client, err := Dial(context.Background(), host, port, func(Message) {
		t.Error("callback fired after close")
	})
	require.NoError(t, err)

	conn := device.conn(t)
	defer conn.Close()

	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.SetMute(true), ErrClosed)

	// Frames written after close must not reach the callback. The write may
	// itself fail once the peer is gone; either way no callback fires.
	payload := `{"msg": "EQ_VIEW_INFO", "data": {}}`
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)
	_, _ = conn.Write(frame)
	time.Sleep(100 * time.Millisecond)
}
