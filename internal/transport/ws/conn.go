package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errClosed = errors.New("ws: connection closed")

// wsConn is the relay.Peer for one websocket. Writes are serialized through sendMu.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	sendMu       chan struct{}
	closed       chan struct{}
	closeOnce    sync.Once
}

func newWsConn(c *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{
		conn:         c,
		writeTimeout: writeTimeout,
		sendMu:       make(chan struct{}, 1),
		closed:       make(chan struct{}),
	}
}

// Send writes msg as one text frame, giving up after writeTimeout.
func (c *wsConn) Send(msg []byte) error {
	select {
	case c.sendMu <- struct{}{}:
	case <-c.closed:
		return errClosed
	}
	defer func() { <-c.sendMu }()

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}
