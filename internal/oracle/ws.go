package oracle

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSTransport talks to a remote simulation worker over one websocket.
// Calls are serialised; each response must echo its request ID.
type WSTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
	seq  uint64
}

// DialWS connects to url (ws:// or wss://).
func DialWS(ctx context.Context, url string, header http.Header) (*WSTransport, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (HTTP %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &WSTransport{conn: conn}, nil
}

func (w *WSTransport) Call(ctx context.Context, req Request) (Response, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	req.ID = w.seq

	deadline, _ := ctx.Deadline()
	stop := context.AfterFunc(ctx, func() {
		// unblock a pending read or write
		_ = w.conn.SetReadDeadline(time.Now())
		_ = w.conn.SetWriteDeadline(time.Now())
	})
	defer stop()

	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return Response{}, err
	}
	if err := w.conn.WriteJSON(req); err != nil {
		return Response{}, fmt.Errorf("send %s: %w", req.Op, err)
	}
	if err := w.conn.SetReadDeadline(deadline); err != nil {
		return Response{}, err
	}
	var resp Response
	if err := w.conn.ReadJSON(&resp); err != nil {
		return Response{}, fmt.Errorf("receive %s: %w", req.Op, err)
	}
	if resp.ID != req.ID {
		return Response{}, fmt.Errorf("response id %d does not match request %d", resp.ID, req.ID)
	}
	return resp, nil
}

// Close sends a close frame and releases the connection.
func (w *WSTransport) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return w.conn.Close()
}
