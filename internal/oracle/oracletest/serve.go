package oracletest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/websocket"

	"finsim/internal/oracle"
)

// Serve answers newline-delimited requests from r on w until r is exhausted.
func Serve(ctx context.Context, t oracle.Transport, r io.Reader, w io.Writer) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)
	for {
		var req oracle.Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		resp, err := t.Call(ctx, req)
		if err != nil {
			resp = oracle.Response{ID: req.ID, Error: err.Error()}
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handler upgrades to a websocket and answers requests until the peer closes.
func Handler(t oracle.Transport) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req oracle.Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			resp, err := t.Call(context.Background(), req)
			if err != nil {
				resp = oracle.Response{ID: req.ID, Error: err.Error()}
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	})
}
