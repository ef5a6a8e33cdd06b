package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// outboundMessage is the wire shape for user utterances.
type outboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// WebsocketDialer connects to the agent platform over a signed websocket URL.
type WebsocketDialer struct {
	// Dialer overrides the underlying websocket dialer; nil uses the default.
	Dialer *websocket.Dialer
}

// Dial implements Dialer.
func (d *WebsocketDialer) Dial(ctx context.Context, signedURL string, onPayload func(InboundPayload), onClosed func(error)) (Transport, error) {
	wsDialer := d.Dialer
	if wsDialer == nil {
		wsDialer = websocket.DefaultDialer
	}
	conn, _, err := wsDialer.DialContext(ctx, signedURL, nil)
	if err != nil {
		return nil, err
	}
	t := &websocketTransport{conn: conn}
	go t.readLoop(onPayload, onClosed)
	return t, nil
}

type websocketTransport struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (t *websocketTransport) SendText(text string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteJSON(outboundMessage{Type: "user_message", Text: text})
}

func (t *websocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		err = t.conn.Close()
	})
	return err
}

// readLoop delivers inbound payloads until the connection ends.
func (t *websocketTransport) readLoop(onPayload func(InboundPayload), onClosed func(error)) {
	for {
		var payload InboundPayload
		if err := t.conn.ReadJSON(&payload); err != nil {
			t.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				onClosed(nil)
			} else {
				slog.Debug("websocketTransport.readLoop: connection ended", "error", err)
				onClosed(err)
			}
			return
		}
		onPayload(payload)
	}
}
