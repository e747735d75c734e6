package connkit

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

// HTTPProbe returns a probe that reports healthy when a GET against url
// answers with a 2xx status. A nil client falls back to a plain
// http.Client; the probe context supplied by the monitor bounds the
// request either way.
func HTTPProbe(url string, client *http.Client) ProbeFunc {
	if client == nil {
		client = &http.Client{}
	}
	return func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return false, WrapError(ErrorServerUnreachable, fmt.Sprintf("health endpoint %s unreachable", url), err)
		}
		defer resp.Body.Close()
		return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
	}
}

// WebSocketProbe returns a probe that reports healthy when a WebSocket
// handshake against url succeeds. The connection is closed immediately
// after the handshake.
func WebSocketProbe(url string) ProbeFunc {
	return func(ctx context.Context) (bool, error) {
		ws, _, err := websocket.Dial(ctx, url, nil)
		if err != nil {
			return false, WrapError(ErrorServerUnreachable, fmt.Sprintf("websocket endpoint %s unreachable", url), err)
		}
		_ = ws.Close(websocket.StatusNormalClosure, "health check")
		return true, nil
	}
}
