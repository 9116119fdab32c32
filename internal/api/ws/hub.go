package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	redisstore "github.com/gosuda/seatmap/internal/store/redis"
)

// Subscriber delivers raw messages published on a channel until cleanup is
// called or ctx ends. *redisstore.PubSub satisfies this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	subscriber     Subscriber
	originPatterns []string
}

// NewHub creates a new WebSocket hub. origins are the allowed CORS origins;
// websocket matches on host only, so schemes are stripped.
func NewHub(subscriber Subscriber, origins []string) *Hub {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			o = u.Host
		}
		patterns = append(patterns, o)
	}
	return &Hub{subscriber: subscriber, originPatterns: patterns}
}

// ServeDepartment streams chart change events for one department.
// Subscribes to Redis channel "charts:<department>" and forwards every
// payload as a text frame.
func (h *Hub) ServeDepartment(w http.ResponseWriter, r *http.Request) {
	department := strings.TrimSpace(chi.URLParam(r, "department"))
	if department == "" {
		http.Error(w, "missing department", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// The feed is one-way; CloseRead handles control frames and cancels ctx
	// once the client goes away.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.subscriber.Subscribe(ctx, redisstore.DepartmentChannel(department))
	if err != nil {
		log.Error().Err(err).Str("department", department).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	log.Debug().Str("department", department).Msg("websocket: chart feed opened")

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
