package controller

import (
	"encoding/json"
	"net/http"

	"github.com/digitalghar/storefront/internal/middleware"
	ws "github.com/digitalghar/storefront/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// CartEventsController keeps the cart badge of every open tab in step.
type CartEventsController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewCartEventsController accepts upgrades only from the allowed browser origins.
func NewCartEventsController(hub *ws.Hub, allowedOrigins []string) *CartEventsController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o != "" {
			allowed[o] = true
		}
	}

	return &CartEventsController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Connect upgrades to a websocket that receives cart.updated events. The current cart is
// sent first so a new tab starts in sync.
// GET /api/v1/cart/events
func (ctrl *CartEventsController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("Failed to upgrade to WebSocket", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, sess.ID)

	if initial, err := json.Marshal(ws.NewCartEvent(sess.ID, sess.Cart.Snapshot())); err == nil {
		client.TrySend(initial)
	}

	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("Cart events connected", nil)
}
