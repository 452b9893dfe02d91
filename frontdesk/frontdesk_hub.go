package frontdesk

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/nightelegance/reservation-app/models"
)

// Event types pushed to frontdesk dashboards
const (
	EventBookingCreate     = "booking_create"
	EventBookingUpdate     = "booking_update"
	EventBookingCancel     = "booking_cancel"
	EventResourceUpdate    = "resource_update"
	EventPaymentEvent      = "payment_event"
	EventMaintenanceUpdate = "maintenance_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks connected frontdesk clients (staff, admin) for broadcasting.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient adds a connection with its role.
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient drops a connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastBooking pushes a booking lifecycle event to every client.
func BroadcastBooking(event string, booking models.Booking) {
	// Contact details stay off the wire; dashboards only need the window.
	BroadcastMessage(Message{
		Event: event,
		Data: map[string]interface{}{
			"booking_id":    booking.ID,
			"resource_id":   booking.ResourceID,
			"resource_name": booking.ResourceName,
			"date":          booking.Date,
			"start_time":    booking.StartTime,
			"end_time":      booking.EndTime,
			"guests":        booking.Guests,
		},
	})
}

// BroadcastResource pushes a resource status change with live status counts.
func BroadcastResource(resource models.Resource, stats map[string]interface{}) {
	BroadcastMessage(Message{
		Event: EventResourceUpdate,
		Data: map[string]interface{}{
			"resource": resource,
			"stats":    stats,
		},
	})
}

// BroadcastMessage serializes and fans out a message to all clients,
// dropping connections that fail to write.
func BroadcastMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(hub.clients, conn)
			conn.Close()
		}
	}
}
