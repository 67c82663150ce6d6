package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
	"gorm.io/gorm"

	"KantinPos/app/printer"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	TypeTransactionNew MessageType = "transaction_new"
	TypeKitchenTicket  MessageType = "kitchen_ticket"
	TypeKitchenAck     MessageType = "kitchen_ack"
	TypePrintJob       MessageType = "print_job"
	TypePrintResult    MessageType = "print_result"
	TypePrinterStatus  MessageType = "printer_status"
	TypeNotification   MessageType = "notification"
	TypeHeartbeat      MessageType = "heartbeat"
	TypeAuthResponse   MessageType = "auth_response"
)

// ClientType represents the type of connected client
type ClientType string

const (
	ClientPOS     ClientType = "pos"
	ClientKitchen ClientType = "kitchen"
	ClientTablet  ClientType = "tablet"
)

// PrintGateway is the slice of the printer service the bridge needs.
// Remote clients can only submit documents, never manage the connection.
type PrintGateway interface {
	PrintCashierReceipt(data printer.ReceiptData) error
	PrintKitchenTicket(data printer.KitchenReceiptData) error
	PrintTestPage() error
}

// Message represents a WebSocket message
type Message struct {
	Type      MessageType     `json:"type"`
	ClientID  string          `json:"client_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID          string
	Type        ClientType
	Connection  *websocket.Conn
	Send        chan []byte
	Server      *Server
	ConnectedAt time.Time
	RemoteAddr  string
}

// Server is the LAN print bridge: companion apps on the local network
// connect here to submit print jobs and follow printer status.
type Server struct {
	clients      map[string]*Client
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *Client
	upgrader     websocket.Upgrader
	mu           sync.RWMutex
	port         string
	db           *gorm.DB
	gateway      PrintGateway
	restHandlers *RESTHandlers
	mdnsShutdown chan bool
	httpServer   *http.Server
	quit         chan struct{}
	stopOnce     sync.Once
}

// NewServer creates a new print bridge server
func NewServer(port string) *Server {
	return &Server{
		clients:      make(map[string]*Client),
		broadcast:    make(chan []byte),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		port:         port,
		mdnsShutdown: make(chan bool),
		quit:         make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from local network
				return true
			},
		},
	}
}

// SetDB sets the database connection for REST API endpoints
func (s *Server) SetDB(db *gorm.DB) {
	s.db = db
	if s.gateway != nil {
		s.restHandlers = NewRESTHandlers(db, s, s.gateway)
	}
}

// SetPrintGateway sets the printer gateway used by remote print jobs
func (s *Server) SetPrintGateway(gateway PrintGateway) {
	s.gateway = gateway
	if s.db != nil {
		s.restHandlers = NewRESTHandlers(s.db, s, gateway)
	}
}

// Start starts the print bridge server. It blocks until Stop is called or
// the listener fails.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	if s.restHandlers != nil {
		mux.HandleFunc("/api/products", s.restHandlers.HandleGetProducts)
		mux.HandleFunc("/api/categories", s.restHandlers.HandleGetCategories)
		mux.HandleFunc("/api/transactions/today", s.restHandlers.HandleGetTodayTransactions)
		mux.HandleFunc("/api/print/kitchen", s.restHandlers.HandlePrintKitchenTicket)
		mux.HandleFunc("/api/print/test", s.restHandlers.HandlePrintTest)
	}

	srv := &http.Server{Addr: s.port, Handler: mux}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	go s.startMDNS()

	log.Printf("Print bridge starting on port %s", s.port)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// startMDNS announces the bridge via mDNS/Zeroconf so companion apps
// can find it without configuration.
func (s *Server) startMDNS() {
	portStr := strings.TrimPrefix(s.port, ":")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Printf("mDNS: invalid port format %s: %v", s.port, err)
		return
	}

	server, err := zeroconf.Register(
		"KantinPos Bridge",
		"_kantinpos._tcp",
		"local.",
		port,
		[]string{"version=1.0"},
		nil,
	)
	if err != nil {
		log.Printf("mDNS: failed to register service: %v", err)
		return
	}

	<-s.mdnsShutdown
	if server != nil {
		server.Shutdown()
	}
}

// Stop shuts the bridge down: mDNS answerer, hub loop, HTTP listener and
// every connected client. Safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		select {
		case s.mdnsShutdown <- true:
		default:
		}

		close(s.quit)

		s.mu.RLock()
		srv := s.httpServer
		s.mu.RUnlock()
		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Printf("Print bridge shutdown: %v", err)
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		for _, client := range s.clients {
			close(client.Send)
			client.Connection.Close()
		}
		s.clients = make(map[string]*Client)
	})
}

// run handles the main server loop
func (s *Server) run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client.ID] = client
			s.mu.Unlock()
			log.Printf("Client registered: %s (type: %s)", client.ID, client.Type)
			s.sendAuthResponse(client, true, "Connected successfully")

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client.ID]; ok {
				delete(s.clients, client.ID)
				s.mu.Unlock()
				go closeSendChannel(client)
				log.Printf("Client unregistered: %s", client.ID)
			} else {
				s.mu.Unlock()
			}

		case message := <-s.broadcast:
			s.mu.Lock()
			for id, client := range s.clients {
				select {
				case client.Send <- message:
				default:
					// Client buffer is full, disconnect
					delete(s.clients, id)
					go closeSendChannel(client)
				}
			}
			s.mu.Unlock()

		case <-ticker.C:
			s.sendHeartbeat()

		case <-s.quit:
			return
		}
	}
}

// closeSendChannel closes a client send channel, tolerating a double close
// when the unregister and broadcast paths race.
func closeSendChannel(c *Client) {
	defer func() {
		recover()
	}()
	close(c.Send)
}

// handleWebSocket handles WebSocket connection upgrades
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientType := ClientType(r.URL.Query().Get("type"))
	if clientType == "" {
		clientType = ClientPOS
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:          generateClientID(),
		Type:        clientType,
		Connection:  conn,
		Send:        make(chan []byte, 256),
		Server:      s,
		ConnectedAt: time.Now(),
		RemoteAddr:  r.RemoteAddr,
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()

	response := map[string]interface{}{
		"status":  "healthy",
		"clients": clientCount,
		"time":    time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Client methods

// readPump handles reading messages from the client
func (c *Client) readPump() {
	defer func() {
		c.Server.unregister <- c
		c.Connection.Close()
	}()

	c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Connection.SetPongHandler(func(string) error {
		c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			log.Printf("Error parsing message: %v", err)
			continue
		}

		c.handleMessage(&message)
	}
}

// writePump handles writing messages to the client
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.Connection.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming messages from clients
func (c *Client) handleMessage(message *Message) {
	switch message.Type {
	case TypePrintJob:
		c.handlePrintJob(message)

	case TypeKitchenAck:
		if c.Type == ClientKitchen {
			c.handleKitchenAck(message)
		}

	case TypeHeartbeat:
		c.sendMessage(Message{
			Type:      TypeHeartbeat,
			Timestamp: time.Now(),
			Data:      json.RawMessage(`{"status":"alive"}`),
		})

	default:
		log.Printf("Unknown message type: %s", message.Type)
	}
}

// PrintJobData is a remote print request from a companion app.
type PrintJobData struct {
	Document string          `json:"document"` // "receipt", "kitchen", "test"
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// handlePrintJob runs a remote print request through the printer gateway
// and reports the result back to the submitting client.
func (c *Client) handlePrintJob(message *Message) {
	result := map[string]interface{}{"ok": true}

	err := c.runPrintJob(message)
	if err != nil {
		result["ok"] = false
		result["error"] = err.Error()
	}

	data, _ := json.Marshal(result)
	c.sendMessage(Message{
		Type:      TypePrintResult,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (c *Client) runPrintJob(message *Message) error {
	if c.Server.gateway == nil {
		return fmt.Errorf("printer gateway not configured")
	}

	var job PrintJobData
	if err := json.Unmarshal(message.Data, &job); err != nil {
		return fmt.Errorf("invalid print job: %w", err)
	}

	switch job.Document {
	case "receipt":
		var data printer.ReceiptData
		if err := json.Unmarshal(job.Payload, &data); err != nil {
			return fmt.Errorf("invalid receipt payload: %w", err)
		}
		return c.Server.gateway.PrintCashierReceipt(data)
	case "kitchen":
		var data printer.KitchenReceiptData
		if err := json.Unmarshal(job.Payload, &data); err != nil {
			return fmt.Errorf("invalid kitchen payload: %w", err)
		}
		return c.Server.gateway.PrintKitchenTicket(data)
	case "test":
		return c.Server.gateway.PrintTestPage()
	default:
		return fmt.Errorf("unknown document type %q", job.Document)
	}
}

// KitchenAckData is a kitchen display acknowledging a ticket.
type KitchenAckData struct {
	TransactionNumber string `json:"transaction_number"`
}

// handleKitchenAck relays a kitchen acknowledgment to POS clients.
func (c *Client) handleKitchenAck(message *Message) {
	var ack KitchenAckData
	if err := json.Unmarshal(message.Data, &ack); err != nil {
		log.Printf("Error parsing kitchen ack: %v", err)
		return
	}

	data, _ := json.Marshal(map[string]interface{}{
		"transaction_number": ack.TransactionNumber,
		"acknowledged":       true,
		"timestamp":          time.Now(),
	})
	c.Server.broadcastToType(ClientPOS, &Message{
		Type:      TypeKitchenAck,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// sendMessage sends a message to the client
func (c *Client) sendMessage(message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return fmt.Errorf("client send channel is full")
	}
}

// Server broadcast methods

// BroadcastMessage broadcasts a message to all connected clients
func (s *Server) BroadcastMessage(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}
	s.broadcast <- data
}

// broadcastToType sends a message to all clients of one type
func (s *Server) broadcastToType(clientType ClientType, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, client := range s.clients {
		if client.Type != clientType {
			continue
		}
		select {
		case client.Send <- data:
		default:
		}
	}
}

// SendKitchenTicket pushes a new kitchen ticket to kitchen displays
func (s *Server) SendKitchenTicket(data printer.KitchenReceiptData) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	s.broadcastToType(ClientKitchen, &Message{
		Type:      TypeKitchenTicket,
		Timestamp: time.Now(),
		Data:      payload,
	})
}

// SendTransactionNotification notifies companion apps of a completed sale
func (s *Server) SendTransactionNotification(transactionNumber string, total float64) {
	data, _ := json.Marshal(map[string]interface{}{
		"transaction_number": transactionNumber,
		"total":              total,
	})
	s.BroadcastMessage(Message{
		Type:      TypeTransactionNew,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// SendPrinterStatus pushes a printer state change to all clients
func (s *Server) SendPrinterStatus(connected bool, name string) {
	data, _ := json.Marshal(map[string]interface{}{
		"connected": connected,
		"name":      name,
	})
	s.BroadcastMessage(Message{
		Type:      TypePrinterStatus,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (s *Server) sendHeartbeat() {
	message := Message{
		Type:      TypeHeartbeat,
		Timestamp: time.Now(),
		Data:      json.RawMessage(`{"status":"alive"}`),
	}
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, client := range s.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (s *Server) sendAuthResponse(client *Client, success bool, text string) {
	data, _ := json.Marshal(map[string]interface{}{
		"success":   success,
		"message":   text,
		"client_id": client.ID,
	})
	client.sendMessage(Message{
		Type:      TypeAuthResponse,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// GetConnectedClients returns a snapshot of connected clients
func (s *Server) GetConnectedClients() []map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]map[string]interface{}, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, map[string]interface{}{
			"id":           client.ID,
			"type":         string(client.Type),
			"connected_at": client.ConnectedAt,
			"remote_addr":  client.RemoteAddr,
		})
	}
	return clients
}

// GetServerStatus returns bridge status for the management UI
func (s *Server) GetServerStatus() map[string]interface{} {
	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()

	return map[string]interface{}{
		"running": true,
		"port":    s.port,
		"clients": clientCount,
	}
}

// GetPort returns the listen port
func (s *Server) GetPort() string {
	return s.port
}

// DisconnectClient forcibly disconnects a client by ID
func (s *Server) DisconnectClient(clientID string) error {
	s.mu.Lock()
	client, ok := s.clients[clientID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("client %s not found", clientID)
	}
	client.Connection.Close()
	return nil
}

func generateClientID() string {
	return fmt.Sprintf("client_%d", time.Now().UnixNano())
}
