package services

import (
	"fmt"
	"net"
	"time"

	"KantinPos/app/websocket"
)

// WebSocketManagementService exposes print bridge management to the UI
type WebSocketManagementService struct {
	server *websocket.Server
}

// NewWebSocketManagementService creates a new bridge management service
func NewWebSocketManagementService(server *websocket.Server) *WebSocketManagementService {
	return &WebSocketManagementService{
		server: server,
	}
}

// SetServer updates the bridge server instance
func (s *WebSocketManagementService) SetServer(server *websocket.Server) {
	s.server = server
}

// GetStatus returns the current bridge status with local IP addresses
// so a companion app can be pointed at this machine manually.
func (s *WebSocketManagementService) GetStatus() map[string]interface{} {
	if s.server == nil {
		return map[string]interface{}{
			"running": false,
			"error":   "Server not initialized",
		}
	}

	status := s.server.GetServerStatus()
	status["local_ips"] = getLocalIPAddresses()
	return status
}

// GetConnectedClients returns the list of connected companion apps
func (s *WebSocketManagementService) GetConnectedClients() []map[string]interface{} {
	if s.server == nil {
		return []map[string]interface{}{}
	}
	return s.server.GetConnectedClients()
}

// DisconnectClient disconnects a specific client
func (s *WebSocketManagementService) DisconnectClient(clientID string) error {
	if s.server == nil {
		return fmt.Errorf("server not initialized")
	}
	return s.server.DisconnectClient(clientID)
}

// SendTestNotification sends a test notification to all clients
func (s *WebSocketManagementService) SendTestNotification() error {
	if s.server == nil {
		return fmt.Errorf("server not initialized")
	}

	s.server.BroadcastMessage(websocket.Message{
		Type:      websocket.TypeNotification,
		Timestamp: time.Now(),
		Data:      []byte(`{"message":"Test notification from KantinPos"}`),
	})
	return nil
}

// getLocalIPAddresses returns all local IPv4 addresses
func getLocalIPAddresses() []string {
	var ips []string

	interfaces, err := net.Interfaces()
	if err != nil {
		return ips
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			ip = ip.To4()
			if ip != nil {
				ips = append(ips, ip.String())
			}
		}
	}

	return ips
}
