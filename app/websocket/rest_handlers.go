package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"gorm.io/gorm"

	"KantinPos/app/models"
	"KantinPos/app/printer"
)

// RESTHandlers serves the small HTTP API used by companion apps that
// cannot hold a WebSocket open.
type RESTHandlers struct {
	db      *gorm.DB
	server  *Server
	gateway PrintGateway
}

// NewRESTHandlers creates REST handlers backed by the bridge
func NewRESTHandlers(db *gorm.DB, server *Server, gateway PrintGateway) *RESTHandlers {
	return &RESTHandlers{db: db, server: server, gateway: gateway}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// HandleGetProducts returns the active menu with variants
func (h *RESTHandlers) HandleGetProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var products []models.Product
	err := h.db.Preload("Category").Preload("Variants").
		Where("is_active = ?", true).
		Order("category_id, name").
		Find(&products).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// HandleGetCategories returns active categories in display order
func (h *RESTHandlers) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var categories []models.Category
	err := h.db.Where("is_active = ?", true).
		Order("display_order, name").
		Find(&categories).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleGetTodayTransactions returns today's completed transactions
func (h *RESTHandlers) HandleGetTodayTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var txs []models.Transaction
	err := h.db.Preload("Items").
		Where("created_at >= ? AND status = ?", start, "completed").
		Order("created_at DESC").
		Find(&txs).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var total float64
	for _, tx := range txs {
		total += tx.Total
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":        len(txs),
		"total":        total,
		"transactions": txs,
	})
}

// HandlePrintKitchenTicket prints a kitchen ticket submitted over HTTP
func (h *RESTHandlers) HandlePrintKitchenTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.gateway == nil {
		writeError(w, http.StatusServiceUnavailable, "printer gateway not configured")
		return
	}

	var data printer.KitchenReceiptData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid kitchen ticket payload")
		return
	}
	if len(data.Items) == 0 {
		writeError(w, http.StatusBadRequest, "ticket has no items")
		return
	}
	if data.Date.IsZero() {
		data.Date = time.Now()
	}

	if err := h.gateway.PrintKitchenTicket(data); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	// Mirror the ticket to connected kitchen displays.
	h.server.SendKitchenTicket(data)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandlePrintTest prints the connectivity test page
func (h *RESTHandlers) HandlePrintTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.gateway == nil {
		writeError(w, http.StatusServiceUnavailable, "printer gateway not configured")
		return
	}
	if err := h.gateway.PrintTestPage(); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
