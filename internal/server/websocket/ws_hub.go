package websocket

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gensosanso/financecorner/internal/domain"
)

type WsHub struct {
	Clients    map[string]map[*websocket.Conn]bool
	Broadcast  chan WsMessage
	Register   chan *WsClient
	Unregister chan *WsClient
	Logger     zerolog.Logger
}

type WsClient struct {
	UserID string
	Conn   *websocket.Conn
}

// WsMessage targets the users named in Recipients; an empty list means every
// connected client (used for the shared open-offers board).
type WsMessage struct {
	Type        string                  `json:"type"`
	Transaction *domain.Transaction     `json:"transaction,omitempty"`
	Wallet      *domain.Wallet          `json:"wallet,omitempty"`
	Offer       *domain.LendingOffer    `json:"offer,omitempty"`
	Contract    *domain.LendingContract `json:"contract,omitempty"`
	Recipients  []string                `json:"-"`
}

func NewWsHub(logger zerolog.Logger) *WsHub {
	hub := &WsHub{
		Clients:    make(map[string]map[*websocket.Conn]bool),
		Broadcast:  make(chan WsMessage, 100),
		Register:   make(chan *WsClient, 100),
		Unregister: make(chan *WsClient, 100),
		Logger:     logger,
	}
	return hub
}

func (h *WsHub) Run() {
	for {
		select {
		case client := <-h.Register:
			if h.Clients[client.UserID] == nil {
				h.Clients[client.UserID] = make(map[*websocket.Conn]bool)
			}
			h.Clients[client.UserID][client.Conn] = true
			h.Logger.Info().
				Str("user_id", client.UserID).
				Int("connection_count", len(h.Clients[client.UserID])).
				Msg("WebSocket client registered")

		case client := <-h.Unregister:
			if clients, ok := h.Clients[client.UserID]; ok {
				delete(clients, client.Conn)
				h.Logger.Info().
					Str("user_id", client.UserID).
					Int("connection_count", len(clients)).
					Msg("WebSocket client unregistered")
				if len(clients) == 0 {
					delete(h.Clients, client.UserID)
				}
				client.Conn.Close()
			}

		case message := <-h.Broadcast:
			if len(message.Recipients) == 0 {
				for userID := range h.Clients {
					h.sendToUser(userID, message)
				}
				continue
			}
			for _, userID := range message.Recipients {
				h.sendToUser(userID, message)
			}
		}
	}
}

func (h *WsHub) sendToUser(userID string, message WsMessage) {
	clients, ok := h.Clients[userID]
	if !ok {
		return
	}
	for conn := range clients {
		if err := conn.WriteJSON(message); err != nil {
			h.Logger.Err(err).
				Str("user_id", userID).
				Str("type", message.Type).
				Msg("Failed to send WebSocket message")
			conn.Close()
			delete(clients, conn)
		}
	}
	if len(clients) == 0 {
		delete(h.Clients, userID)
	}
}

func (h *WsHub) BroadcastTransaction(txn *domain.Transaction) {
	recipients := []string{txn.UserID}
	if txn.CounterpartyID != "" && txn.CounterpartyID != txn.UserID {
		recipients = append(recipients, txn.CounterpartyID)
	}
	h.Broadcast <- WsMessage{
		Type:        "transaction",
		Transaction: txn,
		Recipients:  recipients,
	}
}

func (h *WsHub) BroadcastWallet(wallet *domain.Wallet) {
	h.Broadcast <- WsMessage{
		Type:       "wallet",
		Wallet:     wallet,
		Recipients: []string{wallet.UserID},
	}
}

// Offers feed the shared marketplace view, so everyone hears about them.
func (h *WsHub) BroadcastOffer(offer *domain.LendingOffer) {
	h.Broadcast <- WsMessage{
		Type:  "offer",
		Offer: offer,
	}
}

func (h *WsHub) BroadcastContract(contract *domain.LendingContract) {
	recipients := []string{contract.BorrowerID}
	if contract.LenderID != contract.BorrowerID {
		recipients = append(recipients, contract.LenderID)
	}
	h.Broadcast <- WsMessage{
		Type:       "contract",
		Contract:   contract,
		Recipients: recipients,
	}
}
