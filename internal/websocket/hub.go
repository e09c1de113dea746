package websocket

import (
	"encoding/json"
	"sync"
)

type BalanceUpdate struct {
	StoreID string `json:"store_id"`
	Balance string `json:"balance"`
}

type ProposalUpdate struct {
	ProposalID   string `json:"proposal_id"`
	StoreID      string `json:"store_id"`
	Status       string `json:"status"`
	VotesFor     string `json:"votes_for"`
	VotesAgainst string `json:"votes_against"`
}

type envelope struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// BroadcastBalance pushes a ledger balance change to the owning user's
// connections. Slow clients are skipped, not waited on.
func (h *Hub) BroadcastBalance(userID string, update BalanceUpdate) {
	payload, _ := json.Marshal(envelope{Kind: "balance", Data: update})
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}

// BroadcastProposal pushes a tally or status change to every connection.
func (h *Hub) BroadcastProposal(update ProposalUpdate) {
	payload, _ := json.Marshal(envelope{Kind: "proposal", Data: update})
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- payload:
			default:
			}
		}
	}
}
