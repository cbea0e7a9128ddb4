package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/inclusiveworks/inlint/internal/linter"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypeLintResult is emitted after every completed lint run
	EventTypeLintResult EventType = "lint_result"
	// EventTypeSystemStatus carries periodic server status
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection marks clients joining and leaving
	EventTypeConnection EventType = "connection"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// LintResultEvent summarizes one completed lint run for the dashboard
type LintResultEvent struct {
	RequestID     string           `json:"request_id"`
	FindingCount  int              `json:"finding_count"`
	BlockCount    int              `json:"block_count"`
	WarnCount     int              `json:"warn_count"`
	InfoCount     int              `json:"info_count"`
	UsedLLM       bool             `json:"used_llm"`
	CacheHit      bool             `json:"cache_hit"`
	ProcessingMS  float64          `json:"processing_ms"`
	Findings      []linter.Finding `json:"findings"`
}

// SystemStatusEvent represents system status information
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	TotalScans       int64  `json:"total_scans"`
	ActiveRules      int    `json:"active_rules"`
	CatalogVersion   string `json:"catalog_version"`
	LLMEnabled       bool   `json:"llm_enabled"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
}

// ClientMessage represents messages sent from clients to server
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest represents a client subscription request
type SubscriptionRequest struct {
	Events []EventType `json:"events"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID           string
	Conn         *websocket.Conn
	Send         chan Event
	Subscription *SubscriptionRequest
	ConnectedAt  time.Time
	LastPing     time.Time
	IP           string
}
