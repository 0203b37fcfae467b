package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status string `json:"status"`
	Agents int    `json:"agents"`
	// Breakers maps each API base URL to its circuit breaker state.
	Breakers map[string]string `json:"breakers,omitempty"`
}

// BridgeMetrics is returned by GET /v1/metrics/bridge.
type BridgeMetrics struct {
	TotalExchanges    int64   `json:"totalExchanges"`
	SuccessfulReplies int64   `json:"successfulReplies"`
	FallbackReplies   int64   `json:"fallbackReplies"`
	ErrorReplies      int64   `json:"errorReplies"`
	ErrorRate         float64 `json:"errorRate"`
	FallbackRate      float64 `json:"fallbackRate"`
	SetupSucceeded    int64   `json:"setupSucceeded"`
	SetupFailed       int64   `json:"setupFailed"`
	Period            string  `json:"period"`
}
