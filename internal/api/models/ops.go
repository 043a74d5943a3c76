package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus reports provider health and the active provider selection.
type SystemStatus struct {
	Status    HealthStatus        `json:"status"`
	Time      Timestamp           `json:"time"`
	Providers []ProviderStatus    `json:"providers"`
	Chains    map[string][]string `json:"chains"`
	Flags     []FlagValue         `json:"flags"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider            string       `json:"provider"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState,omitempty"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	TotalRequests       int64        `json:"totalRequests"`
	TotalFailures       int64        `json:"totalFailures"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	LastProbeLatencyMs  *int64       `json:"lastProbeLatencyMs,omitempty"`
	Message             *string      `json:"message,omitempty"`
}

// FlagValue is one resolved provider flag.
type FlagValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}
