package constants

// Пути health, ready, stats (остальные API регистрируются в router).
const (
	PathHealth = "/health"
	PathReady  = "/ready"
	PathStats  = "/stats"
)
