package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Directory session (browser tab lifetime, X-Session-ID header)
	FieldSessionID = "session_id"

	// Service
	FieldService = "service"
)
