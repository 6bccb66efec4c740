package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"
	FieldUpgraded  = "upgraded"

	// Relay
	FieldClientID    = "client_id"
	FieldWorkerID    = "worker_id"
	FieldViewerID    = "viewer_id"
	FieldRole        = "role"
	FieldMsgType     = "msg_type"
	FieldViewerCount = "viewer_count"
	FieldEventType   = "event_type"

	// Service
	FieldService = "service"
)
