package loggate

// LogResponse is the gateway's reply to a send. Fields are decoded from the
// response body and passed through without further validation.
type LogResponse struct {
	Success  bool `json:"success"`
	Ingested int  `json:"ingested"`
}

// HealthResponse is the gateway's reply to a connectivity probe. Both fields
// are opaque to the client.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
