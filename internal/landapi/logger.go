package landapi

import (
	"log"
	"time"
)

const logTag = "landapi"

// LogRequest logs an API request being made.
func LogRequest(method, path, requestID string) {
	log.Printf("[%s] %s %s request_id=%s", logTag, method, path, requestID)
}

// LogResponse logs an API response received.
func LogResponse(method, path string, statusCode int, duration time.Duration) {
	log.Printf("[%s] %s %s status=%d duration=%dms",
		logTag, method, path, statusCode, duration.Milliseconds())
}

// LogError logs an error from an API operation.
func LogError(operation string, err error) {
	log.Printf("[%s] %s error: %v", logTag, operation, err)
}
