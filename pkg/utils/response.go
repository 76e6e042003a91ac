package utils

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
	Meta      interface{} `json:"meta,omitempty"`
}

// ErrorResponse represents an enhanced error response with additional context
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	Code      int         `json:"code"`
	Timestamp string      `json:"timestamp"`
	Request   RequestInfo `json:"request"`
	Details   interface{} `json:"details,omitempty"`
}

// RequestInfo provides context about the failed request
type RequestInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Query  string `json:"query,omitempty"`
}

// SendSuccess sends a successful response
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// SendSuccessWithMeta sends a successful response with metadata
func SendSuccessWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Meta:      meta,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// SendError sends an error response with enhanced context
func SendError(c *gin.Context, statusCode int, message string) {
	errorResponse := ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      statusCode,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Request: RequestInfo{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Query:  c.Request.URL.RawQuery,
		},
	}

	if statusCode == http.StatusNotFound {
		suggestions := generateNotFoundSuggestions(c.Request.URL.Path)
		if len(suggestions) > 0 {
			errorResponse.Details = map[string]interface{}{
				"suggestions": suggestions,
				"message":     "The requested endpoint does not exist. Check the suggestions below for similar endpoints.",
			}
		}
	}

	c.JSON(statusCode, errorResponse)
}

// generateNotFoundSuggestions provides helpful endpoint suggestions for 404 errors
func generateNotFoundSuggestions(path string) []string {
	commonEndpoints := []string{
		"/health",
		"/metrics",
		"/api/v1/shelly/scan",
		"/api/v1/shelly/devices/:ip",
		"/api/v1/shelly/debug",
		"/api/v1/shelly/mdns-scan",
	}

	var suggestions []string
	pathLower := strings.ToLower(path)

	for _, endpoint := range commonEndpoints {
		endpointLower := strings.ToLower(endpoint)

		if strings.Contains(pathLower, "device") || strings.Contains(pathLower, "shelly") {
			if strings.Contains(endpointLower, "shelly") {
				suggestions = append(suggestions, endpoint)
			}
		} else if strings.Contains(pathLower, "scan") {
			if strings.Contains(endpointLower, "scan") {
				suggestions = append(suggestions, endpoint)
			}
		} else if strings.Contains(pathLower, "health") || strings.Contains(pathLower, "status") {
			if strings.Contains(endpointLower, "health") || strings.Contains(endpointLower, "metrics") {
				suggestions = append(suggestions, endpoint)
			}
		}
	}

	seen := make(map[string]bool)
	var unique []string
	for _, suggestion := range suggestions {
		if !seen[suggestion] && len(unique) < 5 {
			seen[suggestion] = true
			unique = append(unique, suggestion)
		}
	}

	return unique
}
