package services

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LogEntry is one recorded API request.
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService records request logs for the monitoring endpoint.
type MonitoringService struct {
	logs []LogEntry
	mu   sync.RWMutex
}

// NewMonitoringService creates a new monitoring service.
func NewMonitoringService() *MonitoringService {
	return &MonitoringService{
		logs: make([]LogEntry, 0),
	}
}

// LogRequest records one request.
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
}

// LoggingMiddleware records request metadata for every non-monitoring route.
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/monitoring") {
			return
		}

		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: time.Since(start),
		})
	}
}

// LogSummary is the aggregated view served by the monitoring endpoint.
type LogSummary struct {
	TotalRequests int            `json:"total_requests"`
	Endpoints     map[string]int `json:"endpoints"`
	ClientErrors  int            `json:"client_errors"`
	ServerErrors  int            `json:"server_errors"`
	Recent        []LogEntry     `json:"recent"`
}

// GetLogSummary aggregates the recorded requests: per-endpoint counts, error
// totals and the most recent entries (up to limit, newest first).
func (s *MonitoringService) GetLogSummary(limit int) LogSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := LogSummary{
		TotalRequests: len(s.logs),
		Endpoints:     make(map[string]int),
		Recent:        make([]LogEntry, 0, limit),
	}
	for _, entry := range s.logs {
		summary.Endpoints[entry.Path]++
		if entry.StatusCode >= 400 && entry.StatusCode < 500 {
			summary.ClientErrors++
		} else if entry.StatusCode >= 500 {
			summary.ServerErrors++
		}
	}
	for i := len(s.logs) - 1; i >= 0 && len(summary.Recent) < limit; i-- {
		summary.Recent = append(summary.Recent, s.logs[i])
	}
	return summary
}
