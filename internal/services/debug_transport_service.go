package services

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tognete/codi/internal/logger"
)

// Exchange is one HTTP round trip seen by the debug transport.
type Exchange struct {
	Method   string
	URL      string
	Status   int
	Duration time.Duration
	Headers  map[string][]string
	Err      string
}

// DebugTransportService records and logs the HTTP traffic of the completion and
// repository clients. Secrets in headers are masked.
type DebugTransportService struct {
	enabled bool
	limit   int

	mu        sync.Mutex
	exchanges []Exchange
}

// NewDebugTransportService creates the service. When disabled, Transport returns nil
// and clients fall back to the default transport.
func NewDebugTransportService(enabled bool) *DebugTransportService {
	return &DebugTransportService{enabled: enabled, limit: 50}
}

// Name returns "debug-transport".
func (d *DebugTransportService) Name() string {
	return "debug-transport"
}

// Initialize clears recorded exchanges.
func (d *DebugTransportService) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exchanges = nil
	return nil
}

// Transport wraps http.DefaultTransport when enabled.
func (d *DebugTransportService) Transport() http.RoundTripper {
	if d == nil || !d.enabled {
		return nil
	}
	return &debugTransport{base: http.DefaultTransport, service: d}
}

// Exchanges returns the most recent round trips, oldest first.
func (d *DebugTransportService) Exchanges() []Exchange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Exchange(nil), d.exchanges...)
}

func (d *DebugTransportService) record(ex Exchange) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exchanges = append(d.exchanges, ex)
	if len(d.exchanges) > d.limit {
		d.exchanges = d.exchanges[len(d.exchanges)-d.limit:]
	}
}

type debugTransport struct {
	base    http.RoundTripper
	service *DebugTransportService
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := dt.base.RoundTrip(req)

	ex := Exchange{
		Method:   req.Method,
		URL:      req.URL.Redacted(),
		Duration: time.Since(start),
		Headers:  sanitizeHeaders(req.Header),
	}
	if err != nil {
		ex.Err = err.Error()
		logger.Debug("HTTP request failed", "method", ex.Method, "url", ex.URL, "error", err)
	} else {
		ex.Status = resp.StatusCode
		logger.Debug("HTTP request", "method", ex.Method, "url", ex.URL, "status", ex.Status, "duration_ms", ex.Duration.Milliseconds())
	}
	dt.service.record(ex)

	return resp, err
}

func sanitizeHeaders(headers http.Header) map[string][]string {
	sanitized := make(map[string][]string, len(headers))
	for name, values := range headers {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "authorization") || strings.Contains(lower, "api-key") || strings.Contains(lower, "token") {
			sanitized[name] = []string{maskSecret(values)}
			continue
		}
		sanitized[name] = append([]string(nil), values...)
	}
	return sanitized
}

func maskSecret(values []string) string {
	if len(values) > 0 && len(values[0]) > 10 {
		return values[0][:10] + "***[MASKED]***"
	}
	return "***[MASKED]***"
}
