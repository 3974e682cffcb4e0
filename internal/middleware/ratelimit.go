package middleware

import (
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// PublicRateLimit throttles the anonymous QR endpoints by client IP. The
// rate uses the limiter format, e.g. "30-15M" for 30 requests per 15
// minutes. State lives in process memory; a single-node deployment needs
// nothing more.
func PublicRateLimit(formatted string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}

	instance := limiter.New(memory.NewStore(), rate)
	mw := stdlib.NewMiddleware(instance)
	return mw.Handler, nil
}
