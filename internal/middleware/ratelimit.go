package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const msgTooManyRequests = "Trop de requêtes, réessayez plus tard"

// NewIPRateLimiter limits requests per client IP using an in-memory store.
// rateFormatted uses the limiter syntax ("20-M", "100-H"); empty disables.
// The key is the host of r.RemoteAddr; forwarding headers are never read here.
func NewIPRateLimiter(rateFormatted string) (func(next http.Handler) http.Handler, error) {
	rateFormatted = strings.TrimSpace(rateFormatted)
	if rateFormatted == "" {
		return noop, nil
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), rate)
	return stdlib.NewMiddleware(instance,
		stdlib.WithKeyGetter(peerKey),
		stdlib.WithLimitReachedHandler(limitReached),
	).Handler, nil
}

func peerKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func limitReached(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"message":"` + msgTooManyRequests + `"}`))
}

func noop(next http.Handler) http.Handler {
	return next
}
