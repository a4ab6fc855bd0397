package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/DavidBacZit/nadfaucet/business/web/errs"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/limiter"
	"github.com/DavidBacZit/nadfaucet/foundation/web"
)

// RateLimit rejects requests from clients that exceed the limiter's fixed
// window cap. It is keyed by the client IP address.
func RateLimit(lim *limiter.Limiter, message string) web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !lim.Allow(web.ClientIP(r)) {
				return errs.NewTrusted(errors.New(message), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
