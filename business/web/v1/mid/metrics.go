package mid

import (
	"context"
	"net/http"
	"strconv"

	"github.com/DavidBacZit/nadfaucet/business/web/metrics"
	"github.com/DavidBacZit/nadfaucet/foundation/web"
)

// Metrics updates the prometheus counters for each request.
func Metrics() web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v, err := web.GetValues(ctx)
			if err != nil {
				return web.NewShutdownError("web value missing from context")
			}

			err = handler(ctx, w, r)

			metrics.ObserveRequest(r.Method, r.URL.Path, strconv.Itoa(v.StatusCode), v.Now)

			return err
		}

		return h
	}

	return m
}
