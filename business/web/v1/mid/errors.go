package mid

import (
	"context"
	"net/http"

	"github.com/DavidBacZit/nadfaucet/business/web/errs"
	"github.com/DavidBacZit/nadfaucet/foundation/validate"
	"github.com/DavidBacZit/nadfaucet/foundation/web"
	"go.uber.org/zap"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform
// way. Unexpected errors (status >= 500) are logged and never leaked to
// the client verbatim.
func Errors(log *zap.SugaredLogger) web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v, err := web.GetValues(ctx)
			if err != nil {
				return web.NewShutdownError("web value missing from context")
			}

			if err := handler(ctx, w, r); err != nil {
				log.Errorw("ERROR", "traceid", v.TraceID, "message", err)

				var er errs.Response
				var status int

				switch {
				case errs.IsTrusted(err):
					trusted := errs.GetTrusted(err)
					if fields := validate.GetFieldErrors(trusted.Err); fields != nil {
						er = errs.Response{
							Error:  "data validation error",
							Fields: fields.Fields(),
						}
					} else if trusted.Status >= http.StatusInternalServerError {
						er = errs.Response{
							Error: http.StatusText(trusted.Status),
						}
					} else {
						er = errs.Response{
							Error: trusted.Error(),
						}
					}
					status = trusted.Status

				default:
					er = errs.Response{
						Error: http.StatusText(http.StatusInternalServerError),
					}
					status = http.StatusInternalServerError
				}

				if err := web.Respond(ctx, w, er, status); err != nil {
					return err
				}

				// If we receive the shutdown err we need to return it
				// back to the base handler to shut down the service.
				if web.IsShutdown(err) {
					return err
				}
			}

			return nil
		}

		return h
	}

	return m
}
