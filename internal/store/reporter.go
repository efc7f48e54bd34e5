package store

import (
	"errors"
	"log/slog"

	"github.com/openfolio/postfeed/internal/client"
	"github.com/openfolio/postfeed/internal/query"
)

// ErrorReporter receives every failed request exactly once, together with the
// query that produced it. Failures are non-fatal: the fetch sequence always
// continues past them.
type ErrorReporter interface {
	Report(err error, q query.Query)
}

type slogReporter struct{}

func (slogReporter) Report(err error, q query.Query) {
	var payloadErr *client.PayloadError
	if errors.As(err, &payloadErr) {
		slog.Error("malformed payload", "query", query.Encode(q, nil, nil), "raw", string(payloadErr.Raw))
		return
	}
	slog.Error("fetch failed", "query", query.Encode(q, nil, nil), "error", err)
}
