package scheme

import (
	"context"
	"net/url"
	"strings"

	"github.com/frankli0324/go-fetch/internal/http"
)

// Evaluator runs a script in the host's active execution context. the
// result of the script is discarded.
type Evaluator interface {
	Evaluate(ctx context.Context, script string) error
}

type EvaluatorFunc func(ctx context.Context, script string) error

func (f EvaluatorFunc) Evaluate(ctx context.Context, script string) error { return f(ctx, script) }

// Script returns a handler for javascript urls evaluating the decoded
// payload with ev. the response is always an empty 200.
func Script(ev Evaluator) Handler {
	return func(ctx context.Context, req *http.Request) (*http.Response, error) {
		if ev == nil {
			return nil, http.Errorf(http.ErrScriptEvaluation, "javascript", "no script evaluator configured")
		}
		raw := req.URL()
		raw = raw[strings.IndexByte(raw, ':')+1:]
		script, err := url.PathUnescape(raw)
		if err != nil {
			return nil, http.NewError(http.ErrParse, "javascript", err)
		}
		if err := ev.Evaluate(ctx, script); err != nil {
			return nil, http.NewError(http.ErrScriptEvaluation, "javascript", err)
		}
		return respond(req, nil, "")
	}
}
