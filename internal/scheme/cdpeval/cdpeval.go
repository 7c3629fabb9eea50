// Package cdpeval evaluates javascript urls in a browser page over the
// Chrome DevTools Protocol.
package cdpeval

import (
	"context"
	"errors"
	"sync"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/runtime"
	"github.com/mafredri/cdp/rpcc"
)

var errNoPage = errors.New("cdpeval: no page target")

// Evaluator attaches to the first page target of a browser on first use
// and evaluates every script in that page.
type Evaluator struct {
	devtoolsURL string

	mu     sync.Mutex
	conn   *rpcc.Conn
	client *cdp.Client
}

// New creates an Evaluator for the DevTools HTTP endpoint at devtoolsURL,
// e.g. http://127.0.0.1:9222.
func New(devtoolsURL string) *Evaluator {
	return &Evaluator{devtoolsURL: devtoolsURL}
}

func (e *Evaluator) attach(ctx context.Context) (*cdp.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return e.client, nil
	}
	targets, err := devtool.New(e.devtoolsURL).List(ctx)
	if err != nil {
		return nil, err
	}
	var sel *devtool.Target
	for i := range targets {
		if targets[i].Type == devtool.Page {
			sel = targets[i]
			break
		}
	}
	if sel == nil {
		return nil, errNoPage
	}
	conn, err := rpcc.DialContext(ctx, sel.WebSocketDebuggerURL)
	if err != nil {
		return nil, err
	}
	e.conn = conn
	e.client = cdp.NewClient(conn)
	return e.client, nil
}

// Evaluate runs script in the page. a thrown exception is returned as an
// error carrying its description.
func (e *Evaluator) Evaluate(ctx context.Context, script string) error {
	client, err := e.attach(ctx)
	if err != nil {
		return err
	}
	reply, err := client.Runtime.Evaluate(ctx, runtime.NewEvaluateArgs(script))
	if err != nil {
		return err
	}
	if ex := reply.ExceptionDetails; ex != nil {
		msg := ex.Text
		if ex.Exception != nil && ex.Exception.Description != nil {
			msg += " " + *ex.Exception.Description
		}
		return errors.New(msg)
	}
	return nil
}

// Close drops the connection to the page, the next Evaluate attaches again.
func (e *Evaluator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn, e.client = nil, nil
	return err
}
