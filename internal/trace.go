package internal

import (
	"context"
	"net"
	"net/http/httptrace"
	"reflect"
)

// the context keys net and net/http look their trace hooks up with are
// unexported, they are captured once by watching which key gets asked for.
var stdNetTraceKey, stdHTTPTraceKey interface{}

type captureContext struct {
	context.Context
	capture func(reflect.Type)
}

func (c captureContext) Value(key interface{}) interface{} {
	c.capture(reflect.TypeOf(key))
	return nil
}

func captureKey(probe func(ctx context.Context)) interface{} {
	var t reflect.Type
	probe(captureContext{context.Background(), func(k reflect.Type) {
		if t == nil {
			t = k
		}
	}})
	if t == nil {
		return nil
	}
	return reflect.New(t).Elem().Interface()
}

func init() {
	stdNetTraceKey = captureKey(func(ctx context.Context) {
		(&net.Dialer{}).DialContext(ctx, "invalid", "")
	})
	stdHTTPTraceKey = captureKey(func(ctx context.Context) {
		httptrace.ContextClientTrace(ctx)
	})
}

// shadowStdTrace hides the trace hooks of the standard library from the
// dialer, a caller tracing net/http requests would otherwise see the
// connections of this client as well.
func shadowStdTrace(ctx context.Context) context.Context {
	if stdHTTPTraceKey != nil {
		ctx = context.WithValue(ctx, stdHTTPTraceKey, nil)
	}
	if stdNetTraceKey != nil {
		ctx = context.WithValue(ctx, stdNetTraceKey, nil)
	}
	return ctx
}
