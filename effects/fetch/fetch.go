// Package fetch performs HTTP requests described as effects. Requests under
// the same tracker key supersede each other; the superseded transfer is
// aborted.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"github.com/on-the-ground/effect_ive_loop/effects/tracker"
)

const (
	KindGet    effects.Kind = "Http/Get"
	KindPost   effects.Kind = "Http/Post"
	KindCancel effects.Kind = "Http/Cancel"
)

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Handlers maps the outcome of a request to an action. A nil handler
// produces no action; a failure without OnError is logged.
type Handlers struct {
	OnResponse func(Response) effects.Action
	OnError    func(error) effects.Action
}

func (h Handlers) lift(f func(effects.Action) effects.Action) Handlers {
	if onResponse := h.OnResponse; onResponse != nil {
		h.OnResponse = func(r Response) effects.Action { return f(onResponse(r)) }
	}
	if onError := h.OnError; onError != nil {
		h.OnError = func(err error) effects.Action { return f(onError(err)) }
	}
	return h
}

type Get struct {
	Handlers
	URL        string
	Header     http.Header
	TrackerKey string
}

func (Get) Kind() effects.Kind { return KindGet }

func (g Get) Tracker() string { return g.TrackerKey }

func (g Get) Lift(f func(effects.Action) effects.Action) effects.Effect {
	g.Handlers = g.Handlers.lift(f)
	return g
}

func (g Get) newRequest(ctx context.Context) (*http.Request, error) {
	return newRequest(ctx, http.MethodGet, g.URL, g.Header, nil)
}

func (g Get) handlers() Handlers { return g.Handlers }

type Post struct {
	Handlers
	URL         string
	Header      http.Header
	ContentType string
	Body        []byte
	TrackerKey  string
}

func (Post) Kind() effects.Kind { return KindPost }

func (p Post) Tracker() string { return p.TrackerKey }

func (p Post) Lift(f func(effects.Action) effects.Action) effects.Effect {
	p.Handlers = p.Handlers.lift(f)
	return p
}

func (p Post) newRequest(ctx context.Context) (*http.Request, error) {
	req, err := newRequest(ctx, http.MethodPost, p.URL, p.Header, bytes.NewReader(p.Body))
	if err != nil {
		return nil, err
	}
	if p.ContentType != "" {
		req.Header.Set("Content-Type", p.ContentType)
	}
	return req, nil
}

func (p Post) handlers() Handlers { return p.Handlers }

// Cancel aborts the request in flight under TrackerKey.
type Cancel struct {
	effects.Silent
	TrackerKey string
}

func (Cancel) Kind() effects.Kind { return KindCancel }

type request interface {
	tracker.Request
	newRequest(ctx context.Context) (*http.Request, error)
	handlers() Handlers
}

func newRequest(ctx context.Context, method, url string, header http.Header, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, url, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// Epic performs Get and Post effects with client, http.DefaultClient when nil.
func Epic(client *http.Client, opts ...tracker.Option) effects.Epic {
	if client == nil {
		client = http.DefaultClient
	}
	return tracker.Epic[request](perform(client), cancelOf, opts...)
}

func perform(client *http.Client) tracker.Project[request, effects.Action] {
	return func(ctx context.Context, req request, emit func(effects.Action)) error {
		h := req.handlers()
		res, err := do(ctx, client, req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if h.OnError == nil {
				return err
			}
			emit(h.OnError(err))
			return nil
		}
		if h.OnResponse != nil {
			emit(h.OnResponse(res))
		}
		return nil
	}
}

func do(ctx context.Context, client *http.Client, req request) (Response, error) {
	httpReq, err := req.newRequest(ctx)
	if err != nil {
		return Response{}, err
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", httpReq.Method, httpReq.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read %s %s: %w", httpReq.Method, httpReq.URL, err)
	}
	return Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func cancelOf(eff effects.Effect) (string, bool) {
	c, ok := eff.(Cancel)
	return c.TrackerKey, ok
}
