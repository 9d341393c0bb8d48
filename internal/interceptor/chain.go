// Package interceptor holds the ordered request and response hooks every
// service call passes through.
package interceptor

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/eshaffer321/streamly-go/internal/classify"
	"github.com/eshaffer321/streamly-go/internal/types"
)

// Request describes an outgoing call. Request interceptors mutate it in
// place before it is turned into an *http.Request.
type Request struct {
	Service types.Service
	Method  string
	URL     string
	Params  url.Values
	Body    interface{}
	Header  http.Header
}

// Response is a completed 2xx exchange
type Response struct {
	Request    *Request
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// RequestFunc mutates a request before dispatch
type RequestFunc func(ctx context.Context, req *Request) error

// ResponseHandler sees every outcome. OnResponse runs on success, OnError on
// any failure and returns the error to hand to the next handler.
type ResponseHandler interface {
	OnResponse(ctx context.Context, resp *Response) (*Response, error)
	OnError(ctx context.Context, req *Request, err error) error
}

// Chain is an ordered, immutable set of interceptors
type Chain struct {
	request  []RequestFunc
	response []ResponseHandler
}

// NewChain fixes the interceptor order. Later changes to the passed slices
// do not affect the chain.
func NewChain(request []RequestFunc, response []ResponseHandler) *Chain {
	return &Chain{
		request:  append([]RequestFunc(nil), request...),
		response: append([]ResponseHandler(nil), response...),
	}
}

// PrepareRequest runs the request interceptors in order
func (c *Chain) PrepareRequest(ctx context.Context, req *Request) error {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	for _, fn := range c.request {
		if err := fn(ctx, req); err != nil {
			return c.HandleError(ctx, req, err)
		}
	}
	return nil
}

// HandleResponse runs the response interceptors in order on a success
func (c *Chain) HandleResponse(ctx context.Context, resp *Response) (*Response, error) {
	for _, h := range c.response {
		next, err := h.OnResponse(ctx, resp)
		if err != nil {
			return nil, c.HandleError(ctx, resp.Request, err)
		}
		resp = next
	}
	return resp, nil
}

// HandleError runs the response interceptors in order on a failure. The
// result is always a classified *types.Error.
func (c *Chain) HandleError(ctx context.Context, req *Request, err error) error {
	for _, h := range c.response {
		err = h.OnError(ctx, req, err)
	}
	if err == nil {
		return nil
	}
	return classify.Error(err)
}
