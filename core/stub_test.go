package core

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
)

type stubResponse struct {
	status int
	body   string
	err    error
}

type recordedRequest struct {
	Method string
	URL    string
	Header fhttp.Header
	Body   string
}

// stubDoer answers by scheme+host+path and records every request.
type stubDoer struct {
	mu       sync.Mutex
	routes   map[string]stubResponse
	requests []recordedRequest
}

func newStub(routes map[string]stubResponse) *stubDoer {
	return &stubDoer{routes: routes}
}

func (s *stubDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	var body string
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}

	key := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method: req.Method,
		URL:    key,
		Header: req.Header.Clone(),
		Body:   body,
	})
	resp, ok := s.routes[key]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no stub for %s", key)
	}
	if resp.err != nil {
		return nil, resp.err
	}

	status := resp.status
	if status == 0 {
		status = 200
	}
	return &fhttp.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(resp.body)),
	}, nil
}

func (s *stubDoer) requestsTo(url string) []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []recordedRequest
	for _, r := range s.requests {
		if r.URL == url {
			out = append(out, r)
		}
	}
	return out
}

// cancellingDoer calls cancel once a request to url has been answered.
type cancellingDoer struct {
	next   HttpDoer
	url    string
	cancel func()
}

func cancelAfter(next HttpDoer, url string, cancel func()) HttpDoer {
	return &cancellingDoer{next: next, url: url, cancel: cancel}
}

func (d *cancellingDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	resp, err := d.next.Do(req)
	if req.URL.Scheme+"://"+req.URL.Host+req.URL.Path == d.url {
		d.cancel()
	}
	return resp, err
}

var (
	fixedNow  = time.Unix(1700000002, 0)
	fixedSign = int64(1700000000)
)

func testClient(stub *stubDoer) *SkylandClient {
	return &SkylandClient{
		Client:    stub,
		DeviceID:  "BXYZ",
		UserAgent: AppUserAgent,
		Now:       func() time.Time { return fixedNow },
	}
}

const deviceOK = `{"code":1100,"detail":{"deviceId":"XYZ"},"requestId":"r1"}`
