package fetcher

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// echoParser keeps the raw body, so tests can match responses to URLs.
type echoParser struct{}

func (echoParser) Parse(body []byte) (string, error) { return string(body), nil }

func TestResult_Erroneous(t *testing.T) {
	cases := []struct {
		name string
		r    Result[string]
		want bool
	}{
		{"ok", Result[string]{Status: 200}, false},
		{"no response", Result[string]{Status: 0}, true},
		{"client error", Result[string]{Status: 404}, true},
		{"server error", Result[string]{Status: 500}, true},
		{"validation error", Result[string]{Status: 200, Err: "no data"}, true},
	}
	for _, c := range cases {
		if got := c.r.Erroneous(); got != c.want {
			t.Errorf("%s: Erroneous() = %t, want %t", c.name, got, c.want)
		}
	}
}

func TestFetchMany_PreservesOrder(t *testing.T) {
	payloads := []string{"alpha", "beta", "gamma"}
	servers := make([]*httptest.Server, len(payloads))
	urls := make([]string, len(payloads))
	for i, p := range payloads {
		p := p
		servers[i] = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(p))
		}))
		defer servers[i].Close()
		urls[i] = servers[i].URL
	}

	results := FetchMany[string](http.DefaultClient, urls, 5*time.Second, echoParser{})
	if len(results) != len(urls) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(urls))
	}
	for i, r := range results {
		if r.Erroneous() {
			t.Errorf("result %d erroneous: status=%d err=%q", i, r.Status, r.Err)
		}
		if r.Payload != payloads[i] {
			t.Errorf("result %d = %q, want %q", i, r.Payload, payloads[i])
		}
	}
}

func TestFetchMany_ErrorIsolation(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("fine"))
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	urls := []string{ok.URL, bad.URL}
	results := FetchMany[string](http.DefaultClient, urls, 5*time.Second, echoParser{})
	if results[0].Erroneous() {
		t.Errorf("healthy URL marked erroneous: %+v", results[0])
	}
	if !results[1].Erroneous() || results[1].Status != 500 {
		t.Errorf("failing URL: %+v, want status 500", results[1])
	}

	errURLs := ErroneousURLs(urls, results)
	if len(errURLs) != 1 || errURLs[0] != bad.URL {
		t.Errorf("ErroneousURLs = %v, want [%s]", errURLs, bad.URL)
	}
}

// When the aggregate timeout fires, every URL of the batch reports the same
// failure, including ones that had already completed.
func TestFetchMany_TimeoutSharedFate(t *testing.T) {
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("fast"))
	}))
	defer fast.Close()
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte("slow"))
	}))
	defer slow.Close()

	results := FetchMany[string](http.DefaultClient, []string{fast.URL, slow.URL},
		50*time.Millisecond, echoParser{})
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for i, r := range results {
		if !r.Erroneous() {
			t.Errorf("result %d not erroneous after timeout: %+v", i, r)
		}
		if !strings.Contains(r.Err, "timeout limit") {
			t.Errorf("result %d err = %q, want timeout message", i, r.Err)
		}
	}
	if results[0].Err != results[1].Err {
		t.Errorf("timeout messages differ: %q vs %q", results[0].Err, results[1].Err)
	}
}

func TestFetchMany_Empty(t *testing.T) {
	if got := FetchMany[string](http.DefaultClient, nil, time.Second, echoParser{}); got != nil {
		t.Errorf("FetchMany(nil) = %v, want nil", got)
	}
}

func TestFetchMany_UnreachableHost(t *testing.T) {
	results := FetchMany[string](http.DefaultClient,
		[]string{"http://127.0.0.1:1/nothing"}, 5*time.Second, echoParser{})
	r := results[0]
	if !r.Erroneous() || r.Status != 0 || r.Err == "" {
		t.Errorf("unreachable host: %+v, want status 0 and an error", r)
	}
}
