// Package fetcher downloads market-data JSON concurrently, validates each
// payload against the expected schema and extracts the normalized result.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// Result is the outcome of fetching one URL. Status 0 means the request
// never produced an HTTP response.
type Result[T any] struct {
	Payload T
	Status  int
	Err     string
}

// Erroneous reports whether the fetch failed: no HTTP status, a status of
// 400 or above, or a transport/validation error.
func (r Result[T]) Erroneous() bool {
	return r.Status == 0 || r.Status >= 400 || r.Err != ""
}

// Parser validates a JSON payload and extracts the typed result. A non-nil
// error means the payload failed schema validation; the message is kept as
// the per-URL error reason.
type Parser[T any] interface {
	Parse(body []byte) (T, error)
}

// FetchMany issues one GET per URL, all concurrently, and awaits them under
// a single aggregate timeout. The result slice preserves input URL order
// regardless of completion order. If the timeout elapses before every
// request completes, all URLs - finished or not - are marked erroneous with
// the same message: a batch shares fate, completed-but-late responses are
// not salvaged.
func FetchMany[T any](client *http.Client, urls []string, timeout time.Duration, parser Parser[T]) []Result[T] {
	if len(urls) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	results := make([]Result[T], len(urls))
	var wg sync.WaitGroup
	start := time.Now()
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = fetchOne(ctx, client, u, parser)
		}(i, u)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Printf("[INFO] fetched %d urls in %s", len(urls), time.Since(start))
		return results
	case <-ctx.Done():
		msg := fmt.Sprintf("the timeout limit (%s) has been exceeded during fetching %d urls", timeout, len(urls))
		log.Printf("[WARN] %s", msg)
		failed := make([]Result[T], len(urls))
		for i := range failed {
			failed[i] = Result[T]{Err: msg}
		}
		return failed
	}
}

func fetchOne[T any](ctx context.Context, client *http.Client, url string, parser Parser[T]) Result[T] {
	var res Result[T]
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	resp, err := client.Do(req)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	payload, err := parser.Parse(body)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Payload = payload
	return res
}

// ErroneousURLs returns the subset of urls whose results are erroneous,
// preserving order.
func ErroneousURLs[T any](urls []string, results []Result[T]) []string {
	var out []string
	for i, r := range results {
		if r.Erroneous() {
			out = append(out, urls[i])
		}
	}
	return out
}
