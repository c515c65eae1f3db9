package tracker

import "context"

// NoopTracker is a no-op implementation used when Redis is not configured.
type NoopTracker struct{}

func NewNoopTracker() *NoopTracker { return &NoopTracker{} }

func (*NoopTracker) Add(_ context.Context, _, _, _ string) error { return nil }
func (*NoopTracker) Pending(_ context.Context, _ string) (map[string]string, error) {
	return nil, nil
}
func (*NoopTracker) Remove(_ context.Context, _, _ string) error { return nil }
func (*NoopTracker) Close() error                                { return nil }
