package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
)

// sequentialIDs returns a generator producing risk-1, risk-2, ...
func sequentialIDs() func() model.RiskID {
	var mu sync.Mutex
	n := 0
	return func() model.RiskID {
		mu.Lock()
		defer mu.Unlock()
		n++
		return model.RiskID(fmt.Sprintf("risk-%d", n))
	}
}

// fakeClock advances by one second on every call
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

// failingStorage fails every call
type failingStorage struct {
	puts    int
	deletes int
}

var _ interfaces.Storage = &failingStorage{}

func (f *failingStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, goerr.New("storage unavailable")
}

func (f *failingStorage) Put(ctx context.Context, key string, value []byte) error {
	f.puts++
	return goerr.New("quota exceeded")
}

func (f *failingStorage) Delete(ctx context.Context, key string) error {
	f.deletes++
	return goerr.New("storage unavailable")
}

func (f *failingStorage) Close() error {
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
