package db

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/marcella-castro/check-pesquisa-mj/internal/oxidb"
)

const (
	dialTimeout       = 5 * time.Second
	keepaliveInterval = 10 * time.Second
)

// Pool is a round-robin connection pool for OxiDB with keepalive pings and
// reconnect.
type Pool struct {
	addr     string
	clients  []*oxidb.Client
	mu       sync.RWMutex
	idx      uint64
	stop     chan struct{}
	stopOnce sync.Once
}

// NewPool opens size connections to addr and starts the keepalive loop.
func NewPool(ctx context.Context, addr string, size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool: size must be at least 1, got %d", size)
	}
	p := &Pool{
		addr:    addr,
		clients: make([]*oxidb.Client, size),
		stop:    make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		c, err := oxidb.Connect(ctx, addr, dialTimeout)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("pool: connect client %d: %w", i, err)
		}
		p.clients[i] = c
	}
	go p.keepalive(keepaliveInterval)
	return p, nil
}

// Get returns the next client in round-robin order.
func (p *Pool) Get() *oxidb.Client {
	n := atomic.AddUint64(&p.idx, 1)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clients[n%uint64(len(p.clients))]
}

func (p *Pool) Size() int {
	return len(p.clients)
}

// Ping checks every connection.
func (p *Pool) Ping(ctx context.Context) error {
	p.mu.RLock()
	clients := append([]*oxidb.Client(nil), p.clients...)
	p.mu.RUnlock()
	for i, c := range clients {
		if _, err := c.Ping(ctx); err != nil {
			return fmt.Errorf("pool: client %d: %w", i, err)
		}
	}
	return nil
}

func (p *Pool) reconnect(i int) {
	c, err := oxidb.Connect(context.Background(), p.addr, dialTimeout)
	if err != nil {
		zap.S().Warnw("OxiDB reconnect failed", "client", i, "error", err)
		return
	}
	p.mu.Lock()
	old := p.clients[i]
	p.clients[i] = c
	p.mu.Unlock()
	if old != nil {
		old.Close()
	}
}

func (p *Pool) keepalive(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for i := 0; i < len(p.clients); i++ {
				p.mu.RLock()
				c := p.clients[i]
				p.mu.RUnlock()
				ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
				_, err := c.Ping(ctx)
				cancel()
				if err != nil {
					zap.S().Warnw("OxiDB ping failed, reconnecting", "client", i, "error", err)
					p.reconnect(i)
				}
			}
		}
	}
}

// Close stops the keepalive loop and closes every connection.
func (p *Pool) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clients {
		if c != nil {
			c.Close()
		}
	}
}
