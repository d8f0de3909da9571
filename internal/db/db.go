package db

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/parisxmas/checkindesk/internal/oxidb"
)

const (
	dialTimeout       = 5 * time.Second
	keepaliveInterval = 10 * time.Second
)

// Pool is a round-robin set of OxiDB connections with keepalive pings and
// reconnect on failure.
type Pool struct {
	host    string
	port    int
	logger  *slog.Logger
	mu      sync.RWMutex
	clients []*oxidb.Client
	idx     uint64
	stop    chan struct{}
	done    chan struct{}
	closed  sync.Once
}

// NewPool opens size connections to host:port.
func NewPool(host string, port, size int, logger *slog.Logger) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		host:    host,
		port:    port,
		logger:  logger,
		clients: make([]*oxidb.Client, size),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		c, err := oxidb.Connect(host, port, dialTimeout)
		if err != nil {
			close(p.done)
			p.Close()
			return nil, fmt.Errorf("pool: connect client %d: %w", i, err)
		}
		p.clients[i] = c
	}
	go p.keepalive()
	return p, nil
}

// Get returns the next client in round-robin order.
func (p *Pool) Get() *oxidb.Client {
	n := atomic.AddUint64(&p.idx, 1)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clients[n%uint64(len(p.clients))]
}

// Size is the number of connections in the pool.
func (p *Pool) Size() int {
	return len(p.clients)
}

func (p *Pool) reconnect(i int) {
	c, err := oxidb.Connect(p.host, p.port, dialTimeout)
	if err != nil {
		p.logger.Warn("pool: reconnect failed", slog.Int("client", i), slog.String("error", err.Error()))
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

func (p *Pool) keepalive() {
	defer close(p.done)
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for i := range p.clients {
				p.mu.RLock()
				c := p.clients[i]
				p.mu.RUnlock()
				ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
				_, err := c.Ping(ctx)
				cancel()
				if err != nil {
					p.logger.Warn("pool: ping failed, reconnecting", slog.Int("client", i), slog.String("error", err.Error()))
					p.reconnect(i)
				}
			}
		}
	}
}

// Close stops the keepalive loop and closes every connection.
func (p *Pool) Close() {
	p.closed.Do(func() {
		close(p.stop)
		<-p.done
		p.mu.Lock()
		defer p.mu.Unlock()
		for _, c := range p.clients {
			if c != nil {
				c.Close()
			}
		}
	})
}
