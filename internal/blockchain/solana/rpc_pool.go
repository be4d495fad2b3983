// internal/blockchain/solana/rpc_pool.go
package solana

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrNoActiveClients = errors.New("no active RPC clients in pool")

const (
	maxRetries = 3
	retryDelay = 200 * time.Millisecond
)

type node struct {
	endpoint string
	rpc      *rpc.Client
	limiter  *rate.Limiter

	mu     sync.Mutex
	active bool
}

func (n *node) isActive() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

func (n *node) setActive(active bool) {
	n.mu.Lock()
	n.active = active
	n.mu.Unlock()
}

// Pool is a round-robin set of RPC endpoints. Each endpoint carries its own
// request rate limit; endpoints that fail are parked and retried on later
// rotations.
type Pool struct {
	nodes  []*node
	logger *zap.Logger

	mu   sync.Mutex
	curr int
}

func NewPool(endpoints []string, reqPerSecond int, logger *zap.Logger) (*Pool, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("no RPC endpoints provided")
	}
	if reqPerSecond <= 0 {
		reqPerSecond = 10
	}

	nodes := make([]*node, 0, len(endpoints))
	for _, endpoint := range endpoints {
		nodes = append(nodes, &node{
			endpoint: endpoint,
			rpc:      rpc.New(endpoint),
			limiter:  rate.NewLimiter(rate.Limit(reqPerSecond), reqPerSecond),
			active:   true,
		})
	}
	return &Pool{nodes: nodes, logger: logger.Named("rpc-pool")}, nil
}

// next returns the next active node, reviving the whole pool when every
// node has been parked.
func (p *Pool) next() *node {
	p.mu.Lock()
	defer p.mu.Unlock()

	for range p.nodes {
		p.curr = (p.curr + 1) % len(p.nodes)
		if p.nodes[p.curr].isActive() {
			return p.nodes[p.curr]
		}
	}

	for _, n := range p.nodes {
		n.setActive(true)
	}
	return p.nodes[p.curr]
}

// execute runs the operation against the pool with per-node rate limiting,
// rotating to the next endpoint after a failure.
func (p *Pool) execute(ctx context.Context, operation func(*rpc.Client) error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n := p.next()
		if n == nil {
			return ErrNoActiveClients
		}
		if err := n.limiter.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		err := operation(n.rpc)
		if err == nil {
			return nil
		}

		lastErr = err
		n.setActive(false)
		p.logger.Debug("RPC call failed, rotating endpoint",
			zap.String("endpoint", n.endpoint),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		time.Sleep(retryDelay)
	}
	return lastErr
}
