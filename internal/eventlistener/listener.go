// Package eventlistener maintains a websocket subscription to Solana
// accounts and delivers change notifications to registered handlers.
package eventlistener

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout      = 10 * time.Second
	reconnectInterval = 5 * time.Second
)

// AccountHandler receives the raw account data for a changed account
// together with the slot the change was observed at.
type AccountHandler func(account solana.PublicKey, data []byte, slot uint64)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type notification struct {
	Method string `json:"method"`
	Params struct {
		Subscription uint64 `json:"subscription"`
		Result       struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Data []string `json:"data"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

type subscription struct {
	account solana.PublicKey
	handler AccountHandler
	subID   uint64
	reqID   uint64
}

// Listener subscribes to account changes over the Solana websocket RPC.
// Lost connections are re-established and all subscriptions replayed.
type Listener struct {
	endpoint string
	logger   *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	nextID    uint64
	pending   map[uint64]*subscription // request id -> awaiting confirmation
	active    map[uint64]*subscription // subscription id -> live
	byAccount map[solana.PublicKey]*subscription

	done chan struct{}
	once sync.Once
}

func New(endpoint string, logger *zap.Logger) *Listener {
	return &Listener{
		endpoint:  endpoint,
		logger:    logger.With(zap.String("component", "eventlistener")),
		pending:   make(map[uint64]*subscription),
		active:    make(map[uint64]*subscription),
		byAccount: make(map[solana.PublicKey]*subscription),
		done:      make(chan struct{}),
	}
}

// Start connects to the websocket endpoint and begins dispatching
// notifications. It returns once the initial connection is established.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.connect(ctx); err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	go l.readLoop()
	go l.reconnectLoop(ctx)
	return nil
}

// Close tears down the connection and stops all background loops.
func (l *Listener) Close() error {
	l.once.Do(func() { close(l.done) })

	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = false
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}

// SubscribeAccount registers a handler for changes to the given account.
// The subscription survives reconnects.
func (l *Listener) SubscribeAccount(account solana.PublicKey, handler AccountHandler) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byAccount[account]; ok {
		return fmt.Errorf("already subscribed to %s", account)
	}

	sub := &subscription{account: account, handler: handler}
	l.byAccount[account] = sub
	if !l.connected {
		// Picked up by the reconnect loop.
		return nil
	}
	return l.sendSubscribeLocked(sub)
}

// UnsubscribeAccount removes the handler for the account.
func (l *Listener) UnsubscribeAccount(account solana.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub, ok := l.byAccount[account]
	if !ok {
		return fmt.Errorf("not subscribed to %s", account)
	}
	delete(l.byAccount, account)
	if sub.subID != 0 {
		delete(l.active, sub.subID)
	}
	if sub.reqID != 0 {
		delete(l.pending, sub.reqID)
	}
	if !l.connected || sub.subID == 0 {
		return nil
	}

	l.nextID++
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      l.nextID,
		Method:  "accountUnsubscribe",
		Params:  []interface{}{sub.subID},
	}
	return l.writeLocked(req)
}

func (l *Listener) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.endpoint, nil)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.conn = conn
	l.connected = true
	l.logger.Info("connected", zap.String("endpoint", l.endpoint))
	return nil
}

func (l *Listener) sendSubscribeLocked(sub *subscription) error {
	l.nextID++
	sub.reqID = l.nextID
	l.pending[sub.reqID] = sub

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      sub.reqID,
		Method:  "accountSubscribe",
		Params: []interface{}{
			sub.account.String(),
			map[string]interface{}{
				"encoding":   "base64",
				"commitment": "confirmed",
			},
		},
	}
	return l.writeLocked(req)
}

func (l *Listener) writeLocked(req rpcRequest) error {
	if l.conn == nil {
		return fmt.Errorf("not connected")
	}
	l.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return l.conn.WriteJSON(req)
}

func (l *Listener) readLoop() {
	for {
		l.mu.Lock()
		conn := l.conn
		connected := l.connected
		l.mu.Unlock()
		if !connected || conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-l.done:
				return
			default:
			}
			l.logger.Warn("read failed, marking disconnected", zap.Error(err))
			l.mu.Lock()
			l.connected = false
			l.mu.Unlock()
			return
		}
		l.handleMessage(raw)
	}
}

func (l *Listener) handleMessage(raw []byte) {
	var note notification
	if err := json.Unmarshal(raw, &note); err == nil && note.Method == "accountNotification" {
		l.handleNotification(&note)
		return
	}

	var resp rpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		l.logger.Debug("unparseable message", zap.ByteString("raw", raw))
		return
	}
	l.handleResponse(&resp)
}

func (l *Listener) handleResponse(resp *rpcResponse) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub, ok := l.pending[resp.ID]
	if !ok {
		return
	}
	delete(l.pending, resp.ID)

	if resp.Error != nil {
		l.logger.Error("subscribe failed",
			zap.String("account", sub.account.String()),
			zap.Error(resp.Error))
		return
	}

	var subID uint64
	if err := json.Unmarshal(resp.Result, &subID); err != nil {
		l.logger.Error("bad subscribe result", zap.Error(err))
		return
	}
	sub.subID = subID
	l.active[subID] = sub
	l.logger.Info("subscribed",
		zap.String("account", sub.account.String()),
		zap.Uint64("subscription", subID))
}

func (l *Listener) handleNotification(note *notification) {
	l.mu.Lock()
	sub, ok := l.active[note.Params.Subscription]
	l.mu.Unlock()
	if !ok {
		return
	}

	if len(note.Params.Result.Value.Data) == 0 {
		return
	}
	data, err := base64.StdEncoding.DecodeString(note.Params.Result.Value.Data[0])
	if err != nil {
		l.logger.Warn("bad account data encoding",
			zap.String("account", sub.account.String()),
			zap.Error(err))
		return
	}
	sub.handler(sub.account, data, note.Params.Result.Context.Slot)
}

func (l *Listener) reconnectLoop(ctx context.Context) {
	ticker := time.NewTicker(reconnectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			connected := l.connected
			l.mu.Unlock()
			if connected {
				continue
			}
			if err := l.reconnect(ctx); err != nil {
				l.logger.Warn("reconnect failed", zap.Error(err))
			}
		}
	}
}

func (l *Listener) reconnect(ctx context.Context) error {
	l.mu.Lock()
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
	l.mu.Unlock()

	if err := l.connect(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	l.pending = make(map[uint64]*subscription)
	l.active = make(map[uint64]*subscription)
	var firstErr error
	for _, sub := range l.byAccount {
		sub.subID = 0
		if err := l.sendSubscribeLocked(sub); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.mu.Unlock()

	go l.readLoop()
	return firstErr
}
