// internal/eventlistener/listener_test.go
package eventlistener

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testKey(t *testing.T) solana.PublicKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k.PublicKey()
}

func TestHandleMessage_SubscribeResponse(t *testing.T) {
	l := New("ws://localhost", zaptest.NewLogger(t))

	sub := &subscription{account: testKey(t), reqID: 1}
	l.pending[1] = sub

	l.handleMessage([]byte(`{"jsonrpc":"2.0","id":1,"result":23784}`))

	assert.Empty(t, l.pending)
	assert.Equal(t, uint64(23784), sub.subID)
	assert.Same(t, sub, l.active[23784])
}

func TestHandleMessage_SubscribeError(t *testing.T) {
	l := New("ws://localhost", zaptest.NewLogger(t))

	sub := &subscription{account: testKey(t), reqID: 7}
	l.pending[7] = sub

	l.handleMessage([]byte(`{"jsonrpc":"2.0","id":7,"error":{"code":-32602,"message":"Invalid params"}}`))

	assert.Empty(t, l.pending)
	assert.Zero(t, sub.subID)
	assert.Empty(t, l.active)
}

func TestHandleMessage_AccountNotification(t *testing.T) {
	l := New("ws://localhost", zaptest.NewLogger(t))
	account := testKey(t)

	var gotAccount solana.PublicKey
	var gotData []byte
	var gotSlot uint64
	l.active[42] = &subscription{
		account: account,
		subID:   42,
		handler: func(acc solana.PublicKey, data []byte, slot uint64) {
			gotAccount, gotData, gotSlot = acc, data, slot
		},
	}

	payload := base64.StdEncoding.EncodeToString([]byte{0xca, 0xfe})
	msg := fmt.Sprintf(`{
		"jsonrpc":"2.0",
		"method":"accountNotification",
		"params":{
			"subscription":42,
			"result":{
				"context":{"slot":5199307},
				"value":{"data":[%q,"base64"],"lamports":2039280}
			}
		}
	}`, payload)

	l.handleMessage([]byte(msg))

	assert.Equal(t, account, gotAccount)
	assert.Equal(t, []byte{0xca, 0xfe}, gotData)
	assert.Equal(t, uint64(5199307), gotSlot)
}

func TestHandleMessage_UnknownSubscription(t *testing.T) {
	l := New("ws://localhost", zaptest.NewLogger(t))

	// Notifications for a subscription that was since dropped are ignored.
	l.handleMessage([]byte(`{
		"jsonrpc":"2.0",
		"method":"accountNotification",
		"params":{"subscription":99,"result":{"context":{"slot":1},"value":{"data":["",""]}}}
	}`))
}

func TestSubscribeAccount_Duplicate(t *testing.T) {
	l := New("ws://localhost", zaptest.NewLogger(t))
	account := testKey(t)

	// Not connected yet: the subscription is queued for the reconnect loop.
	require.NoError(t, l.SubscribeAccount(account, func(solana.PublicKey, []byte, uint64) {}))
	assert.Error(t, l.SubscribeAccount(account, func(solana.PublicKey, []byte, uint64) {}))
}

func TestUnsubscribeAccount_Unknown(t *testing.T) {
	l := New("ws://localhost", zaptest.NewLogger(t))
	assert.Error(t, l.UnsubscribeAccount(testKey(t)))
}
