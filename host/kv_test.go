package host

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instr(cmd, key string, args ...string) []byte {
	b, _ := json.Marshal(Instruction{Cmd: cmd, Key: key, Args: args})
	return b
}

func TestKVStoreSetThenGet(t *testing.T) {
	kv := NewKVStore()

	_, err := kv.DeliverClient(Payload{Bytes: instr("SET", "greeting", "hello"), DeliveryID: 1})
	require.NoError(t, err)

	val, err := kv.DeliverClient(Payload{Bytes: instr("GET", "greeting"), DeliveryID: 2})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(val))

	v, ok := kv.Get("greeting")
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestKVStoreDel(t *testing.T) {
	kv := NewKVStore()
	_, err := kv.DeliverClient(Payload{Bytes: instr("SET", "k", "v"), DeliveryID: 1})
	require.NoError(t, err)
	_, err = kv.DeliverClient(Payload{Bytes: instr("DEL", "k"), DeliveryID: 2})
	require.NoError(t, err)

	_, ok := kv.Get("k")
	assert.False(t, ok)
}

func TestKVStoreDeliverClientDedupesByDeliveryID(t *testing.T) {
	kv := NewKVStore()
	_, err := kv.DeliverClient(Payload{Bytes: instr("SET", "k", "first"), DeliveryID: 1})
	require.NoError(t, err)

	// Same DeliveryID replayed (retransmit or crash-recovery replay): must
	// not re-apply the mutation, even though Bytes now claims a new value.
	val, err := kv.DeliverClient(Payload{Bytes: instr("SET", "k", "second"), DeliveryID: 1})
	require.NoError(t, err)
	assert.Equal(t, "first", string(val))

	v, _ := kv.Get("k")
	assert.Equal(t, "first", v)
}

func TestKVStoreSetMissingArgErrors(t *testing.T) {
	kv := NewKVStore()
	_, err := kv.DeliverClient(Payload{Bytes: instr("SET", "k"), DeliveryID: 1})
	assert.Error(t, err)
}
