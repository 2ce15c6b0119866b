package host

import (
	"encoding/json"
	"sync"
)

// Instruction is a deterministic mutation against the reference KV store,
// grounded on the teacher's store.Instruction (Cmd, Key, Args) shape rather
// than raw bytes, so Payload.Bytes round-trips through something a reader
// can recognize as a real command format instead of an opaque blob.
type Instruction struct {
	Cmd  string   `json:"cmd"`
	Key  string   `json:"key"`
	Args []string `json:"args"`
}

// KVStore is a minimal deterministic executor exercising the Deliverer
// contract end to end in tests and cmd/demo. It is explicitly a reference
// adapter, not a production store — there is no durability here beyond the
// process's lifetime, and none is required of the host by spec.md.
type KVStore struct {
	mu       sync.Mutex
	data     map[string]string
	applied  map[int64]struct{}
}

func NewKVStore() *KVStore {
	return &KVStore{
		data:    make(map[string]string),
		applied: make(map[int64]struct{}),
	}
}

// DeliverClient decodes Bytes as an Instruction and applies it, skipping
// re-application if DeliveryID was already seen — the idempotence Delivery
// (§4.5) requires of the host.
func (k *KVStore) DeliverClient(p Payload) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, seen := k.applied[p.DeliveryID]; seen {
		return k.applyResult(p.Bytes)
	}

	var instr Instruction
	if err := json.Unmarshal(p.Bytes, &instr); err != nil {
		return nil, err
	}

	switch instr.Cmd {
	case "SET":
		if len(instr.Args) < 1 {
			return nil, errMissingArg
		}
		k.data[instr.Key] = instr.Args[0]
	case "DEL":
		delete(k.data, instr.Key)
	case "GET":
		// no mutation
	}
	k.applied[p.DeliveryID] = struct{}{}

	return k.applyResult(p.Bytes)
}

func (k *KVStore) applyResult(bytes []byte) ([]byte, error) {
	var instr Instruction
	if err := json.Unmarshal(bytes, &instr); err != nil {
		return nil, err
	}
	if val, ok := k.data[instr.Key]; ok {
		return []byte(val), nil
	}
	return nil, nil
}

// Get is a test/demo convenience, bypassing the consensus log entirely.
func (k *KVStore) Get(key string) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[key]
	return v, ok
}

var errMissingArg = jsonFieldError("SET requires one argument")

type jsonFieldError string

func (e jsonFieldError) Error() string { return string(e) }
