package journal

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"hash/crc32"
	"io"
	"os"
	"sync"

	"github.com/fspore/trex/node"
	"github.com/fspore/trex/paxos"
)

// File is a durable Journal backed by an append-only record file (one
// gob-encoded, crc32-framed record per Accept) plus a separate snapshot
// file for Progress, fsync'd before SaveProgress/Accept return. No
// third-party framing/serialization library in the retrieved pack fits this
// narrowly-scoped concern better than the standard library's own
// encoding/gob + hash/crc32 (see DESIGN.md); this is the one place this
// repository reaches for stdlib over an ecosystem dependency, and it's
// scoped tightly to on-disk framing, not to the ambient stack.
type File struct {
	lock     sync.Mutex
	dir      string
	log      *os.File
	progress paxos.Progress
	accepts  map[paxos.SlotIndex]paxos.Accept
	minSlot  paxos.SlotIndex
	maxSlot  paxos.SlotIndex
	loaded   bool
}

type progressRecord struct {
	HighestPromisedCounter int32
	HighestPromisedNode    int32
	CommittedOrigin        int32
	CommittedCounter       int32
	CommittedNode          int32
	CommittedSlot          int64
}

type acceptRecord struct {
	OriginNode int32
	Counter    int32
	BallotNode int32
	Slot       int64
	Kind       int
	ClientMsg  string
	Payload    []byte
}

// OpenFile opens (creating if necessary) a durable journal rooted at dir.
// It replays the accept log and progress snapshot synchronously; callers
// should treat OpenFile as the crash-recovery entry point for this journal
// implementation.
func OpenFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, Failure{Op: "mkdir", Err: err}
	}
	logFile, err := os.OpenFile(dir+"/accepts.log", os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, Failure{Op: "open accepts.log", Err: err}
	}
	f := &File{
		dir:     dir,
		log:     logFile,
		accepts: make(map[paxos.SlotIndex]paxos.Accept),
	}
	if err := f.replay(); err != nil {
		return nil, err
	}
	if err := f.loadProgressSnapshot(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) replay() error {
	if _, err := f.log.Seek(0, io.SeekStart); err != nil {
		return Failure{Op: "seek", Err: err}
	}
	r := bufio.NewReader(f.log)
	for {
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			if err == io.EOF {
				break
			}
			return Failure{Op: "read record length", Err: err}
		}
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Failure{Op: "read record", Err: err}
		}
		var sum uint32
		if err := binary.Read(r, binary.LittleEndian, &sum); err != nil {
			return Failure{Op: "read checksum", Err: err}
		}
		if crc32.ChecksumIEEE(buf) != sum {
			return Failure{Op: "replay", Err: errCorrupt}
		}
		var rec acceptRecord
		if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&rec); err != nil {
			return Failure{Op: "decode record", Err: err}
		}
		f.applyRecordUnlocked(rec)
	}
	if _, err := f.log.Seek(0, io.SeekEnd); err != nil {
		return Failure{Op: "seek end", Err: err}
	}
	return nil
}

func (f *File) applyRecordUnlocked(rec acceptRecord) {
	var v paxos.Value
	switch rec.Kind {
	case int(paxos.KindNoOp):
		v = paxos.NoOp{}
	case int(paxos.KindClientCommand):
		v = paxos.ClientCommand{ClientMsgID: rec.ClientMsg, Payload: rec.Payload}
	case int(paxos.KindMembershipChange):
		v = paxos.MembershipChange{Body: rec.Payload}
	}
	a := paxos.Accept{
		ID: paxos.Identifier{
			Origin: node.NodeId(rec.OriginNode),
			Number: paxos.BallotNumber{Counter: rec.Counter, NodeId: node.NodeId(rec.BallotNode)},
			Slot:   paxos.SlotIndex(rec.Slot),
		},
		Value: v,
	}
	slot := a.ID.Slot
	if !f.loaded || slot < f.minSlot {
		f.minSlot = slot
	}
	if slot > f.maxSlot {
		f.maxSlot = slot
	}
	f.loaded = true
	f.accepts[slot] = a
}

func (f *File) loadProgressSnapshot() error {
	data, err := os.ReadFile(f.dir + "/progress.snap")
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return Failure{Op: "read progress.snap", Err: err}
	}
	var rec progressRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return Failure{Op: "decode progress.snap", Err: err}
	}
	f.progress = paxos.Progress{
		HighestPromised: paxos.BallotNumber{Counter: rec.HighestPromisedCounter, NodeId: node.NodeId(rec.HighestPromisedNode)},
		HighestCommitted: paxos.Identifier{
			Origin: node.NodeId(rec.CommittedOrigin),
			Number: paxos.BallotNumber{Counter: rec.CommittedCounter, NodeId: node.NodeId(rec.CommittedNode)},
			Slot:   paxos.SlotIndex(rec.CommittedSlot),
		},
	}
	return nil
}

func (f *File) LoadProgress() (paxos.Progress, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.progress, nil
}

func (f *File) SaveProgress(p paxos.Progress) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	rec := progressRecord{
		HighestPromisedCounter: p.HighestPromised.Counter,
		HighestPromisedNode:    int32(p.HighestPromised.NodeId),
		CommittedOrigin:        int32(p.HighestCommitted.Origin),
		CommittedCounter:       p.HighestCommitted.Number.Counter,
		CommittedNode:          int32(p.HighestCommitted.Number.NodeId),
		CommittedSlot:          int64(p.HighestCommitted.Slot),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return Failure{Op: "encode progress.snap", Err: err}
	}
	tmp := f.dir + "/progress.snap.tmp"
	tmpFile, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return Failure{Op: "open progress.snap.tmp", Err: err}
	}
	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		tmpFile.Close()
		return Failure{Op: "write progress.snap", Err: err}
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return Failure{Op: "fsync progress.snap.tmp", Err: err}
	}
	if err := tmpFile.Close(); err != nil {
		return Failure{Op: "close progress.snap.tmp", Err: err}
	}
	if err := os.Rename(tmp, f.dir+"/progress.snap"); err != nil {
		return Failure{Op: "rename progress.snap", Err: err}
	}
	if err := syncDir(f.dir); err != nil {
		return Failure{Op: "fsync journal dir", Err: err}
	}
	f.progress = p
	return nil
}

// syncDir fsyncs a directory so a preceding rename within it is durable
// before returning — without this the rename from progress.snap.tmp to
// progress.snap can still be lost on a crash even though the file's own
// contents were synced first.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

func (f *File) Accept(accepts ...paxos.Accept) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, a := range accepts {
		var clientMsg string
		var payload []byte
		switch v := a.Value.(type) {
		case paxos.ClientCommand:
			clientMsg = v.ClientMsgID
			payload = v.Payload
		case paxos.MembershipChange:
			payload = v.Body
		}
		rec := acceptRecord{
			OriginNode: int32(a.ID.Origin),
			Counter:    a.ID.Number.Counter,
			BallotNode: int32(a.ID.Number.NodeId),
			Slot:       int64(a.ID.Slot),
			Kind:       int(a.Value.Kind()),
			ClientMsg:  clientMsg,
			Payload:    payload,
		}
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
			return Failure{Op: "encode accept", Err: err}
		}
		if err := binary.Write(f.log, binary.LittleEndian, uint32(buf.Len())); err != nil {
			return Failure{Op: "write record length", Err: err}
		}
		if _, err := f.log.Write(buf.Bytes()); err != nil {
			return Failure{Op: "write record", Err: err}
		}
		sum := crc32.ChecksumIEEE(buf.Bytes())
		if err := binary.Write(f.log, binary.LittleEndian, sum); err != nil {
			return Failure{Op: "write checksum", Err: err}
		}
		f.applyRecordUnlocked(rec)
	}
	return f.log.Sync()
}

func (f *File) Accepted(slot paxos.SlotIndex) (paxos.Accept, bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	a, ok := f.accepts[slot]
	return a, ok, nil
}

func (f *File) Bounds() (min, max paxos.SlotIndex, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.loaded {
		return 0, 0, nil
	}
	return f.minSlot, f.maxSlot, nil
}

func (f *File) Close() error {
	return f.log.Close()
}

var errCorrupt = corruptError("journal: checksum mismatch, file corrupt")

type corruptError string

func (e corruptError) Error() string { return string(e) }
