// Command demo wires three in-process replicas together over
// transport.Network and drives a handful of client commands through
// whichever one is Leader, the way the teacher's cluster package is
// exercised end to end in its own demo/integration paths.
package main

import (
	"fmt"
	"os"
	"time"

	logging "github.com/op/go-logging"

	"github.com/fspore/trex/clock"
	"github.com/fspore/trex/host"
	"github.com/fspore/trex/journal"
	"github.com/fspore/trex/metrics"
	"github.com/fspore/trex/node"
	"github.com/fspore/trex/paxos"
	"github.com/fspore/trex/transport"
)

type staticCluster struct{ size int }

func (c staticCluster) ClusterSize() int { return c.size }

type replica struct {
	id   node.NodeId
	disp *paxos.Dispatcher
	kv   *host.KVStore
}

func main() {
	logging.SetLevel(logging.INFO, "paxos")

	cfg := paxos.Config{LeaderTimeoutMin: 200 * time.Millisecond, LeaderTimeoutMax: 400 * time.Millisecond}
	cluster := staticCluster{size: 3}
	network := transport.NewNetwork()
	clk := clock.NewReal()

	replicas := make(map[node.NodeId]*replica, 3)
	for i := int32(1); i <= 3; i++ {
		id := node.NodeId(i)
		kv := host.NewKVStore()
		j := journal.NewMemory()
		tr := network.Register(id, func(from node.NodeId, msg interface{}) {
			m, ok := msg.(paxos.Message)
			if !ok {
				return
			}
			replicas[id].disp.HandleMessage(from, m)
		})

		disp, err := paxos.NewDispatcher(id, j, tr, kv, cluster, clk, cfg, metrics.Noop{})
		if err != nil {
			fmt.Fprintln(os.Stderr, "boot failed:", err)
			os.Exit(1)
		}
		disp.OnClientReply(func(r paxos.ClientReply) {
			if r.Err != nil {
				fmt.Printf("client reply error: %v\n", r.Err)
				return
			}
			fmt.Printf("client reply: %s\n", string(r.Payload))
		})

		replicas[id] = &replica{id: id, disp: disp, kv: kv}
	}

	stop := clk.ScheduleRepeated(50*time.Millisecond, func() {
		for _, r := range replicas {
			r.disp.HandleTick()
		}
	})
	defer stop()

	time.Sleep(600 * time.Millisecond)

	instr := []byte(`{"cmd":"SET","key":"greeting","args":["hello"]}`)
	msgID := host.NewClientMsgID()
	for _, r := range replicas {
		if r.disp.Agent().Role == paxos.Leader {
			r.disp.HandleClientCommand(paxos.ClientCommand{ClientMsgID: msgID, Payload: instr}, "demo-client", msgID)
			break
		}
	}

	time.Sleep(200 * time.Millisecond)

	for _, r := range replicas {
		if v, ok := r.kv.Get("greeting"); ok {
			fmt.Printf("node %v sees greeting=%s\n", r.id, v)
		}
	}
}
