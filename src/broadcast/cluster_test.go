package broadcast

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/net"
	"github.com/mosaicnetworks/glomers/src/node"
)

type testCluster struct {
	ids     []string
	network *net.InmemNetwork
	client  *net.Client
	errCh   chan error
}

func newTestCluster(t *testing.T, size int) *testCluster {
	ids := make([]string, size)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%d", i)
	}

	protocol := Protocol()
	network := net.NewInmemNetwork(message.NewCodec(protocol), common.NewTestEntry(t, "net"))

	conf := DefaultConfig()
	conf.GossipInterval = 10 * time.Millisecond
	factory := NewFactory(conf)

	errCh := make(chan error, size)
	for _, id := range ids {
		in, out, err := network.Attach(id)
		if err != nil {
			t.Fatalf("err: %v", err)
		}

		n := node.NewNode(node.TestConfig(t), protocol, factory, in, out)
		go func() {
			errCh <- n.Run()
		}()
	}

	client, err := network.NewClient("c1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	for _, id := range ids {
		reply, err := client.Request(id, message.Init{NodeID: id, NodeIDs: ids})
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if _, ok := reply.Body.Payload.(message.InitOk); !ok {
			t.Fatalf("expected init_ok from %s, got %s", id, reply.Type())
		}
	}

	return &testCluster{
		ids:     ids,
		network: network,
		client:  client,
		errCh:   errCh,
	}
}

// line connects every node to the next one.
func (c *testCluster) line(t *testing.T) {
	topology := make(map[string][]string)
	for i, id := range c.ids {
		if i > 0 {
			topology[id] = append(topology[id], c.ids[i-1])
		}
		if i < len(c.ids)-1 {
			topology[id] = append(topology[id], c.ids[i+1])
		}
	}

	for _, id := range c.ids {
		if _, err := c.client.Request(id, Topology{Topology: topology}); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
}

func (c *testCluster) read(t *testing.T, id string) []int {
	reply, err := c.client.Request(id, Read{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	return reply.Body.Payload.(ReadOk).Messages
}

// converge waits until every node reads want.
func (c *testCluster) converge(t *testing.T, want []int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)

	for {
		done := true
		for _, id := range c.ids {
			if !reflect.DeepEqual(c.read(t, id), want) {
				done = false
				break
			}
		}
		if done {
			return
		}

		if time.Now().After(deadline) {
			for _, id := range c.ids {
				t.Logf("%s: %v", id, c.read(t, id))
			}
			t.Fatalf("cluster did not converge to %v", want)
		}

		time.Sleep(20 * time.Millisecond)
	}
}

func (c *testCluster) close(t *testing.T) {
	c.network.Close()

	for range c.ids {
		select {
		case err := <-c.errCh:
			if err != nil {
				t.Fatalf("err: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for nodes to stop")
		}
	}
}

func TestClusterConverges(t *testing.T) {
	c := newTestCluster(t, 5)
	defer c.close(t)

	c.line(t)

	var want []int
	for v := 0; v < 20; v++ {
		id := c.ids[v%len(c.ids)]
		if _, err := c.client.Request(id, Broadcast{Message: v}); err != nil {
			t.Fatalf("err: %v", err)
		}
		want = append(want, v)
	}

	c.converge(t, want, 5*time.Second)
}

func TestClusterConvergesAfterPartition(t *testing.T) {
	c := newTestCluster(t, 5)
	defer c.close(t)

	c.line(t)

	c.network.Partition([]string{"n0", "n1"}, []string{"n2", "n3", "n4"})

	var want []int
	for v := 0; v < 10; v++ {
		id := c.ids[v%len(c.ids)]
		if _, err := c.client.Request(id, Broadcast{Message: v}); err != nil {
			t.Fatalf("err: %v", err)
		}
		want = append(want, v)
	}

	// let both sides gossip among themselves
	time.Sleep(100 * time.Millisecond)

	if got := c.read(t, "n0"); reflect.DeepEqual(got, want) {
		t.Fatalf("n0 should not see values from the other side yet")
	}

	c.network.Heal()

	c.converge(t, want, 5*time.Second)
}

func TestClusterConvergesWithLoss(t *testing.T) {
	c := newTestCluster(t, 5)
	defer c.close(t)

	c.line(t)

	// drop about a third of the envelopes between nodes
	rnd := rand.New(rand.NewSource(42))
	c.network.SetFilter(func(h message.Header) bool {
		return rnd.Float64() > 0.3
	})

	var want []int
	for v := 100; v < 110; v++ {
		if _, err := c.client.Request("n2", Broadcast{Message: v}); err != nil {
			t.Fatalf("err: %v", err)
		}
		want = append(want, v)
	}

	c.converge(t, want, 5*time.Second)

	if c.network.Dropped() == 0 {
		t.Fatalf("expected some envelopes to be dropped")
	}
}
