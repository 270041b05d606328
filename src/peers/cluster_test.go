package peers

import (
	"reflect"
	"testing"

	"github.com/mosaicnetworks/glomers/src/common"
)

func TestNewCluster(t *testing.T) {
	ids := []string{"n0", "n1", "n2"}

	c, err := NewCluster("n1", ids)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	ids[0] = "mutated"
	if !reflect.DeepEqual(c.IDs(), []string{"n0", "n1", "n2"}) {
		t.Fatalf("cluster should own a copy of the ids, got %v", c.IDs())
	}

	if !reflect.DeepEqual(c.Others(), []string{"n0", "n2"}) {
		t.Fatalf("wrong others: %v", c.Others())
	}

	if c.SelfIndex() != 1 || c.Len() != 3 {
		t.Fatalf("wrong self index %d or length %d", c.SelfIndex(), c.Len())
	}

	if i, ok := c.Index("n2"); !ok || i != 2 {
		t.Fatalf("n2 should have index 2, got %d %v", i, ok)
	}

	if c.Contains("c1") {
		t.Fatalf("clients are not cluster members")
	}
}

func TestNewClusterSelfAtEdges(t *testing.T) {
	ids := []string{"n0", "n1", "n2"}

	first, err := NewCluster("n0", ids)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if first.SelfIndex() != 0 || !reflect.DeepEqual(first.Others(), []string{"n1", "n2"}) {
		t.Fatalf("wrong first node: %d %v", first.SelfIndex(), first.Others())
	}

	last, err := NewCluster("n2", ids)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if last.SelfIndex() != 2 || !reflect.DeepEqual(last.Others(), []string{"n0", "n1"}) {
		t.Fatalf("wrong last node: %d %v", last.SelfIndex(), last.Others())
	}

	single, err := NewCluster("n0", []string{"n0"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(single.Others()) != 0 {
		t.Fatalf("a single node has no others: %v", single.Others())
	}
}

func TestNewClusterUnknownSelf(t *testing.T) {
	_, err := NewCluster("n7", []string{"n0", "n1"})
	if !common.IsProtocol(err, common.UnknownNode) {
		t.Fatalf("expected UnknownNode, got %v", err)
	}
}

func TestExcludeNode(t *testing.T) {
	index, others := ExcludeNode([]string{"a", "b", "c"}, "b")
	if index != 1 || !reflect.DeepEqual(others, []string{"a", "c"}) {
		t.Fatalf("got %d %v", index, others)
	}

	index, others = ExcludeNode([]string{"a"}, "z")
	if index != -1 || !reflect.DeepEqual(others, []string{"a"}) {
		t.Fatalf("got %d %v", index, others)
	}
}
