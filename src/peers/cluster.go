package peers

import (
	"github.com/mosaicnetworks/glomers/src/common"
)

// Cluster is the fixed membership announced by the init handshake. It never
// changes after construction.
type Cluster struct {
	Self   string
	ids    []string
	byID   map[string]int
	others []string
}

// NewCluster creates a Cluster from the node_ids of an init message. self must
// be one of ids.
func NewCluster(self string, ids []string) (*Cluster, error) {
	c := &Cluster{
		Self: self,
		ids:  make([]string, len(ids)),
		byID: make(map[string]int, len(ids)),
	}

	copy(c.ids, ids)

	for i, id := range c.ids {
		c.byID[id] = i
	}

	index, others := ExcludeNode(c.ids, self)
	if index < 0 {
		return nil, common.NewProtocolErr("Cluster", common.UnknownNode, self)
	}
	c.others = others

	return c, nil
}

// IDs returns the node ids in the order of the init message.
func (c *Cluster) IDs() []string {
	return c.ids
}

// Others returns every node id except Self.
func (c *Cluster) Others() []string {
	return c.others
}

// Contains reports whether id is a member of the cluster.
func (c *Cluster) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Index returns the position of id in the init message. Every node receives
// the same list, so indexes agree across the cluster.
func (c *Cluster) Index(id string) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// SelfIndex returns the Index of Self.
func (c *Cluster) SelfIndex() int {
	i, _ := c.Index(c.Self)
	return i
}

// Len returns the number of nodes.
func (c *Cluster) Len() int {
	return len(c.ids)
}

// ExcludeNode is used to exclude a single node from a list of nodes.
func ExcludeNode(ids []string, node string) (int, []string) {
	index := -1
	others := make([]string, 0, len(ids))
	for i, id := range ids {
		if id != node {
			others = append(others, id)
		} else {
			index = i
		}
	}
	return index, others
}
