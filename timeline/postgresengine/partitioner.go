package postgresengine

import (
	"fmt"

	"github.com/buraksezer/consistent"
	"github.com/cespare/xxhash"
)

const (
	partitionCount    = 271
	replicationFactor = 20
	partitionLoad     = 1.25
)

type hasher struct{}

func (h hasher) Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// shardMember is one shard on the hash ring, named by its position in the connection list.
type shardMember struct {
	index int
	name  string
}

func (m shardMember) String() string {
	return m.name
}

// partitioner maps usernames to shard indexes by consistent hashing.
// It is immutable after construction and safe for concurrent use.
type partitioner struct {
	ring   *consistent.Consistent
	shards int
}

func newPartitioner(shardCount int) *partitioner {
	conf := consistent.Config{
		PartitionCount:    partitionCount,
		ReplicationFactor: replicationFactor,
		Load:              partitionLoad,
		Hasher:            hasher{},
	}

	members := make([]consistent.Member, 0, shardCount)
	for i := 0; i < shardCount; i++ {
		members = append(members, shardMember{index: i, name: fmt.Sprintf("shard-%d", i)})
	}

	return &partitioner{
		ring:   consistent.New(members, conf),
		shards: shardCount,
	}
}

// shardFor returns the index of the shard owning the given username.
func (p *partitioner) shardFor(username string) int {
	if p.shards == 1 {
		return 0
	}

	return p.ring.LocateKey([]byte(username)).(shardMember).index
}
