package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Node IDs must differ between processes that ingest messages concurrently.
const (
	NodeBot    int64 = 1
	NodeServer int64 = 2
	NodeWorker int64 = 3
)

var (
	mu   sync.RWMutex
	node *snowflake.Node
)

// Init configures the generator for this process. Calling it again replaces the node.
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("creating snowflake node %d: %w", nodeID, err)
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// New returns a time-ordered event ID. Init must have been called.
func New() int64 {
	mu.RLock()
	defer mu.RUnlock()
	if node == nil {
		panic("id: New called before Init")
	}
	return node.Generate().Int64()
}
