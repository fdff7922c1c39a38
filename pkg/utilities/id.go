package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewID returns the next snowflake id for a row. The node is created once
// from SNOWFLAKE_NODE (default 1) so ids stay monotonic within a process.
func NewID() int64 {
	nodeOnce.Do(func() {
		node = mustNode(nodeFromEnv())
	})
	return node.Generate().Int64()
}

// NewSnowflakeID generates a snowflake ID string using a node ID from
// the environment variable SNOWFLAKE_NODE.
func NewSnowflakeID() string {
	return strconv.FormatInt(NewID(), 10)
}

func nodeFromEnv() int64 {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		return 1
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		return 1
	}
	return nodeID
}

func mustNode(nodeID int64) *snowflake.Node {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		// out-of-range node ids fall back to node 1
		n, _ = snowflake.NewNode(1)
	}
	return n
}
