package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string. Used for object
// storage keys, where the k-sortable prefix keeps uploads roughly ordered.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewRequestID generates a snowflake ID string for request correlation,
// using a node ID from the environment variable SNOWFLAKE_NODE. Node setup
// failures fall back to node 1 so an ID is still produced.
func NewRequestID() string {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	nodeID := int64(1)
	if nodeEnv != "" {
		if parsed, err := strconv.ParseInt(nodeEnv, 10, 64); err == nil {
			nodeID = parsed
		}
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return NewKSUID()
	}
	return node.Generate().String()
}
