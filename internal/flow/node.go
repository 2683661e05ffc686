// Package flow runs trees of typed stage nodes with fan-out/fan-in semantics.
//
// A tree is built once, validated against a Dispatcher, then submitted to a
// Scheduler. Leaves run first; a parent becomes ready only when every child
// has completed, and it receives the children's results in declaration order
// regardless of completion order. The first failure fails the node's whole
// ancestor chain without running any ancestor.
package flow

import "sync"

// StageType tags a node with the handler that executes it. The set of valid
// tags is closed and fixed when the Dispatcher is constructed.
type StageType string

type NodeStatus string

const (
	NodeStatusWaiting   NodeStatus = "waiting"
	NodeStatusReady     NodeStatus = "ready"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
)

// Terminal reports whether the node will not change status again.
func (s NodeStatus) Terminal() bool {
	return s == NodeStatusCompleted || s == NodeStatusFailed
}

// Node is one unit of orchestrated work. A node owns its children; a node
// must not appear under more than one parent.
type Node struct {
	ID       int64
	Type     StageType
	Payload  any
	Children []*Node

	parent  *Node
	index   int // position among the parent's children
	pending int // children not yet completed, guarded by Run.mu

	mu     sync.Mutex
	status NodeStatus
	result any
	err    error
}

// NewNode creates a waiting node with the given children in declaration order.
func NewNode(typ StageType, payload any, children ...*Node) *Node {
	return &Node{
		Type:     typ,
		Payload:  payload,
		Children: children,
		status:   NodeStatusWaiting,
	}
}

func (n *Node) Status() NodeStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.status == "" {
		return NodeStatusWaiting
	}
	return n.status
}

// Err returns the failure recorded on the node, if any.
func (n *Node) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func (n *Node) setStatus(s NodeStatus) {
	n.mu.Lock()
	n.status = s
	n.mu.Unlock()
}

func (n *Node) complete(result any) {
	n.mu.Lock()
	n.status = NodeStatusCompleted
	n.result = result
	n.mu.Unlock()
}

func (n *Node) fail(err error) {
	n.mu.Lock()
	n.status = NodeStatusFailed
	n.err = err
	n.mu.Unlock()
}

// takeResult hands the result to the consuming parent and drops the
// node's reference to it.
func (n *Node) takeResult() any {
	n.mu.Lock()
	defer n.mu.Unlock()
	r := n.result
	n.result = nil
	return r
}
