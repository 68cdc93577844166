/*
 * Spswitch - A Shortest Path Switching Controller
 *
 * Copyright (C) 2015-2019 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package network

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

type SnapshotNode struct {
	ID   string   `json:"id"`
	Kind string   `json:"kind"`
	DPID uint64   `json:"dpid,omitempty"`
	MAC  string   `json:"mac,omitempty"`
	IPs  []string `json:"ips,omitempty"`
}

// SnapshotEdge connects port PortA of A to port PortB of B. A precedes B in the node order.
type SnapshotEdge struct {
	A     string `json:"a"`
	B     string `json:"b"`
	PortA uint32 `json:"port_a"`
	PortB uint32 `json:"port_b"`
}

// Snapshot is a point-in-time copy of the topology. Nodes are ordered switches first by DPID, then
// hosts by MAC address.
type Snapshot struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Nodes     []SnapshotNode `json:"nodes"`
	Edges     []SnapshotEdge `json:"edges"`
}

// Snapshot copies the topology with the mutex locked, so that it never observes a host whose
// addresses are being updated.
func (r *Topology) Snapshot() *Snapshot {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	switches := lo.Map(r.sortedSwitches(), func(sw *Switch, _ int) SnapshotNode {
		return SnapshotNode{
			ID:   sw.NodeID().String(),
			Kind: sw.NodeID().Kind().String(),
			DPID: sw.DPID(),
		}
	})
	hosts := lo.Map(r.hosts.all(), func(h *Host, _ int) SnapshotNode {
		return SnapshotNode{
			ID:   h.NodeID().String(),
			Kind: h.NodeID().Kind().String(),
			MAC:  h.MAC().String(),
			IPs:  lo.Map(h.IPs(), func(ip net.IP, _ int) string { return ip.String() }),
		}
	})

	nodes := append(switches, hosts...)
	known := lo.SliceToMap(nodes, func(n SnapshotNode) (string, bool) { return n.ID, true })
	edges := make([]SnapshotEdge, 0)
	for _, e := range r.graph.Edges() {
		v := SnapshotEdge{A: e.A.String(), B: e.B.String(), PortA: e.PortA, PortB: e.PortB}
		// Skip an edge whose endpoint is not listed as a node.
		if !known[v.A] || !known[v.B] {
			continue
		}
		edges = append(edges, v)
	}

	return &Snapshot{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Nodes:     nodes,
		Edges:     edges,
	}
}

func (r *Snapshot) String() string {
	return fmt.Sprintf("Snapshot ID=%v, # of nodes=%v, # of edges=%v", r.ID, len(r.Nodes), len(r.Edges))
}

type dotNode struct {
	id   int64
	node SnapshotNode
}

func (r dotNode) ID() int64 {
	return r.id
}

func (r dotNode) DOTID() string {
	return r.node.ID
}

func (r dotNode) Attributes() []encoding.Attribute {
	if r.node.Kind == "switch" {
		return []encoding.Attribute{{Key: "shape", Value: "box"}}
	}
	return []encoding.Attribute{
		{Key: "shape", Value: "ellipse"},
		{Key: "label", Value: fmt.Sprintf("%q", r.node.ID+"\n"+strings.Join(r.node.IPs, ","))},
	}
}

type dotEdge struct {
	from, to   dotNode
	tail, head uint32
}

func (r dotEdge) From() graph.Node {
	return r.from
}

func (r dotEdge) To() graph.Node {
	return r.to
}

func (r dotEdge) ReversedEdge() graph.Edge {
	return dotEdge{from: r.to, to: r.from, tail: r.head, head: r.tail}
}

func (r dotEdge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "taillabel", Value: fmt.Sprint(r.tail)},
		{Key: "headlabel", Value: fmt.Sprint(r.head)},
	}
}

// MarshalDOT encodes the snapshot in the Graphviz DOT language. Each edge is labelled with its port
// numbers.
func (r *Snapshot) MarshalDOT() ([]byte, error) {
	g := simple.NewUndirectedGraph()
	// Node IDs follow the node order, so that every edge is written from A to B.
	nodes := make(map[string]dotNode, len(r.Nodes))
	for i, v := range r.Nodes {
		n := dotNode{id: int64(i), node: v}
		nodes[v.ID] = n
		g.AddNode(n)
	}
	for _, v := range r.Edges {
		a, ok1 := nodes[v.A]
		b, ok2 := nodes[v.B]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("edge with an unknown endpoint: %v -- %v", v.A, v.B)
		}
		g.SetEdge(dotEdge{from: a, to: b, tail: v.PortA, head: v.PortB})
	}

	data, err := dot.Marshal(g, "topology", "", "\t")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode DOT")
	}

	return data, nil
}
