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

package graph

import (
	"bytes"
	"container/list"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/op/go-logging"
)

var (
	logger = logging.MustGetLogger("graph")
)

var (
	ErrUnknownVertex = errors.New("unknown vertex")
	ErrSelfLoop      = errors.New("self-loop edge")
)

// Edge is a bi-directional link between two vertexies. A is always less than B.
type Edge struct {
	A, B         NodeID
	PortA, PortB uint32 // PortA is the port on A toward B, and vice versa.
}

func (r Edge) String() string {
	return fmt.Sprintf("%v:%v/%v:%v", r.A, r.PortA, r.B, r.PortB)
}

// Graph is an undirected and unweighted graph. Each vertex keeps its neighbors with the port number
// on the vertex toward each neighbor, so that an edge and its port numbers are stored in one place.
type Graph struct {
	mutex sync.RWMutex
	// vertexies[v][n] is the port on v toward n.
	vertexies map[NodeID]map[NodeID]uint32
}

func New() *Graph {
	return &Graph{
		vertexies: make(map[NodeID]map[NodeID]uint32),
	}
}

func (r *Graph) String() string {
	var buf bytes.Buffer
	for _, e := range r.Edges() {
		buf.WriteString(fmt.Sprintf("Edge ID=%v\n", e))
	}

	return buf.String()
}

// AddVertex returns false if v already exists.
func (r *Graph) AddVertex(v NodeID) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Check duplication
	if _, ok := r.vertexies[v]; ok {
		return false
	}
	r.vertexies[v] = make(map[NodeID]uint32)

	return true
}

// RemoveVertex removes v and all the edges connected to v.
func (r *Graph) RemoveVertex(v NodeID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	neighbors, ok := r.vertexies[v]
	if !ok {
		return
	}
	for n := range neighbors {
		delete(r.vertexies[n], v)
	}
	delete(r.vertexies, v)
	logger.Debugf("removed a vertex: id=%v", v)
}

func (r *Graph) HasVertex(v NodeID) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.vertexies[v]
	return ok
}

// AddEdge adds an edge between a and b, or updates the port numbers if the edge already exists.
// portA is the port on a toward b, and portB is the port on b toward a.
func (r *Graph) AddEdge(a NodeID, portA uint32, b NodeID, portB uint32) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if a == b {
		return ErrSelfLoop
	}
	first, ok1 := r.vertexies[a]
	second, ok2 := r.vertexies[b]
	if !ok1 || !ok2 {
		return ErrUnknownVertex
	}

	// Both directions are always written together.
	first[b] = portA
	second[a] = portB
	logger.Debugf("added an edge: %v:%v/%v:%v", a, portA, b, portB)

	return nil
}

// RemoveEdge returns false if there is no edge between a and b.
func (r *Graph) RemoveEdge(a, b NodeID) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	first, ok1 := r.vertexies[a]
	second, ok2 := r.vertexies[b]
	if !ok1 || !ok2 {
		return false
	}
	_, ok := first[b]
	if !ok {
		return false
	}
	delete(first, b)
	delete(second, a)
	logger.Debugf("removed an edge: %v/%v", a, b)

	return true
}

func (r *Graph) HasEdge(a, b NodeID) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok1 := r.vertexies[a][b]
	_, ok2 := r.vertexies[b][a]
	return ok1 && ok2
}

// Port returns the port on a toward b.
func (r *Graph) Port(a, b NodeID) (port uint32, ok bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	port, ok = r.vertexies[a][b]
	return port, ok
}

// Neighbor returns the vertex connected to port of v.
func (r *Graph) Neighbor(v NodeID, port uint32) (NodeID, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, n := range sortedNeighbors(r.vertexies[v]) {
		if r.vertexies[v][n] == port {
			return n, true
		}
	}

	return NodeID{}, false
}

// Neighbors returns the vertexies adjacent to v in NodeID order.
func (r *Graph) Neighbors(v NodeID) []NodeID {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return sortedNeighbors(r.vertexies[v])
}

// Vertexies returns all the vertexies in NodeID order.
func (r *Graph) Vertexies() []NodeID {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]NodeID, 0, len(r.vertexies))
	for v := range r.vertexies {
		result = append(result, v)
	}
	sortNodes(result)

	return result
}

// Edges returns all the edges sorted by their endpoints.
func (r *Graph) Edges() []Edge {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Edge, 0)
	for v, neighbors := range r.vertexies {
		for n, port := range neighbors {
			// Each edge is visited twice. Take it from the lesser endpoint.
			if !v.Less(n) {
				continue
			}
			result = append(result, Edge{A: v, B: n, PortA: port, PortB: r.vertexies[n][v]})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].A != result[j].A {
			return result[i].A.Less(result[j].A)
		}
		return result[i].B.Less(result[j].B)
	})

	return result
}

// Len returns the number of vertexies.
func (r *Graph) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.vertexies)
}

func sortNodes(nodes []NodeID) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Less(nodes[j]) })
}

func sortedNeighbors(neighbors map[NodeID]uint32) []NodeID {
	result := make([]NodeID, 0, len(neighbors))
	for n := range neighbors {
		result = append(result, n)
	}
	sortNodes(result)

	return result
}

type queue struct {
	list *list.List
}

func newQueue() *queue {
	return &queue{list.New()}
}

func (r *queue) enqueue(v NodeID) {
	r.list.PushBack(v)
}

func (r *queue) dequeue() NodeID {
	v := r.list.Front()
	r.list.Remove(v)
	return v.Value.(NodeID)
}

func (r *queue) length() int {
	return r.list.Len()
}

// FindPath returns the shortest sequence of switch vertexies from src to dst, including both of
// them, using BFS. Every edge costs one hop and host vertexies are never used as a transit. It
// returns nil if src or dst does not exist or there is no path between them.
func (r *Graph) FindPath(src, dst NodeID) []NodeID {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if _, ok := r.vertexies[src]; !ok {
		return nil
	}
	if _, ok := r.vertexies[dst]; !ok {
		return nil
	}
	if src == dst {
		return []NodeID{src}
	}

	visited := map[NodeID]bool{src: true}
	prev := make(map[NodeID]NodeID)
	queue := newQueue()
	queue.enqueue(src)

	// Implementation of BFS algorithm
	for queue.length() > 0 {
		v := queue.dequeue()
		if v == dst {
			break
		}
		// Neighbors are visited in NodeID order to make the result deterministic.
		for _, next := range sortedNeighbors(r.vertexies[v]) {
			if next.IsHost() {
				continue
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = v
			queue.enqueue(next)
		}
	}
	if !visited[dst] {
		return nil
	}

	result := []NodeID{dst}
	for u := dst; u != src; {
		u = prev[u]
		result = append(result, u)
	}

	return reverse(result)
}

func reverse(data []NodeID) []NodeID {
	length := len(data)
	result := make([]NodeID, length)
	for i, j := 0, length-1; i < length; i, j = i+1, j-1 {
		result[i] = data[j]
	}

	return result
}
