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
	"bytes"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/superkkt/spswitch/graph"
	"github.com/superkkt/spswitch/metrics"
)

var (
	ErrUnknownSwitch = errors.New("unknown switch")
	ErrInvalidMAC    = errors.New("invalid MAC address")
)

type TopologyListener interface {
	OnTopologyChange(*Topology)
}

type TopologyConfig struct {
	// Zero disables the path cache.
	PathCacheSize int
	Metrics       *metrics.Registry
}

// Topology is the single source of truth for what is connected to what. It keeps the switches,
// the hosts and the links among them in one undirected graph, and locates hosts by their addresses.
type Topology struct {
	mutex    sync.RWMutex
	graph    *graph.Graph
	switches map[uint64]*Switch
	hosts    *hostIndex
	paths    *pathCache
	listener TopologyListener
	metrics  *metrics.Registry
}

func NewTopology(conf TopologyConfig) *Topology {
	m := conf.Metrics
	if m == nil {
		m = metrics.NewRegistry()
	}

	return &Topology{
		graph:    graph.New(),
		switches: make(map[uint64]*Switch),
		hosts:    newHostIndex(),
		paths:    newPathCache(conf.PathCacheSize),
		metrics:  m,
	}
}

func (r *Topology) SetListener(l TopologyListener) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.listener = l
}

// changed should be called with the mutex locked. It returns the listener to be notified after
// unlocking the mutex. Otherwise, a listener calling other topology functions will cause a deadlock.
func (r *Topology) changed() TopologyListener {
	r.paths.purge()
	r.metrics.UpdateTopology(len(r.switches), len(r.hosts.hosts), r.countLinks())

	return r.listener
}

func notify(l TopologyListener, t *Topology) {
	if l == nil {
		return
	}
	l.OnTopologyChange(t)
}

func (r *Topology) countLinks() int {
	count := 0
	for _, e := range r.graph.Edges() {
		if e.A.IsSwitch() && e.B.IsSwitch() {
			count++
		}
	}
	return count
}

// AddSwitch registers a switch. A switch that is already known gets the new datapath handle and
// ports, and keeps its links. It returns false in that case.
func (r *Topology) AddSwitch(dp Datapath, ports []Port) bool {
	r.mutex.Lock()
	dpid := dp.ID()
	sw, ok := r.switches[dpid]
	if ok {
		sw.datapath = dp
		sw.setPorts(ports)
	} else {
		r.switches[dpid] = newSwitch(dp, ports)
		r.graph.AddVertex(graph.SwitchID(dpid))
	}
	l := r.changed()
	r.mutex.Unlock()

	if ok {
		logger.Debugf("refreshed the known switch: DPID=%v", dpid)
	} else {
		logger.Infof("added a new switch: DPID=%v, # of ports=%v", dpid, len(ports))
	}
	notify(l, r)

	return !ok
}

// RemoveSwitch removes the switch, its links and the hosts attached to it. It returns the removed
// hosts, and false if the switch is unknown.
func (r *Topology) RemoveSwitch(dpid uint64) (hosts []*Host, ok bool) {
	r.mutex.Lock()
	if _, ok := r.switches[dpid]; !ok {
		r.mutex.Unlock()
		return nil, false
	}
	hosts = r.hosts.removeOnSwitch(dpid)
	for _, h := range hosts {
		r.graph.RemoveVertex(h.NodeID())
	}
	r.graph.RemoveVertex(graph.SwitchID(dpid))
	delete(r.switches, dpid)
	l := r.changed()
	r.mutex.Unlock()

	logger.Infof("removed the switch: DPID=%v, # of detached hosts=%v", dpid, len(hosts))
	notify(l, r)

	return hosts, true
}

// AddHost registers a host attached to loc, or moves a known host to loc. moved is true if the host
// was attached to somewhere else; the caller should evict the flows of the host in that case.
func (r *Topology) AddHost(mac net.HardwareAddr, ips []net.IP, loc Location) (host *Host, moved bool, err error) {
	if len(mac) != 6 {
		return nil, false, ErrInvalidMAC
	}

	r.mutex.Lock()
	if _, ok := r.switches[loc.DPID]; !ok {
		r.mutex.Unlock()
		return nil, false, ErrUnknownSwitch
	}
	if n, ok := r.graph.Neighbor(graph.SwitchID(loc.DPID), loc.Port); ok && n.IsSwitch() {
		logger.Warningf("host %v is attached to a port linked to %v: s%v/%v", mac, n, loc.DPID, loc.Port)
	}

	host, moved, prev := r.hosts.add(mac, ips, loc)
	id := graph.HostID(mac)
	if moved {
		r.graph.RemoveEdge(id, graph.SwitchID(prev.DPID))
	}
	r.graph.AddVertex(id)
	if err := r.graph.AddEdge(graph.SwitchID(loc.DPID), loc.Port, id, 0); err != nil {
		panic(fmt.Sprintf("failed to attach a host to a known switch: %v", err))
	}
	l := r.changed()
	r.mutex.Unlock()

	if moved {
		logger.Infof("host moved: MAC=%v, %v -> %v", mac, prev, loc)
	} else {
		logger.Infof("added a host: MAC=%v, IPs=%v, Location=%v", mac, ips, loc)
	}
	notify(l, r)

	return host, moved, nil
}

// AddLink adds an undirected link between (a, portA) and (b, portB). Both directions are always
// recorded together.
func (r *Topology) AddLink(a uint64, portA uint32, b uint64, portB uint32) error {
	r.mutex.Lock()
	_, ok1 := r.switches[a]
	_, ok2 := r.switches[b]
	if !ok1 || !ok2 {
		r.mutex.Unlock()
		return ErrUnknownSwitch
	}
	if err := r.graph.AddEdge(graph.SwitchID(a), portA, graph.SwitchID(b), portB); err != nil {
		r.mutex.Unlock()
		return err
	}
	l := r.changed()
	r.mutex.Unlock()

	logger.Infof("added a link: s%v/%v <-> s%v/%v", a, portA, b, portB)
	notify(l, r)

	return nil
}

// RemoveLink removes the link between (a, portA) and (b, portB). It returns false if there is no
// such link, including the case where a and b are linked through other ports.
func (r *Topology) RemoveLink(a uint64, portA uint32, b uint64, portB uint32) bool {
	r.mutex.Lock()
	pa, ok1 := r.graph.Port(graph.SwitchID(a), graph.SwitchID(b))
	pb, ok2 := r.graph.Port(graph.SwitchID(b), graph.SwitchID(a))
	if !ok1 || !ok2 || pa != portA || pb != portB {
		r.mutex.Unlock()
		return false
	}
	r.graph.RemoveEdge(graph.SwitchID(a), graph.SwitchID(b))
	l := r.changed()
	r.mutex.Unlock()

	logger.Infof("removed a link: s%v/%v <-> s%v/%v", a, portA, b, portB)
	notify(l, r)

	return true
}

// SetPortLive updates the liveness of a switch port. If the port goes down, the link attached to the
// port is removed. It returns false if the switch or the port is unknown.
func (r *Topology) SetPortLive(dpid uint64, port uint32, live bool) bool {
	r.mutex.Lock()
	sw, ok := r.switches[dpid]
	if !ok || !sw.setPortLive(port, live) {
		r.mutex.Unlock()
		return false
	}
	if !live {
		if n, ok := r.graph.Neighbor(graph.SwitchID(dpid), port); ok && n.IsSwitch() {
			r.graph.RemoveEdge(graph.SwitchID(dpid), n)
			logger.Infof("removed a link on the down port: s%v/%v <-> %v", dpid, port, n)
		}
	}
	l := r.changed()
	r.mutex.Unlock()

	notify(l, r)

	return true
}

// DeviceAt returns the switch or the host reachable through the port of the switch whose DPID is
// dpid.
func (r *Topology) DeviceAt(dpid uint64, port uint32) (Device, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	n, ok := r.graph.Neighbor(graph.SwitchID(dpid), port)
	if !ok {
		return nil, false
	}
	if v, ok := n.DPID(); ok {
		sw, ok := r.switches[v]
		return sw, ok
	}
	mac, _ := n.MAC()
	host, ok := r.hosts.byMAC(mac)

	return host, ok
}

// IsEdgePort returns whether port of the switch is not connected to another switch.
func (r *Topology) IsEdgePort(dpid uint64, port uint32) bool {
	n, ok := r.graph.Neighbor(graph.SwitchID(dpid), port)
	return !ok || n.IsHost()
}

func (r *Topology) Switch(dpid uint64) (*Switch, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sw, ok := r.switches[dpid]
	return sw, ok
}

// Switches returns all the switches sorted by their DPIDs.
func (r *Topology) Switches() []*Switch {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.sortedSwitches()
}

// A caller should make sure the mutex is locked before calling this function.
func (r *Topology) sortedSwitches() []*Switch {
	result := make([]*Switch, 0, len(r.switches))
	for _, v := range r.switches {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].dpid < result[j].dpid })

	return result
}

func (r *Topology) Host(mac net.HardwareAddr) (*Host, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.hosts.byMAC(mac)
}

func (r *Topology) HostByIP(ip net.IP) (*Host, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.hosts.byIP(ip)
}

// MAC resolves an IP address into the hardware address of the host owning it.
func (r *Topology) MAC(ip net.IP) (net.HardwareAddr, bool) {
	host, ok := r.HostByIP(ip)
	if !ok {
		return nil, false
	}
	return host.MAC(), true
}

// Hosts returns all the hosts sorted by their MAC addresses.
func (r *Topology) Hosts() []*Host {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.hosts.all()
}

// Link returns the port on a toward b.
func (r *Topology) Link(a, b uint64) (port uint32, ok bool) {
	return r.graph.Port(graph.SwitchID(a), graph.SwitchID(b))
}

// Links returns all the links between switches.
func (r *Topology) Links() []graph.Edge {
	result := make([]graph.Edge, 0)
	for _, e := range r.graph.Edges() {
		if e.A.IsSwitch() && e.B.IsSwitch() {
			result = append(result, e)
		}
	}

	return result
}

// ShortestPath returns the DPIDs of the switches on the shortest path from src to dst, including
// both of them. It returns nil if there is no path, and a path of length one if src equals dst.
func (r *Topology) ShortestPath(src, dst uint64) []uint64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	path, cached := r.paths.get(src, dst)
	if !cached {
		path = toDPIDs(r.graph.FindPath(graph.SwitchID(src), graph.SwitchID(dst)))
		r.paths.add(src, dst, path)
	}
	r.metrics.RecordPathComputation(path != nil, cached)
	if path == nil {
		return nil
	}

	return append([]uint64(nil), path...)
}

func (r *Topology) String() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	// Hosts are formatted with the mutex locked as their addresses change on events.
	var buf bytes.Buffer
	for _, sw := range r.sortedSwitches() {
		buf.WriteString(fmt.Sprintf("%v\n", sw))
	}
	for _, h := range r.hosts.all() {
		buf.WriteString(fmt.Sprintf("%v\n", h))
	}
	buf.WriteString(r.graph.String())

	return buf.String()
}
