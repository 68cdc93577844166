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
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/superkkt/spswitch/metrics"
	"github.com/superkkt/spswitch/protocol"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("network")
)

var (
	ErrNilEvent = errors.New("nil event")
)

type Config struct {
	MatchPolicy MatchPolicy
	Priority    uint16
	IdleTimeout uint16
	HardTimeout uint16
	// Zero disables the path cache.
	PathCacheSize int
	// Learn the sender of an ARP packet received on an edge port as a host.
	LearnHosts bool
	// Notified whenever the topology changes. Can be nil.
	Listener TopologyListener
	Metrics  *metrics.Registry
}

// Controller reacts to the events from the switches and the operators. It keeps the topology and
// the flow rule table, and installs a shortest path between two hosts on request.
type Controller struct {
	// Serializes the event handlers.
	mutex   sync.Mutex
	topo    *Topology
	flows   *FlowTable
	conf    Config
	metrics *metrics.Registry
}

func NewController(conf Config) *Controller {
	if conf.Metrics == nil {
		conf.Metrics = metrics.NewRegistry()
	}

	topo := NewTopology(TopologyConfig{
		PathCacheSize: conf.PathCacheSize,
		Metrics:       conf.Metrics,
	})
	if conf.Listener != nil {
		topo.SetListener(conf.Listener)
	}

	return &Controller{
		topo: topo,
		flows: NewFlowTable(FlowConfig{
			Priority:    conf.Priority,
			IdleTimeout: conf.IdleTimeout,
			HardTimeout: conf.HardTimeout,
			Metrics:     conf.Metrics,
		}),
		conf:    conf,
		metrics: conf.Metrics,
	}
}

func (r *Controller) Topology() *Topology {
	return r.topo
}

func (r *Controller) Flows() *FlowTable {
	return r.flows
}

// Handle processes an event. Lookup misses and rejected events are logged and not returned as an
// error.
func (r *Controller) Handle(ev Event) error {
	if ev == nil {
		return ErrNilEvent
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	logger.Debugf("handling an event: %v", ev)
	r.metrics.RecordEvent(ev.Type())

	switch v := ev.(type) {
	case SwitchJoined:
		r.onSwitchJoined(v)
	case SwitchLeft:
		r.onSwitchLeft(v)
	case HostJoined:
		r.onHostJoined(v)
	case LinkAdded:
		r.onLinkAdded(v)
	case LinkRemoved:
		r.onLinkRemoved(v)
	case PortModified:
		r.onPortModified(v)
	case PacketIn:
		r.onPacketIn(v)
	case PathRequest:
		if _, err := r.installPathByIP(v.Src, v.Dst); err != nil {
			logger.Warningf("failed to install a path from %v to %v: %v", v.Src, v.Dst, err)
		}
	default:
		return errors.Errorf("unexpected event type: %T", ev)
	}

	return nil
}

func (r *Controller) onSwitchJoined(ev SwitchJoined) {
	if ev.Datapath == nil {
		logger.Errorf("ignoring a joined switch without datapath")
		return
	}
	r.topo.AddSwitch(ev.Datapath, ev.Ports)
}

func (r *Controller) onSwitchLeft(ev SwitchLeft) {
	if _, ok := r.topo.RemoveSwitch(ev.DPID); !ok {
		logger.Debugf("ignoring an unknown switch that has left: DPID=%v", ev.DPID)
		return
	}
	n := r.flows.RemoveSwitch(ev.DPID)
	logger.Infof("removed %v flow rule(s) of the switch that has left: DPID=%v", n, ev.DPID)
}

func (r *Controller) onHostJoined(ev HostJoined) {
	if len(ev.IPs) == 0 {
		logger.Warningf("ignoring a joined host without IP address: MAC=%v", ev.MAC)
		return
	}
	r.addHost(ev.MAC, ev.IPs, Location{DPID: ev.DPID, Port: ev.Port})
}

func (r *Controller) addHost(mac net.HardwareAddr, ips []net.IP, loc Location) {
	_, moved, err := r.topo.AddHost(mac, ips, loc)
	if err != nil {
		logger.Warningf("failed to add a host (MAC=%v, Location=%v): %v", mac, loc, err)
		return
	}
	if moved {
		// The rules toward the previous location are stale.
		n := r.flows.RemoveByMAC(mac)
		logger.Infof("removed %v flow rule(s) of the moved host: MAC=%v", n, mac)
	}
}

func (r *Controller) onLinkAdded(ev LinkAdded) {
	if err := r.topo.AddLink(ev.Src.DPID, ev.Src.Port, ev.Dst.DPID, ev.Dst.Port); err != nil {
		logger.Warningf("failed to add a link (%v <-> %v): %v", ev.Src, ev.Dst, err)
	}
}

func (r *Controller) onLinkRemoved(ev LinkRemoved) {
	if !r.topo.RemoveLink(ev.Src.DPID, ev.Src.Port, ev.Dst.DPID, ev.Dst.Port) {
		logger.Debugf("ignoring an unknown link: %v <-> %v", ev.Src, ev.Dst)
	}
}

func (r *Controller) onPortModified(ev PortModified) {
	if !r.topo.SetPortLive(ev.DPID, ev.Port, ev.Live) {
		logger.Debugf("ignoring an unknown port: s%v/%v", ev.DPID, ev.Port)
	}
}

func (r *Controller) onPacketIn(ev PacketIn) {
	sw, ok := r.topo.Switch(ev.DPID)
	if !ok {
		logger.Debugf("ignoring PACKET_IN from an unknown switch: DPID=%v", ev.DPID)
		return
	}

	eth := new(protocol.Ethernet)
	if err := eth.UnmarshalBinary(ev.Frame); err != nil {
		logger.Warningf("ignoring a malformed frame from s%v/%v: %v", ev.DPID, ev.InPort, err)
		return
	}
	logger.Debugf("PACKET_IN: ingress=s%v/%v, src=%v, dst=%v, type=0x%04x", ev.DPID, ev.InPort, eth.SrcMAC, eth.DstMAC, eth.Type)

	switch eth.Type {
	case protocol.EthernetTypeLLDP:
		// Link discovery is out of the controller's concern.
		return
	case protocol.EthernetTypeARP:
		r.handleARP(sw, ev.InPort, eth)
	default:
		r.handleFrame(sw, ev.InPort, eth)
	}
}

// handleFrame installs the path for a data frame between two known hosts. The frame itself is not
// sent back to the switches; the installed rules forward the following frames.
func (r *Controller) handleFrame(ingress *Switch, inPort uint32, eth *protocol.Ethernet) {
	if eth.IsBroadcast() || eth.IsMulticast() {
		logger.Debugf("drop a broadcast frame: ingress=s%v/%v, src=%v", ingress.DPID(), inPort, eth.SrcMAC)
		return
	}
	src, ok := r.topo.Host(eth.SrcMAC)
	if !ok {
		logger.Debugf("drop a frame from an unknown host: %v", eth.SrcMAC)
		return
	}
	dst, ok := r.topo.Host(eth.DstMAC)
	if !ok {
		logger.Debugf("drop a frame to an unknown host: %v", eth.DstMAC)
		return
	}

	if _, err := r.installPath(src, dst); err != nil {
		logger.Warningf("failed to install a path from %v to %v: %v", src.MAC(), dst.MAC(), err)
	}
}

// InstallPath installs the shortest path between the hosts whose IP addresses are src and dst.
func (r *Controller) InstallPath(src, dst net.IP) (PathResult, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.installPathByIP(src, dst)
}

// A caller should make sure the mutex is locked before calling this function.
func (r *Controller) installPathByIP(src, dst net.IP) (PathResult, error) {
	srcHost, ok := r.topo.HostByIP(src)
	if !ok {
		r.metrics.RecordPathInstall("unknown_host", 0)
		return PathResult{}, errors.Wrapf(ErrUnknownHost, "%v", src)
	}
	dstHost, ok := r.topo.HostByIP(dst)
	if !ok {
		r.metrics.RecordPathInstall("unknown_host", 0)
		return PathResult{}, errors.Wrapf(ErrUnknownHost, "%v", dst)
	}

	return r.installPath(srcHost, dstHost)
}

// installPath plans every hop of the shortest path before issuing any command, so that a path is
// either installed entirely or not at all. A caller should make sure the mutex is locked before
// calling this function.
func (r *Controller) installPath(src, dst *Host) (result PathResult, err error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordPathInstall(pathInstallResult(err), time.Since(start))
	}()

	if bytes.Equal(src.MAC(), dst.MAC()) {
		return PathResult{}, ErrSameHost
	}

	result = PathResult{Src: src.MAC(), Dst: dst.MAC()}
	result.Path = r.topo.ShortestPath(src.Location().DPID, dst.Location().DPID)
	if result.Path == nil {
		return result, errors.Wrapf(ErrNoPath, "%v -> %v", src.Location(), dst.Location())
	}
	hops, err := planHops(r.topo, src, dst, result.Path)
	if err != nil {
		return result, err
	}
	result.Hops = hops

	for _, hop := range hops {
		match := r.conf.MatchPolicy.newMatch(hop.InPort, src.MAC(), dst.MAC())
		installed, evicted := r.flows.Install(hop.datapath, match, hop.OutPort)
		result.Installed += installed
		result.Evicted += evicted
	}
	logger.Infof("installed a path: %v -> %v, path=%v, installed=%v, evicted=%v", src.MAC(), dst.MAC(), result.Path, result.Installed, result.Evicted)

	return result, nil
}

func pathInstallResult(err error) string {
	switch {
	case err == nil:
		return "installed"
	case errors.Is(err, ErrUnknownHost):
		return "unknown_host"
	case errors.Is(err, ErrNoPath):
		return "no_path"
	case errors.Is(err, ErrMissingAdjacency):
		return "missing_adjacency"
	default:
		return "error"
	}
}

// FlowRules returns all the installed flow rules.
func (r *Controller) FlowRules() []FlowRule {
	return r.flows.Rules()
}

// RemoveFlows removes every flow rule from the switches. It returns the number of removed rules.
func (r *Controller) RemoveFlows() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n := r.flows.RemoveAll()
	logger.Infof("removed all the flow rules: # of rules=%v", n)

	return n
}

func (r *Controller) Snapshot() *Snapshot {
	return r.topo.Snapshot()
}

func (r *Controller) String() string {
	var buf bytes.Buffer
	buf.WriteString(r.topo.String())
	for _, v := range r.flows.Rules() {
		buf.WriteString(fmt.Sprintf("Flow %v\n", v))
	}

	return buf.String()
}
