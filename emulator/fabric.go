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

package emulator

import (
	"bytes"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/superkkt/spswitch/network"
	"github.com/superkkt/spswitch/protocol"

	"github.com/pkg/errors"
)

var (
	ErrUnknownSwitch = errors.New("unknown switch")
	ErrNoRule        = errors.New("no matching rule")
	ErrLoop          = errors.New("forwarding loop")
	ErrDeadEnd       = errors.New("dead end")
)

// Fabric wires emulated switches and hosts together.
type Fabric struct {
	mutex    sync.Mutex
	switches map[uint64]*Switch
	links    map[network.Endpoint]network.Endpoint
	hosts    map[network.Endpoint][]net.HardwareAddr
}

func NewFabric() *Fabric {
	return &Fabric{
		switches: make(map[uint64]*Switch),
		links:    make(map[network.Endpoint]network.Endpoint),
		hosts:    make(map[network.Endpoint][]net.HardwareAddr),
	}
}

// AddSwitch returns the known switch if a switch whose DPID is dpid already exists.
func (r *Fabric) AddSwitch(dpid uint64, numPorts int) *Switch {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if sw, ok := r.switches[dpid]; ok {
		return sw
	}
	sw := NewSwitch(dpid, numPorts)
	r.switches[dpid] = sw

	return sw
}

func (r *Fabric) Switch(dpid uint64) (*Switch, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	sw, ok := r.switches[dpid]
	return sw, ok
}

// Switches returns all the switches sorted by their DPIDs.
func (r *Fabric) Switches() []*Switch {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	result := make([]*Switch, 0, len(r.switches))
	for _, v := range r.switches {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].dpid < result[j].dpid })

	return result
}

// Connect cables two switch ports, and returns the event reporting the discovered link. A port
// already cabled to another one is re-cabled.
func (r *Fabric) Connect(a, b network.Endpoint) (network.LinkAdded, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.switches[a.DPID]; !ok {
		return network.LinkAdded{}, errors.Wrapf(ErrUnknownSwitch, "s%v", a.DPID)
	}
	if _, ok := r.switches[b.DPID]; !ok {
		return network.LinkAdded{}, errors.Wrapf(ErrUnknownSwitch, "s%v", b.DPID)
	}
	// Unplug the previous cables of both ends.
	for _, v := range []network.Endpoint{a, b} {
		if peer, ok := r.links[v]; ok {
			delete(r.links, peer)
			delete(r.links, v)
		}
	}
	r.links[a] = b
	r.links[b] = a

	return network.LinkAdded{Src: a, Dst: b}, nil
}

// Disconnect removes the cable on a, and returns the event reporting the removed link.
func (r *Fabric) Disconnect(a network.Endpoint) (network.LinkRemoved, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	b, ok := r.links[a]
	if !ok {
		return network.LinkRemoved{}, false
	}
	delete(r.links, a)
	delete(r.links, b)

	return network.LinkRemoved{Src: a, Dst: b}, true
}

// Attach plugs a host into a switch port, and returns the event reporting the host.
func (r *Fabric) Attach(mac net.HardwareAddr, ips []net.IP, at network.Endpoint) (network.HostJoined, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.switches[at.DPID]; !ok {
		return network.HostJoined{}, errors.Wrapf(ErrUnknownSwitch, "s%v", at.DPID)
	}
	// Unplug it from the previous port.
	for ep, macs := range r.hosts {
		for i, v := range macs {
			if bytes.Equal(v, mac) {
				r.hosts[ep] = append(macs[:i], macs[i+1:]...)
				break
			}
		}
	}
	r.hosts[at] = append(r.hosts[at], mac)

	return network.HostJoined{MAC: mac, IPs: ips, DPID: at.DPID, Port: at.Port}, nil
}

// Trace follows frame from the ingress port through the switch tables until it reaches the host
// owning the destination address. It returns the egress port of every switch on the way.
func (r *Fabric) Trace(ingress network.Endpoint, frame []byte) ([]network.Endpoint, error) {
	eth := new(protocol.Ethernet)
	if err := eth.UnmarshalBinary(frame); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	result := make([]network.Endpoint, 0)
	at := ingress
	for {
		sw, ok := r.switches[at.DPID]
		if !ok {
			return result, errors.Wrapf(ErrUnknownSwitch, "s%v", at.DPID)
		}
		if len(result) > len(r.switches) {
			return result, ErrLoop
		}
		out, ok := sw.Forward(at.Port, frame)
		if !ok {
			return result, errors.Wrapf(ErrNoRule, "%v", at)
		}
		egress := network.Endpoint{DPID: at.DPID, Port: out}
		result = append(result, egress)

		if r.hasHost(egress, eth.DstMAC) {
			return result, nil
		}
		next, ok := r.links[egress]
		if !ok {
			return result, errors.Wrapf(ErrDeadEnd, "%v", egress)
		}
		at = next
	}
}

// A caller should make sure the mutex is locked before calling this function.
func (r *Fabric) hasHost(at network.Endpoint, mac net.HardwareAddr) bool {
	for _, v := range r.hosts[at] {
		if bytes.Equal(v, mac) {
			return true
		}
	}
	return false
}

func (r *Fabric) String() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return fmt.Sprintf("Fabric # of switches=%v, # of cables=%v", len(r.switches), len(r.links)/2)
}
