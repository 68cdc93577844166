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
	"sort"

	"github.com/superkkt/spswitch/graph"
)

// Device is either a *Switch or a *Host.
type Device interface {
	NodeID() graph.NodeID
	String() string
}

type Switch struct {
	dpid     uint64
	datapath Datapath
	// Sorted by the port number.
	ports []Port
}

func newSwitch(dp Datapath, ports []Port) *Switch {
	v := &Switch{
		dpid:     dp.ID(),
		datapath: dp,
	}
	v.setPorts(ports)

	return v
}

func (r *Switch) setPorts(ports []Port) {
	r.ports = make([]Port, len(ports))
	copy(r.ports, ports)
	sort.Slice(r.ports, func(i, j int) bool { return r.ports[i].Number < r.ports[j].Number })
}

func (r *Switch) NodeID() graph.NodeID {
	return graph.SwitchID(r.dpid)
}

func (r *Switch) DPID() uint64 {
	return r.dpid
}

func (r *Switch) Datapath() Datapath {
	return r.datapath
}

// Ports returns a copy of the ports sorted by the port number.
func (r *Switch) Ports() []Port {
	v := make([]Port, len(r.ports))
	copy(v, r.ports)
	return v
}

// Port returns false if the switch has no port whose number is num.
func (r *Switch) Port(num uint32) (Port, bool) {
	for _, p := range r.ports {
		if p.Number == num {
			return p, true
		}
	}
	return Port{}, false
}

// setPortLive returns false if the port is unknown.
func (r *Switch) setPortLive(num uint32, live bool) bool {
	for i := range r.ports {
		if r.ports[i].Number == num {
			r.ports[i].Live = live
			return true
		}
	}
	return false
}

func (r *Switch) String() string {
	v := fmt.Sprintf("Switch DPID=%v, # of ports=%v", r.dpid, len(r.ports))
	for _, p := range r.ports {
		v += fmt.Sprintf("\n\t%v", p)
	}

	return v
}

// Location is the attachment point of a host.
type Location struct {
	DPID uint64
	Port uint32
}

func (r Location) String() string {
	return fmt.Sprintf("s%v/%v", r.DPID, r.Port)
}

type Host struct {
	mac      net.HardwareAddr
	ips      []net.IP
	location Location
}

func (r *Host) NodeID() graph.NodeID {
	return graph.HostID(r.mac)
}

func (r *Host) MAC() net.HardwareAddr {
	return r.mac
}

func (r *Host) IPs() []net.IP {
	v := make([]net.IP, len(r.ips))
	copy(v, r.ips)
	return v
}

func (r *Host) Location() Location {
	return r.location
}

func (r *Host) String() string {
	return fmt.Sprintf("Host MAC=%v, IPs=%v, Location=%v", r.mac, r.ips, r.location)
}
