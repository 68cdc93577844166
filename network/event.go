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
)

// Event is a stimulus handled by Controller.Handle. It is one of SwitchJoined, SwitchLeft,
// HostJoined, LinkAdded, LinkRemoved, PortModified, PacketIn and PathRequest.
type Event interface {
	// Type is the short name of the event, used as a metric label.
	Type() string
}

type SwitchJoined struct {
	Datapath Datapath
	Ports    []Port
}

func (r SwitchJoined) Type() string { return "switch_joined" }

func (r SwitchJoined) String() string {
	if r.Datapath == nil {
		return "SwitchJoined: nil datapath"
	}
	return fmt.Sprintf("SwitchJoined: DPID=%v, # of ports=%v", r.Datapath.ID(), len(r.Ports))
}

type SwitchLeft struct {
	DPID uint64
}

func (r SwitchLeft) Type() string { return "switch_left" }

func (r SwitchLeft) String() string {
	return fmt.Sprintf("SwitchLeft: DPID=%v", r.DPID)
}

type HostJoined struct {
	MAC  net.HardwareAddr
	IPs  []net.IP
	DPID uint64
	Port uint32
}

func (r HostJoined) Type() string { return "host_joined" }

func (r HostJoined) String() string {
	return fmt.Sprintf("HostJoined: MAC=%v, IPs=%v, Location=s%v/%v", r.MAC, r.IPs, r.DPID, r.Port)
}

// Endpoint is a port of a switch.
type Endpoint struct {
	DPID uint64
	Port uint32
}

func (r Endpoint) String() string {
	return fmt.Sprintf("s%v/%v", r.DPID, r.Port)
}

type LinkAdded struct {
	Src, Dst Endpoint
}

func (r LinkAdded) Type() string { return "link_added" }

func (r LinkAdded) String() string {
	return fmt.Sprintf("LinkAdded: %v <-> %v", r.Src, r.Dst)
}

type LinkRemoved struct {
	Src, Dst Endpoint
}

func (r LinkRemoved) Type() string { return "link_removed" }

func (r LinkRemoved) String() string {
	return fmt.Sprintf("LinkRemoved: %v <-> %v", r.Src, r.Dst)
}

type PortModified struct {
	DPID uint64
	Port uint32
	Live bool
}

func (r PortModified) Type() string { return "port_modified" }

func (r PortModified) String() string {
	return fmt.Sprintf("PortModified: s%v/%v, Live=%v", r.DPID, r.Port, r.Live)
}

// PacketIn is a frame that a switch has sent up to the controller.
type PacketIn struct {
	DPID   uint64
	InPort uint32
	Frame  []byte
}

func (r PacketIn) Type() string { return "packet_in" }

func (r PacketIn) String() string {
	return fmt.Sprintf("PacketIn: s%v/%v, length=%v", r.DPID, r.InPort, len(r.Frame))
}

// PathRequest asks the controller to install a path between two hosts known by their IP addresses.
type PathRequest struct {
	Src, Dst net.IP
}

func (r PathRequest) Type() string { return "path_request" }

func (r PathRequest) String() string {
	return fmt.Sprintf("PathRequest: %v -> %v", r.Src, r.Dst)
}
