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
	"fmt"
	"net"
)

type Kind uint8

const (
	KindSwitch Kind = iota
	KindHost
)

func (r Kind) String() string {
	switch r {
	case KindSwitch:
		return "switch"
	case KindHost:
		return "host"
	default:
		return fmt.Sprintf("kind(%d)", uint8(r))
	}
}

// NodeID identifies a vertex. It is either a switch (keyed by its datapath ID) or a host (keyed by
// its MAC address), never both, so a DPID can not collide with a MAC address.
type NodeID struct {
	kind Kind
	dpid uint64
	mac  [6]byte
}

func SwitchID(dpid uint64) NodeID {
	return NodeID{kind: KindSwitch, dpid: dpid}
}

// HostID panics if mac is not a 6-byte Ethernet address. A caller should validate the length of
// an address received from outside before calling this function, like Topology.AddHost does.
func HostID(mac net.HardwareAddr) NodeID {
	if len(mac) != 6 {
		panic(fmt.Sprintf("invalid host MAC address: %v", mac))
	}

	v := NodeID{kind: KindHost}
	copy(v.mac[:], mac)
	return v
}

func (r NodeID) Kind() Kind {
	return r.kind
}

func (r NodeID) IsSwitch() bool {
	return r.kind == KindSwitch
}

func (r NodeID) IsHost() bool {
	return r.kind == KindHost
}

// DPID returns the datapath ID of a switch node. ok is false for a host node.
func (r NodeID) DPID() (dpid uint64, ok bool) {
	if r.kind != KindSwitch {
		return 0, false
	}
	return r.dpid, true
}

// MAC returns the MAC address of a host node. ok is false for a switch node.
func (r NodeID) MAC() (mac net.HardwareAddr, ok bool) {
	if r.kind != KindHost {
		return nil, false
	}
	v := make(net.HardwareAddr, 6)
	copy(v, r.mac[:])
	return v, true
}

func (r NodeID) String() string {
	if r.kind == KindSwitch {
		return fmt.Sprintf("s%v", r.dpid)
	}
	return net.HardwareAddr(r.mac[:]).String()
}

// Less orders switches before hosts, switches by DPID and hosts by MAC address.
func (r NodeID) Less(other NodeID) bool {
	if r.kind != other.kind {
		return r.kind < other.kind
	}
	if r.kind == KindSwitch {
		return r.dpid < other.dpid
	}
	return bytes.Compare(r.mac[:], other.mac[:]) < 0
}
