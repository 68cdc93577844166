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

	"github.com/pkg/errors"
)

var (
	ErrUnknownHost      = errors.New("unknown host")
	ErrSameHost         = errors.New("source and destination are the same host")
	ErrNoPath           = errors.New("no path between the hosts")
	ErrMissingAdjacency = errors.New("missing adjacency on the path")
)

// Hop is the forwarding decision on one switch of a path.
type Hop struct {
	DPID     uint64
	InPort   uint32
	OutPort  uint32
	datapath Datapath
}

func (r Hop) String() string {
	return fmt.Sprintf("s%v: %v -> %v", r.DPID, r.InPort, r.OutPort)
}

type PathResult struct {
	Src  net.HardwareAddr
	Dst  net.HardwareAddr
	Path []uint64
	Hops []Hop
	// Number of the issued install commands.
	Installed int
	// Number of the stale rules removed from the switches.
	Evicted int
}

// planHops resolves the ports of every switch on path, which starts at the switch of src and ends
// at the switch of dst. Nothing is installed here, so a path missing any adjacency is rejected as a
// whole.
func planHops(topo *Topology, src, dst *Host, path []uint64) ([]Hop, error) {
	if len(path) == 0 {
		return nil, ErrNoPath
	}

	result := make([]Hop, len(path))
	for i, dpid := range path {
		sw, ok := topo.Switch(dpid)
		if !ok {
			return nil, errors.Wrapf(ErrMissingAdjacency, "unknown switch s%v", dpid)
		}
		hop := Hop{DPID: dpid, datapath: sw.Datapath()}

		// Ingress
		if i == 0 {
			hop.InPort = src.Location().Port
		} else {
			port, ok := topo.Link(dpid, path[i-1])
			if !ok {
				return nil, errors.Wrapf(ErrMissingAdjacency, "s%v -> s%v", dpid, path[i-1])
			}
			hop.InPort = port
		}

		// Egress
		if i == len(path)-1 {
			hop.OutPort = dst.Location().Port
		} else {
			port, ok := topo.Link(dpid, path[i+1])
			if !ok {
				return nil, errors.Wrapf(ErrMissingAdjacency, "s%v -> s%v", dpid, path[i+1])
			}
			hop.OutPort = port
		}

		result[i] = hop
	}

	return result, nil
}
