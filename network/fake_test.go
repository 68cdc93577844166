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
	"net"
)

type command struct {
	op      string // install or delete
	match   Match
	outPort uint32
}

type packetOut struct {
	port  uint32
	frame []byte
}

type fakeDatapath struct {
	dpid     uint64
	commands []command
	packets  []packetOut
}

func newFakeDatapath(dpid uint64) *fakeDatapath {
	return &fakeDatapath{dpid: dpid}
}

func (r *fakeDatapath) ID() uint64 {
	return r.dpid
}

func (r *fakeDatapath) InstallRule(rule Rule) error {
	r.commands = append(r.commands, command{op: "install", match: rule.Match, outPort: rule.OutPort})
	return nil
}

func (r *fakeDatapath) DeleteRule(match Match) error {
	r.commands = append(r.commands, command{op: "delete", match: match})
	return nil
}

func (r *fakeDatapath) PacketOut(port uint32, frame []byte) error {
	r.packets = append(r.packets, packetOut{port: port, frame: frame})
	return nil
}

func (r *fakeDatapath) count(op string) int {
	n := 0
	for _, c := range r.commands {
		if c.op == op {
			n++
		}
	}
	return n
}

func mustMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

func ports(nums ...uint32) []Port {
	result := make([]Port, len(nums))
	for i, v := range nums {
		result[i] = Port{Number: v, Live: true}
	}
	return result
}

var (
	mac1 = mustMAC("00:00:00:00:00:01")
	mac2 = mustMAC("00:00:00:00:00:02")
	mac3 = mustMAC("00:00:00:00:00:03")
	ip1  = net.IPv4(10, 0, 0, 1)
	ip2  = net.IPv4(10, 0, 0, 2)
	ip3  = net.IPv4(10, 0, 0, 3)
)

// linear builds s1 - s2 - s3 with H1 on s1/1 and H2 on s3/1.
//
//	H1 -1- s1 -2----1- s2 -2----1- s3 -1- H2
func linear(conf Config) (*Controller, []*fakeDatapath) {
	c := NewController(conf)
	dps := []*fakeDatapath{newFakeDatapath(1), newFakeDatapath(2), newFakeDatapath(3)}

	events := []Event{
		SwitchJoined{Datapath: dps[0], Ports: ports(1, 2, 3)},
		SwitchJoined{Datapath: dps[1], Ports: ports(1, 2, 3)},
		SwitchJoined{Datapath: dps[2], Ports: ports(1, 2, 3)},
		LinkAdded{Src: Endpoint{DPID: 1, Port: 2}, Dst: Endpoint{DPID: 2, Port: 1}},
		LinkAdded{Src: Endpoint{DPID: 2, Port: 2}, Dst: Endpoint{DPID: 3, Port: 1}},
		HostJoined{MAC: mac1, IPs: []net.IP{ip1}, DPID: 1, Port: 1},
		HostJoined{MAC: mac2, IPs: []net.IP{ip2}, DPID: 3, Port: 1},
	}
	for _, ev := range events {
		if err := c.Handle(ev); err != nil {
			panic(err)
		}
	}

	return c, dps
}
