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
)

// Datapath is a handle to a switch. Commands are fire-and-forget: a nil error only means the
// command has been handed over to the switch, not that the switch has applied it.
type Datapath interface {
	ID() uint64
	InstallRule(Rule) error
	DeleteRule(Match) error
	// PacketOut sends frame out of port on the switch.
	PacketOut(port uint32, frame []byte) error
}

// Match is the criteria of a flow rule. SrcMAC and DstMAC are nil for a rule matching the input
// port only.
type Match struct {
	InPort uint32
	SrcMAC net.HardwareAddr
	DstMAC net.HardwareAddr
}

func (r Match) String() string {
	if r.SrcMAC == nil && r.DstMAC == nil {
		return fmt.Sprintf("InPort=%v", r.InPort)
	}
	return fmt.Sprintf("InPort=%v, SrcMAC=%v, DstMAC=%v", r.InPort, r.SrcMAC, r.DstMAC)
}

// Key identifies the match in a flow table.
func (r Match) Key() string {
	return fmt.Sprintf("%v/%v/%v", r.InPort, r.SrcMAC, r.DstMAC)
}

// Reverse returns the match of the opposite direction whose input port is inPort.
func (r Match) Reverse(inPort uint32) Match {
	return Match{
		InPort: inPort,
		SrcMAC: r.DstMAC,
		DstMAC: r.SrcMAC,
	}
}

// Mentions returns whether the match is qualified by mac as the source or the destination.
func (r Match) Mentions(mac net.HardwareAddr) bool {
	return bytes.Equal(r.SrcMAC, mac) || bytes.Equal(r.DstMAC, mac)
}

type MatchPolicy int

const (
	// MatchAddress pins a rule to the (source, destination) MAC address pair as well as the input
	// port, so that flows of different host pairs sharing a switch never collide.
	MatchAddress MatchPolicy = iota
	// MatchPort matches the input port only.
	MatchPort
)

func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch s {
	case "", "address":
		return MatchAddress, nil
	case "port":
		return MatchPort, nil
	default:
		return MatchAddress, fmt.Errorf("unknown match policy: %v", s)
	}
}

func (r MatchPolicy) String() string {
	if r == MatchPort {
		return "port"
	}
	return "address"
}

func (r MatchPolicy) newMatch(inPort uint32, src, dst net.HardwareAddr) Match {
	if r == MatchPort {
		return Match{InPort: inPort}
	}
	return Match{InPort: inPort, SrcMAC: src, DstMAC: dst}
}

type Rule struct {
	Match       Match
	OutPort     uint32
	Priority    uint16
	IdleTimeout uint16 // Seconds. Zero means permanent.
	HardTimeout uint16 // Seconds. Zero means permanent.
}

func (r Rule) String() string {
	return fmt.Sprintf("%v, OutPort=%v", r.Match, r.OutPort)
}

// Port is a physical port of a switch.
type Port struct {
	Number uint32
	MAC    net.HardwareAddr
	Live   bool
}

func (r Port) String() string {
	state := "DOWN"
	if r.Live {
		state = "UP"
	}
	return fmt.Sprintf("%v: %v (%v)", r.Number, r.MAC, state)
}
