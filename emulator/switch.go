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

// Package emulator provides in-memory switches that obey the controller's commands, and a fabric
// connecting them to trace frames across the installed rules.
package emulator

import (
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/superkkt/spswitch/network"
	"github.com/superkkt/spswitch/protocol"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("emulator")
)

var (
	ErrClosed = errors.New("closed switch")
)

type CommandType int

const (
	CommandInstall CommandType = iota
	CommandDelete
	CommandPacketOut
)

func (r CommandType) String() string {
	switch r {
	case CommandInstall:
		return "install"
	case CommandDelete:
		return "delete"
	case CommandPacketOut:
		return "packet_out"
	default:
		return fmt.Sprintf("command(%d)", int(r))
	}
}

// Command is a message received from the controller.
type Command struct {
	Type CommandType
	// Valid for CommandInstall.
	Rule network.Rule
	// Valid for CommandDelete.
	Match network.Match
	// Valid for CommandPacketOut.
	Port  uint32
	Frame []byte
}

func (r Command) String() string {
	switch r.Type {
	case CommandInstall:
		return fmt.Sprintf("install(%v)", r.Rule)
	case CommandDelete:
		return fmt.Sprintf("delete(%v)", r.Match)
	default:
		return fmt.Sprintf("packet_out(port=%v, length=%v)", r.Port, len(r.Frame))
	}
}

// Switch is an emulated OpenFlow switch. It implements network.Datapath.
type Switch struct {
	mutex    sync.Mutex
	dpid     uint64
	ports    []network.Port
	table    map[string]network.Rule
	commands []Command
	closed   bool
}

// NewSwitch returns a switch whose ports are numbered from 1 to numPorts.
func NewSwitch(dpid uint64, numPorts int) *Switch {
	ports := make([]network.Port, numPorts)
	for i := range ports {
		num := uint32(i + 1)
		ports[i] = network.Port{
			Number: num,
			MAC:    portMAC(dpid, num),
			Live:   true,
		}
	}

	return &Switch{
		dpid:  dpid,
		ports: ports,
		table: make(map[string]network.Rule),
	}
}

// portMAC derives a locally administered address from the DPID and the port number.
func portMAC(dpid uint64, port uint32) net.HardwareAddr {
	return net.HardwareAddr{0x02, byte(dpid >> 16), byte(dpid >> 8), byte(dpid), byte(port >> 8), byte(port)}
}

func (r *Switch) ID() uint64 {
	return r.dpid
}

func (r *Switch) Ports() []network.Port {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	v := make([]network.Port, len(r.ports))
	copy(v, r.ports)
	return v
}

// SetPortLive returns the event to report the port state change, and false if the port is unknown.
func (r *Switch) SetPortLive(port uint32, live bool) (network.PortModified, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := range r.ports {
		if r.ports[i].Number == port {
			r.ports[i].Live = live
			return network.PortModified{DPID: r.dpid, Port: port, Live: live}, true
		}
	}
	return network.PortModified{}, false
}

// Joined returns the event announcing this switch to a controller.
func (r *Switch) Joined() network.SwitchJoined {
	return network.SwitchJoined{Datapath: r, Ports: r.Ports()}
}

func (r *Switch) InstallRule(rule network.Rule) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.commands = append(r.commands, Command{Type: CommandInstall, Rule: rule})
	// Overwrite the existing one like OFPFC_ADD.
	r.table[rule.Match.Key()] = rule
	logger.Debugf("s%v: installed a rule: %v", r.dpid, rule)

	return nil
}

func (r *Switch) DeleteRule(match network.Match) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.commands = append(r.commands, Command{Type: CommandDelete, Match: match})
	// Deleting a non-existent rule is not an error like OFPFC_DELETE_STRICT.
	delete(r.table, match.Key())
	logger.Debugf("s%v: deleted a rule: %v", r.dpid, match)

	return nil
}

func (r *Switch) PacketOut(port uint32, frame []byte) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return ErrClosed
	}
	v := make([]byte, len(frame))
	copy(v, frame)
	r.commands = append(r.commands, Command{Type: CommandPacketOut, Port: port, Frame: v})

	return nil
}

// Close makes the switch refuse further commands like a disconnected switch.
func (r *Switch) Close() network.SwitchLeft {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.closed = true
	return network.SwitchLeft{DPID: r.dpid}
}

// Commands returns the received commands in order.
func (r *Switch) Commands() []Command {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	v := make([]Command, len(r.commands))
	copy(v, r.commands)
	return v
}

// PacketOuts returns the received PACKET_OUT commands in order.
func (r *Switch) PacketOuts() []Command {
	result := make([]Command, 0)
	for _, c := range r.Commands() {
		if c.Type == CommandPacketOut {
			result = append(result, c)
		}
	}
	return result
}

// Rules returns the rules in the table sorted by their input ports and matches.
func (r *Switch) Rules() []network.Rule {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	result := make([]network.Rule, 0, len(r.table))
	for _, v := range r.table {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Match.InPort != result[j].Match.InPort {
			return result[i].Match.InPort < result[j].Match.InPort
		}
		return result[i].Match.Key() < result[j].Match.Key()
	})

	return result
}

// Forward looks up the table for the frame received on inPort. An address qualified rule takes
// precedence over a rule matching the input port only.
func (r *Switch) Forward(inPort uint32, frame []byte) (outPort uint32, ok bool) {
	eth := new(protocol.Ethernet)
	if err := eth.UnmarshalBinary(frame); err != nil {
		return 0, false
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	candidates := []network.Match{
		{InPort: inPort, SrcMAC: eth.SrcMAC, DstMAC: eth.DstMAC},
		{InPort: inPort},
	}
	for _, m := range candidates {
		if rule, ok := r.table[m.Key()]; ok {
			return rule.OutPort, true
		}
	}

	return 0, false
}

func (r *Switch) String() string {
	return fmt.Sprintf("Emulated switch DPID=%v, # of ports=%v, # of rules=%v", r.dpid, len(r.Ports()), len(r.Rules()))
}
