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
	"net"
	"reflect"
	"testing"

	"github.com/superkkt/spswitch/network"
	"github.com/superkkt/spswitch/protocol"

	"github.com/pkg/errors"
)

var (
	mac1 = net.HardwareAddr{0, 0, 0, 0, 0, 1}
	mac2 = net.HardwareAddr{0, 0, 0, 0, 0, 2}
	ip1  = net.IPv4(10, 0, 0, 1)
	ip2  = net.IPv4(10, 0, 0, 2)
)

func frame(t *testing.T, src, dst net.HardwareAddr) []byte {
	v, err := protocol.Ethernet{SrcMAC: src, DstMAC: dst, Type: protocol.EthernetTypeIPv4, Payload: []byte{0x45}}.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestSwitchTable(t *testing.T) {
	sw := NewSwitch(1, 3)
	if len(sw.Ports()) != 3 || sw.Ports()[2].Number != 3 {
		t.Fatalf("Unexpected ports: %v", sw.Ports())
	}

	addr := network.Match{InPort: 1, SrcMAC: mac1, DstMAC: mac2}
	sw.InstallRule(network.Rule{Match: network.Match{InPort: 1}, OutPort: 3})
	sw.InstallRule(network.Rule{Match: addr, OutPort: 2})

	src := []struct {
		InPort   uint32
		Src, Dst net.HardwareAddr
		Expected uint32
		Found    bool
	}{
		{InPort: 1, Src: mac1, Dst: mac2, Expected: 2, Found: true},
		// Falls back to the port-only rule.
		{InPort: 1, Src: mac2, Dst: mac1, Expected: 3, Found: true},
		{InPort: 2, Src: mac1, Dst: mac2, Found: false},
	}
	for i, v := range src {
		out, ok := sw.Forward(v.InPort, frame(t, v.Src, v.Dst))
		if ok != v.Found || out != v.Expected {
			t.Fatalf("#%v: expected=%v (found=%v), got=%v (found=%v)", i, v.Expected, v.Found, out, ok)
		}
	}

	sw.DeleteRule(addr)
	if out, _ := sw.Forward(1, frame(t, mac1, mac2)); out != 3 {
		t.Fatalf("Expected the port-only rule after deletion, got=%v", out)
	}
	if len(sw.Rules()) != 1 {
		t.Fatalf("Expected 1 rule, got=%v", sw.Rules())
	}

	types := make([]CommandType, 0)
	for _, c := range sw.Commands() {
		types = append(types, c.Type)
	}
	if !reflect.DeepEqual(types, []CommandType{CommandInstall, CommandInstall, CommandDelete}) {
		t.Fatalf("Unexpected commands: %v", sw.Commands())
	}

	if ev := sw.Close(); ev.DPID != 1 {
		t.Fatalf("Unexpected event: %v", ev)
	}
	if err := sw.PacketOut(1, []byte{0}); err != ErrClosed {
		t.Fatalf("Expected ErrClosed, got=%v", err)
	}
}

// linear wires s1 - s2 - s3 with H1 on s1/1 and H2 on s3/1, and reports them to c.
func linear(t *testing.T, c *network.Controller) *Fabric {
	f := NewFabric()
	events := make([]network.Event, 0)
	for i := uint64(1); i <= 3; i++ {
		events = append(events, f.AddSwitch(i, 3).Joined())
	}
	cables := [][2]network.Endpoint{
		{{DPID: 1, Port: 2}, {DPID: 2, Port: 1}},
		{{DPID: 2, Port: 2}, {DPID: 3, Port: 1}},
	}
	for _, v := range cables {
		ev, err := f.Connect(v[0], v[1])
		if err != nil {
			t.Fatal(err)
		}
		events = append(events, ev)
	}
	h1, err := f.Attach(mac1, []net.IP{ip1}, network.Endpoint{DPID: 1, Port: 1})
	if err != nil {
		t.Fatal(err)
	}
	h2, err := f.Attach(mac2, []net.IP{ip2}, network.Endpoint{DPID: 3, Port: 1})
	if err != nil {
		t.Fatal(err)
	}
	events = append(events, h1, h2)

	for _, ev := range events {
		if err := c.Handle(ev); err != nil {
			t.Fatal(err)
		}
	}

	return f
}

func TestTrace(t *testing.T) {
	c := network.NewController(network.Config{})
	f := linear(t, c)

	if _, err := f.Trace(network.Endpoint{DPID: 1, Port: 1}, frame(t, mac1, mac2)); !errors.Is(err, ErrNoRule) {
		t.Fatalf("Expected ErrNoRule before installing the path, got=%v", err)
	}

	if _, err := c.InstallPath(ip1, ip2); err != nil {
		t.Fatal(err)
	}
	hops, err := f.Trace(network.Endpoint{DPID: 1, Port: 1}, frame(t, mac1, mac2))
	if err != nil {
		t.Fatal(err)
	}
	expected := []network.Endpoint{{DPID: 1, Port: 2}, {DPID: 2, Port: 2}, {DPID: 3, Port: 1}}
	if !reflect.DeepEqual(hops, expected) {
		t.Fatalf("Expected forward hops=%v, got=%v", expected, hops)
	}

	hops, err = f.Trace(network.Endpoint{DPID: 3, Port: 1}, frame(t, mac2, mac1))
	if err != nil {
		t.Fatal(err)
	}
	expected = []network.Endpoint{{DPID: 3, Port: 1}, {DPID: 2, Port: 1}, {DPID: 1, Port: 1}}
	if !reflect.DeepEqual(hops, expected) {
		t.Fatalf("Expected reverse hops=%v, got=%v", expected, hops)
	}

	// The mirrored tables match the controller's flow table.
	total := 0
	for _, sw := range f.Switches() {
		total += len(sw.Rules())
	}
	if total != len(c.FlowRules()) {
		t.Fatalf("Expected %v rules on the switches, got=%v", len(c.FlowRules()), total)
	}
}

func TestTraceDeadEnd(t *testing.T) {
	c := network.NewController(network.Config{})
	f := linear(t, c)
	if _, err := c.InstallPath(ip1, ip2); err != nil {
		t.Fatal(err)
	}

	ev, ok := f.Disconnect(network.Endpoint{DPID: 2, Port: 2})
	if !ok {
		t.Fatal("Expected the cable to be removed")
	}
	if ev.Dst != (network.Endpoint{DPID: 3, Port: 1}) {
		t.Fatalf("Unexpected event: %v", ev)
	}
	if _, err := f.Trace(network.Endpoint{DPID: 1, Port: 1}, frame(t, mac1, mac2)); !errors.Is(err, ErrDeadEnd) {
		t.Fatalf("Expected ErrDeadEnd, got=%v", err)
	}
}

func TestRecable(t *testing.T) {
	fabric := NewFabric()
	for i := uint64(1); i <= 3; i++ {
		fabric.AddSwitch(i, 2)
	}
	a := network.Endpoint{DPID: 1, Port: 1}
	b := network.Endpoint{DPID: 2, Port: 1}
	c := network.Endpoint{DPID: 3, Port: 1}

	if _, err := fabric.Connect(a, c); err != nil {
		t.Fatal(err)
	}
	if _, err := fabric.Connect(a, b); err != nil {
		t.Fatal(err)
	}
	if _, ok := fabric.Disconnect(c); ok {
		t.Fatal("Expected no cable on s3/1 after re-cabling s1/1")
	}
	ev, ok := fabric.Disconnect(b)
	if !ok || ev.Dst != a {
		t.Fatalf("Expected the cable between s2/1 and s1/1, got=%v (ok=%v)", ev, ok)
	}
	if _, ok := fabric.Disconnect(a); ok {
		t.Fatal("Expected no cable on s1/1 after disconnection")
	}
}
