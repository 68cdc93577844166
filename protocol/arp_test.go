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

package protocol

import (
	"bytes"
	"net"
	"testing"
)

func TestARPReplyFrame(t *testing.T) {
	requester := net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x01}
	target := net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0x02}
	frame, err := NewARPRequestFrame(requester, net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}

	eth := new(Ethernet)
	if err := eth.UnmarshalBinary(frame); err != nil {
		t.Fatal(err)
	}
	if eth.Type != EthernetTypeARP || !eth.IsBroadcast() {
		t.Fatalf("Unexpected request frame: type=%v, dst=%v", eth.Type, eth.DstMAC)
	}
	request := new(ARP)
	if err := request.UnmarshalBinary(eth.Payload); err != nil {
		t.Fatal(err)
	}
	if request.Operation != ARPRequest || request.IsAnnouncement() {
		t.Fatalf("Unexpected request: %v", request)
	}

	frame, err = NewARPReplyFrame(request, target)
	if err != nil {
		t.Fatal(err)
	}
	if err := eth.UnmarshalBinary(frame); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(eth.SrcMAC, target) || !bytes.Equal(eth.DstMAC, requester) {
		t.Fatalf("Unexpected reply addresses: src=%v, dst=%v", eth.SrcMAC, eth.DstMAC)
	}
	reply := new(ARP)
	if err := reply.UnmarshalBinary(eth.Payload); err != nil {
		t.Fatal(err)
	}
	if reply.Operation != ARPReply {
		t.Fatalf("Expected ARP reply, got=%v", reply.Operation)
	}
	if !bytes.Equal(reply.SHA, target) || !reply.SPA.Equal(net.IPv4(10, 0, 0, 2)) {
		t.Fatalf("Unexpected sender: %v", reply)
	}
	if !bytes.Equal(reply.THA, requester) || !reply.TPA.Equal(net.IPv4(10, 0, 0, 1)) {
		t.Fatalf("Unexpected target: %v", reply)
	}
}

func TestARPAnnouncement(t *testing.T) {
	mac := net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x01}
	ip := net.IPv4(10, 0, 0, 1)

	src := []struct {
		ARP      *ARP
		Expected bool
	}{
		{ARP: NewARPRequest(mac, ZeroMAC, ip, ip), Expected: true},
		{ARP: NewARPRequest(mac, BroadcastMAC, ip, ip), Expected: true},
		{ARP: NewARPReply(mac, mac, ip, ip), Expected: true},
		{ARP: NewARPRequest(mac, ZeroMAC, ip, net.IPv4(10, 0, 0, 2)), Expected: false},
	}
	for i, v := range src {
		if v.ARP.IsAnnouncement() != v.Expected {
			t.Fatalf("#%v: expected=%v, got=%v", i, v.Expected, !v.Expected)
		}
	}
}

func TestInvalidFrames(t *testing.T) {
	if err := new(Ethernet).UnmarshalBinary(make([]byte, 10)); err == nil {
		t.Fatal("Expected error for a short ethernet frame")
	}
	// 802.1Q header without the inner type.
	short := make([]byte, 15)
	short[12], short[13] = 0x81, 0x00
	if err := new(Ethernet).UnmarshalBinary(short); err == nil {
		t.Fatal("Expected error for a short 802.1Q frame")
	}
	if err := new(ARP).UnmarshalBinary(make([]byte, 27)); err == nil {
		t.Fatal("Expected error for a short ARP packet")
	}
	if _, err := (Ethernet{SrcMAC: ZeroMAC, DstMAC: BroadcastMAC}).MarshalBinary(); err == nil {
		t.Fatal("Expected error for a nil payload")
	}
}
