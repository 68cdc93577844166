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

	"github.com/superkkt/spswitch/protocol"
)

// handleARP answers an ARP request on behalf of the known host owning the target address. The
// request is never flooded, so a request for an unknown address is dropped.
func (r *Controller) handleARP(ingress *Switch, inPort uint32, eth *protocol.Ethernet) {
	logger.Debugf("received ARP packet.. ingress=s%v/%v, srcEthMAC=%v, dstEthMAC=%v", ingress.DPID(), inPort, eth.SrcMAC, eth.DstMAC)

	arp := new(protocol.ARP)
	if err := arp.UnmarshalBinary(eth.Payload); err != nil {
		logger.Warningf("drop a malformed ARP packet.. ingress=s%v/%v: %v", ingress.DPID(), inPort, err)
		r.metrics.RecordARP("malformed")
		return
	}
	if r.conf.LearnHosts {
		r.learnHost(ingress, inPort, arp)
	}

	// Drop ARP announcement
	if arp.IsAnnouncement() {
		logger.Infof("drop ARP announcements.. ingress=s%v/%v (%v)", ingress.DPID(), inPort, arp)
		r.metrics.RecordARP("announcement")
		return
	}
	// ARP request?
	if arp.Operation != protocol.ARPRequest {
		logger.Infof("drop ARP packet whose type is not a request.. ingress=s%v/%v (%v)", ingress.DPID(), inPort, arp)
		r.metrics.RecordARP("not_request")
		return
	}

	mac, ok := r.topo.MAC(arp.TPA)
	if !ok {
		logger.Debugf("drop the ARP request for unknown host (%v)", arp.TPA)
		r.metrics.RecordARP("unknown")
		return
	}
	logger.Debugf("ARP request for %v (%v)", arp.TPA, mac)

	reply, err := protocol.NewARPReplyFrame(arp, mac)
	if err != nil {
		logger.Errorf("failed to make an ARP reply: %v", err)
		return
	}
	logger.Debugf("sending ARP reply to s%v/%v..", ingress.DPID(), inPort)
	if err := ingress.Datapath().PacketOut(inPort, reply); err != nil {
		logger.Errorf("failed to send ARP reply to s%v/%v: %v", ingress.DPID(), inPort, err)
		r.metrics.RecordCommandError("packet_out")
		return
	}
	r.metrics.RecordARP("replied")
}

// learnHost registers the sender of an ARP packet received on an edge port.
func (r *Controller) learnHost(ingress *Switch, inPort uint32, arp *protocol.ARP) {
	if !r.topo.IsEdgePort(ingress.DPID(), inPort) {
		return
	}
	// DHCP clients probe with the unspecified address.
	if arp.SPA == nil || arp.SPA.Equal(net.IPv4zero) {
		return
	}

	loc := Location{DPID: ingress.DPID(), Port: inPort}
	if host, ok := r.topo.Host(arp.SHA); ok && host.Location() == loc && containsIP(host.IPs(), arp.SPA) {
		return
	}
	r.addHost(arp.SHA, []net.IP{arp.SPA}, loc)
}

func containsIP(ips []net.IP, ip net.IP) bool {
	for _, v := range ips {
		if v.Equal(ip) {
			return true
		}
	}
	return false
}
