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
	"net"
	"sort"
)

// hostIndex locates hosts by their MAC and IP addresses. A caller should serialize the access.
type hostIndex struct {
	// Key is the string form of a MAC address.
	hosts map[string]*Host
	// Key is the string form of an IPv4 address, and the value is a MAC address.
	addrs map[string]net.HardwareAddr
}

func newHostIndex() *hostIndex {
	return &hostIndex{
		hosts: make(map[string]*Host),
		addrs: make(map[string]net.HardwareAddr),
	}
}

func ipKey(ip net.IP) string {
	if v := ip.To4(); v != nil {
		return v.String()
	}
	return ip.String()
}

// add registers a host, or updates the location and merges the addresses of a known host. moved
// is true if the host is known and its location has been changed.
func (r *hostIndex) add(mac net.HardwareAddr, ips []net.IP, loc Location) (host *Host, moved bool, prev Location) {
	host, ok := r.hosts[mac.String()]
	if !ok {
		host = &Host{mac: append(net.HardwareAddr(nil), mac...)}
		r.hosts[mac.String()] = host
	} else if host.location != loc {
		moved = true
		prev = host.location
	}
	host.location = loc

	for _, ip := range ips {
		r.bind(host, ip)
	}

	return host, moved, prev
}

// bind maps ip to host, and takes it away from the previous owner if any.
func (r *hostIndex) bind(host *Host, ip net.IP) {
	key := ipKey(ip)
	if owner, ok := r.addrs[key]; ok && !bytes.Equal(owner, host.mac) {
		if h, ok := r.hosts[owner.String()]; ok {
			h.ips = removeIP(h.ips, ip)
		}
	}
	r.addrs[key] = host.mac

	for _, v := range host.ips {
		if v.Equal(ip) {
			return
		}
	}
	host.ips = append(host.ips, copyIP(ip))
}

func copyIP(ip net.IP) net.IP {
	if v := ip.To4(); v != nil {
		ip = v
	}
	return append(net.IP(nil), ip...)
}

func removeIP(ips []net.IP, ip net.IP) []net.IP {
	result := make([]net.IP, 0, len(ips))
	for _, v := range ips {
		if v.Equal(ip) {
			continue
		}
		result = append(result, v)
	}
	return result
}

func (r *hostIndex) remove(mac net.HardwareAddr) (*Host, bool) {
	host, ok := r.hosts[mac.String()]
	if !ok {
		return nil, false
	}
	for _, ip := range host.ips {
		if owner, ok := r.addrs[ipKey(ip)]; ok && bytes.Equal(owner, mac) {
			delete(r.addrs, ipKey(ip))
		}
	}
	delete(r.hosts, mac.String())

	return host, true
}

// removeOnSwitch removes all the hosts attached to the switch whose DPID is dpid.
func (r *hostIndex) removeOnSwitch(dpid uint64) []*Host {
	result := make([]*Host, 0)
	for _, h := range r.all() {
		if h.location.DPID != dpid {
			continue
		}
		r.remove(h.mac)
		result = append(result, h)
	}

	return result
}

func (r *hostIndex) byMAC(mac net.HardwareAddr) (*Host, bool) {
	host, ok := r.hosts[mac.String()]
	return host, ok
}

func (r *hostIndex) byIP(ip net.IP) (*Host, bool) {
	mac, ok := r.addrs[ipKey(ip)]
	if !ok {
		return nil, false
	}
	return r.byMAC(mac)
}

// all returns the hosts sorted by their MAC addresses.
func (r *hostIndex) all() []*Host {
	result := make([]*Host, 0, len(r.hosts))
	for _, h := range r.hosts {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return bytes.Compare(result[i].mac, result[j].mac) < 0 })

	return result
}
