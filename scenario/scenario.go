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

// Package scenario describes an emulated network in YAML, and replays it as the events a
// controller receives from the switches and the operators.
package scenario

import (
	"fmt"
	"net"
	"os"

	"github.com/superkkt/spswitch/emulator"
	"github.com/superkkt/spswitch/network"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Switch struct {
	DPID  uint64 `yaml:"dpid"`
	Ports int    `yaml:"ports"`
}

type Endpoint struct {
	DPID uint64 `yaml:"dpid"`
	Port uint32 `yaml:"port"`
}

func (r Endpoint) endpoint() network.Endpoint {
	return network.Endpoint{DPID: r.DPID, Port: r.Port}
}

type Link struct {
	A Endpoint `yaml:"a"`
	B Endpoint `yaml:"b"`
}

type Host struct {
	MAC string   `yaml:"mac"`
	IPs []string `yaml:"ips"`
	At  Endpoint `yaml:"at"`
}

type Path struct {
	Src string `yaml:"src"`
	Dst string `yaml:"dst"`
}

type Scenario struct {
	Switches []Switch `yaml:"switches"`
	Links    []Link   `yaml:"links"`
	Hosts    []Host   `yaml:"hosts"`
	Paths    []Path   `yaml:"paths"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the scenario file")
	}

	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	v := new(Scenario)
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, errors.Wrap(err, "failed to decode the scenario")
	}
	if err := v.validate(); err != nil {
		return nil, err
	}

	return v, nil
}

func (r *Scenario) validate() error {
	ports := make(map[uint64]int)
	for _, v := range r.Switches {
		if _, ok := ports[v.DPID]; ok {
			return fmt.Errorf("duplicated switch DPID: %v", v.DPID)
		}
		if v.Ports <= 0 {
			return fmt.Errorf("invalid number of ports on s%v: %v", v.DPID, v.Ports)
		}
		ports[v.DPID] = v.Ports
	}
	validPort := func(ep Endpoint) error {
		n, ok := ports[ep.DPID]
		if !ok {
			return fmt.Errorf("unknown switch DPID: %v", ep.DPID)
		}
		if ep.Port == 0 || int(ep.Port) > n {
			return fmt.Errorf("invalid port number on s%v: %v", ep.DPID, ep.Port)
		}
		return nil
	}

	for _, v := range r.Links {
		if err := validPort(v.A); err != nil {
			return errors.Wrap(err, "invalid link")
		}
		if err := validPort(v.B); err != nil {
			return errors.Wrap(err, "invalid link")
		}
		if v.A.DPID == v.B.DPID {
			return fmt.Errorf("invalid link: self-loop on s%v", v.A.DPID)
		}
	}
	for _, v := range r.Hosts {
		if _, err := net.ParseMAC(v.MAC); err != nil {
			return errors.Wrap(err, "invalid host")
		}
		if len(v.IPs) == 0 {
			return fmt.Errorf("invalid host %v: no IP address", v.MAC)
		}
		for _, ip := range v.IPs {
			if net.ParseIP(ip) == nil {
				return fmt.Errorf("invalid host %v: invalid IP address: %v", v.MAC, ip)
			}
		}
		if err := validPort(v.At); err != nil {
			return errors.Wrap(err, "invalid host")
		}
	}
	for _, v := range r.Paths {
		if net.ParseIP(v.Src) == nil || net.ParseIP(v.Dst) == nil {
			return fmt.Errorf("invalid path: %v -> %v", v.Src, v.Dst)
		}
	}

	return nil
}

// Build creates the emulated switches, cables and hosts in fabric. It returns the events in the
// order a controller should receive them: switches, links, hosts, and then path requests.
func (r *Scenario) Build(fabric *emulator.Fabric) ([]network.Event, error) {
	result := make([]network.Event, 0)

	for _, v := range r.Switches {
		result = append(result, fabric.AddSwitch(v.DPID, v.Ports).Joined())
	}
	for _, v := range r.Links {
		ev, err := fabric.Connect(v.A.endpoint(), v.B.endpoint())
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	for _, v := range r.Hosts {
		// Validated already.
		mac, _ := net.ParseMAC(v.MAC)
		ips := make([]net.IP, len(v.IPs))
		for i, ip := range v.IPs {
			ips[i] = net.ParseIP(ip)
		}
		ev, err := fabric.Attach(mac, ips, v.At.endpoint())
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	for _, v := range r.Paths {
		result = append(result, network.PathRequest{Src: net.ParseIP(v.Src), Dst: net.ParseIP(v.Dst)})
	}

	return result, nil
}

// Replay builds the scenario in fabric and feeds the events to c.
func (r *Scenario) Replay(fabric *emulator.Fabric, c *network.Controller) error {
	events, err := r.Build(fabric)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := c.Handle(ev); err != nil {
			return errors.Wrapf(err, "failed to handle %v", ev)
		}
	}

	return nil
}
