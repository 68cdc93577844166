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
	"sort"
	"sync"

	"github.com/superkkt/spswitch/metrics"
)

type FlowConfig struct {
	Priority    uint16
	IdleTimeout uint16
	HardTimeout uint16
	Metrics     *metrics.Registry
}

// FlowRule is an installed forwarding decision.
type FlowRule struct {
	DPID    uint64
	Match   Match
	OutPort uint32
}

func (r FlowRule) String() string {
	return fmt.Sprintf("DPID=%v, %v, OutPort=%v", r.DPID, r.Match, r.OutPort)
}

type flowEntry struct {
	match   Match
	outPort uint32
}

type switchFlows struct {
	datapath Datapath
	// Key is Match.Key().
	entries map[string]flowEntry
}

// FlowTable records the rules installed on each switch, and keeps them consistent with the
// switches: a match maps to at most one output port on a switch at any time. A conflicting rule is
// always removed from the switch before a new one is installed.
type FlowTable struct {
	mutex   sync.Mutex
	flows   map[uint64]*switchFlows
	conf    FlowConfig
	metrics *metrics.Registry
}

func NewFlowTable(conf FlowConfig) *FlowTable {
	m := conf.Metrics
	if m == nil {
		m = metrics.NewRegistry()
	}

	return &FlowTable{
		flows:   make(map[uint64]*switchFlows),
		conf:    conf,
		metrics: m,
	}
}

// A caller should make sure the mutex is locked before calling this function.
func (r *FlowTable) flowsOf(dp Datapath) *switchFlows {
	v, ok := r.flows[dp.ID()]
	if !ok {
		v = &switchFlows{entries: make(map[string]flowEntry)}
		r.flows[dp.ID()] = v
	}
	// The switch may have reconnected with a new handle.
	v.datapath = dp

	return v
}

func (r *FlowTable) Lookup(dpid uint64, match Match) (outPort uint32, ok bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.lookup(dpid, match)
}

// A caller should make sure the mutex is locked before calling this function.
func (r *FlowTable) lookup(dpid uint64, match Match) (outPort uint32, ok bool) {
	v, ok := r.flows[dpid]
	if !ok {
		return 0, false
	}
	e, ok := v.entries[match.Key()]
	if !ok {
		return 0, false
	}

	return e.outPort, true
}

// Record commits match -> outPort on the switch whose DPID is dp.ID(). The install command should
// have been issued already.
func (r *FlowTable) Record(dp Datapath, match Match, outPort uint32) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.record(dp, match, outPort)
}

// A caller should make sure the mutex is locked before calling this function.
func (r *FlowTable) record(dp Datapath, match Match, outPort uint32) {
	r.flowsOf(dp).entries[match.Key()] = flowEntry{match: match, outPort: outPort}
	r.metrics.SetActiveRules(r.count())
}

// A caller should make sure the mutex is locked before calling this function.
func (r *FlowTable) count() int {
	n := 0
	for _, v := range r.flows {
		n += len(v.entries)
	}
	return n
}

// Reconcile evicts the rules conflicting with match -> outPort from the switch and from the table.
// The reverse direction is checked as well because rules are installed bidirectionally: the rule
// whose input port is outPort must send the opposite traffic back to match.InPort. It returns the
// number of evicted rules.
func (r *FlowTable) Reconcile(dp Datapath, match Match, outPort uint32) (evicted int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.reconcile(dp, match, outPort)
}

// A caller should make sure the mutex is locked before calling this function.
func (r *FlowTable) reconcile(dp Datapath, match Match, outPort uint32) (evicted int) {
	if r.evict(dp, match, outPort) {
		evicted++
	}
	if r.evict(dp, match.Reverse(outPort), match.InPort) {
		evicted++
	}
	r.metrics.RecordEviction("conflict", evicted)

	return evicted
}

// evict removes the rule for match if its output port is not want. Evicting a non-existent rule is
// a no-op.
func (r *FlowTable) evict(dp Datapath, match Match, want uint32) bool {
	flows := r.flowsOf(dp)
	e, ok := flows.entries[match.Key()]
	if !ok || e.outPort == want {
		return false
	}

	logger.Infof("evicting a stale flow rule: DPID=%v, %v, OutPort=%v (requested=%v)", dp.ID(), e.match, e.outPort, want)
	r.delete(flows, match.Key())

	return true
}

// A caller should make sure the mutex is locked before calling this function.
func (r *FlowTable) delete(flows *switchFlows, key string) {
	e := flows.entries[key]
	if err := flows.datapath.DeleteRule(e.match); err != nil {
		logger.Errorf("failed to delete a flow rule on DPID=%v: %v", flows.datapath.ID(), err)
		r.metrics.RecordCommandError("delete")
	}
	delete(flows.entries, key)
	r.metrics.SetActiveRules(r.count())
}

// Install reconciles, then installs match -> outPort and its reverse direction on the switch. A
// direction already recorded with the same output port is not installed again. It returns the
// number of issued install commands and the number of evicted rules.
func (r *FlowTable) Install(dp Datapath, match Match, outPort uint32) (installed, evicted int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Eviction always precedes installation.
	evicted = r.reconcile(dp, match, outPort)

	directions := []struct {
		match   Match
		outPort uint32
	}{
		{match, outPort},
		{match.Reverse(outPort), match.InPort},
	}
	for _, v := range directions {
		if cur, ok := r.lookup(dp.ID(), v.match); ok && cur == v.outPort {
			logger.Debugf("flow rule already installed: DPID=%v, %v, OutPort=%v", dp.ID(), v.match, v.outPort)
			continue
		}

		rule := Rule{
			Match:       v.match,
			OutPort:     v.outPort,
			Priority:    r.conf.Priority,
			IdleTimeout: r.conf.IdleTimeout,
			HardTimeout: r.conf.HardTimeout,
		}
		if err := dp.InstallRule(rule); err != nil {
			logger.Errorf("failed to install a flow rule on DPID=%v (%v): %v", dp.ID(), rule, err)
			r.metrics.RecordCommandError("install")
			continue
		}
		logger.Debugf("installed a flow rule: DPID=%v, %v", dp.ID(), rule)
		r.record(dp, v.match, v.outPort)
		r.metrics.FlowRulesInstalled.Inc()
		installed++
	}

	return installed, evicted
}

// RemoveSwitch forgets the rules of a switch that has left. No command is issued.
func (r *FlowTable) RemoveSwitch(dpid uint64) (removed int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	v, ok := r.flows[dpid]
	if !ok {
		return 0
	}
	removed = len(v.entries)
	delete(r.flows, dpid)
	r.metrics.RecordEviction("switch_left", removed)
	r.metrics.SetActiveRules(r.count())

	return removed
}

// RemoveByMAC evicts every rule whose match is qualified by mac.
func (r *FlowTable) RemoveByMAC(mac net.HardwareAddr) (removed int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, flows := range r.flows {
		for key, e := range flows.entries {
			if !e.match.Mentions(mac) {
				continue
			}
			r.delete(flows, key)
			removed++
		}
	}
	r.metrics.RecordEviction("host_moved", removed)

	return removed
}

// RemoveAll evicts every rule from every switch.
func (r *FlowTable) RemoveAll() (removed int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, flows := range r.flows {
		for key := range flows.entries {
			r.delete(flows, key)
			removed++
		}
	}
	r.metrics.RecordEviction("flush", removed)

	return removed
}

// Rules returns all the recorded rules sorted by DPID, input port and match.
func (r *FlowTable) Rules() []FlowRule {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	result := make([]FlowRule, 0)
	for dpid, flows := range r.flows {
		for _, e := range flows.entries {
			result = append(result, FlowRule{DPID: dpid, Match: e.match, OutPort: e.outPort})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DPID != result[j].DPID {
			return result[i].DPID < result[j].DPID
		}
		if result[i].Match.InPort != result[j].Match.InPort {
			return result[i].Match.InPort < result[j].Match.InPort
		}
		return result[i].Match.Key() < result[j].Match.Key()
	})

	return result
}

// Len returns the number of recorded rules.
func (r *FlowTable) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.count()
}
