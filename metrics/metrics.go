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

package metrics

import (
	"time"
)

// RecordEviction records flow rules removed from a switch.
func (r *Registry) RecordEviction(reason string, n int) {
	if n <= 0 {
		return
	}
	r.FlowRulesEvicted.WithLabelValues(reason).Add(float64(n))
}

// RecordCommandError records a switch command that could not be sent.
func (r *Registry) RecordCommandError(command string) {
	r.FlowCommandErrors.WithLabelValues(command).Inc()
}

// RecordPathInstall records the result of a path installation and its duration.
func (r *Registry) RecordPathInstall(result string, duration time.Duration) {
	r.PathInstallsTotal.WithLabelValues(result).Inc()
	r.PathInstallDuration.Observe(duration.Seconds())
}

// RecordPathComputation records a shortest path query.
func (r *Registry) RecordPathComputation(found, cached bool) {
	if cached {
		r.PathCacheHitsTotal.Inc()
	}
	if found {
		r.PathComputations.WithLabelValues("found").Inc()
	} else {
		r.PathComputations.WithLabelValues("none").Inc()
	}
}

// RecordEvent records a controller event by its type.
func (r *Registry) RecordEvent(eventType string) {
	r.TopologyEvents.WithLabelValues(eventType).Inc()
}

// UpdateTopology updates topology-related gauges.
func (r *Registry) UpdateTopology(switches, hosts, links int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.TopologySwitches.Set(float64(switches))
	r.TopologyHosts.Set(float64(hosts))
	r.TopologyLinks.Set(float64(links))
}

// SetActiveRules sets the number of rules recorded in the flow table.
func (r *Registry) SetActiveRules(n int) {
	r.FlowRulesActive.Set(float64(n))
}

// RecordARP records how an ARP packet has been handled.
func (r *Registry) RecordARP(result string) {
	r.ARPRequestsTotal.WithLabelValues(result).Inc()
}

// RecordSnapshotPush records the result of pushing a topology snapshot.
func (r *Registry) RecordSnapshotPush(result string) {
	r.SnapshotPushesTotal.WithLabelValues(result).Inc()
}
