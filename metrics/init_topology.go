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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTopologyMetrics() {
	r.TopologySwitches = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "spswitch_topology_switches",
			Help: "Number of switches in the topology",
		},
	)

	r.TopologyHosts = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "spswitch_topology_hosts",
			Help: "Number of hosts in the topology",
		},
	)

	r.TopologyLinks = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "spswitch_topology_links",
			Help: "Number of links between switches",
		},
	)

	r.TopologyEvents = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spswitch_topology_events_total",
			Help: "Total number of controller events by type",
		},
		[]string{"type"},
	)

	r.SnapshotPushesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spswitch_snapshot_pushes_total",
			Help: "Total number of topology snapshots pushed to the visualizer by result",
		},
		[]string{"result"}, // sent, failed, dropped
	)
}
