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

func (r *Registry) initFlowMetrics() {
	r.FlowRulesInstalled = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "spswitch_flow_rules_installed_total",
			Help: "Total number of flow rules installed on switches",
		},
	)

	r.FlowRulesEvicted = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spswitch_flow_rules_evicted_total",
			Help: "Total number of flow rules removed from switches",
		},
		[]string{"reason"}, // conflict, host_moved, switch_left, flush
	)

	r.FlowCommandErrors = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spswitch_flow_command_errors_total",
			Help: "Total number of switch commands that failed to be sent",
		},
		[]string{"command"}, // install, delete, packet_out
	)

	r.FlowRulesActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "spswitch_flow_rules_active",
			Help: "Number of flow rules recorded in the flow table",
		},
	)

	r.PathInstallsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spswitch_path_installs_total",
			Help: "Total number of path installations by result",
		},
		[]string{"result"}, // installed, unchanged, unknown_host, no_path, missing_adjacency
	)

	r.PathComputations = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spswitch_path_computations_total",
			Help: "Total number of shortest path computations by result",
		},
		[]string{"result"}, // found, none
	)

	r.PathCacheHitsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "spswitch_path_cache_hits_total",
			Help: "Total number of shortest path lookups served from the path cache",
		},
	)

	r.PathInstallDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spswitch_path_install_duration_seconds",
			Help:    "Duration of path installations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	r.ARPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spswitch_arp_requests_total",
			Help: "Total number of ARP requests handled by result",
		},
		[]string{"result"}, // replied, unknown, announcement, not_request, malformed
	)
}
