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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics of the controller.
type Registry struct {
	// Flow metrics
	FlowRulesInstalled  prometheus.Counter
	FlowRulesEvicted    *prometheus.CounterVec
	FlowCommandErrors   *prometheus.CounterVec
	FlowRulesActive     prometheus.Gauge
	PathInstallsTotal   *prometheus.CounterVec
	PathComputations    *prometheus.CounterVec
	PathCacheHitsTotal  prometheus.Counter
	PathInstallDuration prometheus.Histogram

	// Topology metrics
	TopologySwitches prometheus.Gauge
	TopologyHosts    prometheus.Gauge
	TopologyLinks    prometheus.Gauge
	TopologyEvents   *prometheus.CounterVec

	// ARP metrics
	ARPRequestsTotal *prometheus.CounterVec

	// Snapshot metrics
	SnapshotPushesTotal *prometheus.CounterVec

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}
	r.initFlowMetrics()
	r.initTopologyMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
