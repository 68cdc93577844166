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
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)

	assert.NotNil(t, r.FlowRulesInstalled)
	assert.NotNil(t, r.FlowRulesEvicted)
	assert.NotNil(t, r.PathInstallsTotal)
	assert.NotNil(t, r.TopologySwitches)
	assert.NotNil(t, r.SnapshotPushesTotal)
	assert.NotNil(t, r.GetPrometheusRegistry())
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestRecordEviction(t *testing.T) {
	r := NewRegistry()
	r.RecordEviction("conflict", 2)
	r.RecordEviction("conflict", 0)
	r.RecordEviction("flush", 1)

	counter, err := r.FlowRulesEvicted.GetMetricWithLabelValues("conflict")
	require.NoError(t, err)

	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	assert.Equal(t, 2.0, metric.GetCounter().GetValue())
}

func TestRecordPathInstall(t *testing.T) {
	r := NewRegistry()
	r.RecordPathInstall("installed", time.Millisecond)
	r.RecordPathInstall("no_path", time.Millisecond)
	r.RecordPathInstall("installed", time.Millisecond)

	counter, err := r.PathInstallsTotal.GetMetricWithLabelValues("installed")
	require.NoError(t, err)

	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	assert.Equal(t, 2.0, metric.GetCounter().GetValue())

	families, err := r.GetPrometheusRegistry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "spswitch_path_install_duration_seconds" {
			assert.Equal(t, uint64(3), f.GetMetric()[0].GetHistogram().GetSampleCount())
			return
		}
	}
	t.Fatal("path install histogram is not registered")
}

func TestUpdateTopology(t *testing.T) {
	r := NewRegistry()
	r.UpdateTopology(3, 2, 2)

	var metric dto.Metric
	require.NoError(t, r.TopologySwitches.Write(&metric))
	assert.Equal(t, 3.0, metric.GetGauge().GetValue())
	require.NoError(t, r.TopologyLinks.Write(&metric))
	assert.Equal(t, 2.0, metric.GetGauge().GetValue())
}

func TestRecordPathComputation(t *testing.T) {
	r := NewRegistry()
	r.RecordPathComputation(true, false)
	r.RecordPathComputation(true, true)
	r.RecordPathComputation(false, false)

	var metric dto.Metric
	require.NoError(t, r.PathCacheHitsTotal.Write(&metric))
	assert.Equal(t, 1.0, metric.GetCounter().GetValue())

	counter, err := r.PathComputations.GetMetricWithLabelValues("found")
	require.NoError(t, err)
	require.NoError(t, counter.Write(&metric))
	assert.Equal(t, 2.0, metric.GetCounter().GetValue())
}
