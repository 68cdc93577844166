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
	"context"
	"net"
	"time"

	"github.com/superkkt/spswitch/metrics"

	"github.com/pkg/errors"
)

type NotifierConfig struct {
	// TCP address of the topology visualizer.
	Address string
	// Zero means 3 seconds.
	Timeout time.Duration
	Metrics *metrics.Registry
}

// Notifier pushes the DOT encoding of the latest topology snapshot to a visualizer over TCP. Only
// the latest snapshot matters, so a pending snapshot is replaced by a newer one. A failure to push
// is logged and never affects the controller.
type Notifier struct {
	conf    NotifierConfig
	queue   chan *Snapshot
	metrics *metrics.Registry
}

func NewNotifier(conf NotifierConfig) *Notifier {
	if conf.Timeout <= 0 {
		conf.Timeout = 3 * time.Second
	}
	m := conf.Metrics
	if m == nil {
		m = metrics.NewRegistry()
	}

	return &Notifier{
		conf:    conf,
		queue:   make(chan *Snapshot, 1),
		metrics: m,
	}
}

// OnTopologyChange implements TopologyListener. It never blocks.
func (r *Notifier) OnTopologyChange(t *Topology) {
	r.Push(t.Snapshot())
}

// Push queues s, replacing the snapshot that has not been sent yet.
func (r *Notifier) Push(s *Snapshot) {
	for {
		select {
		case r.queue <- s:
			return
		default:
		}

		// Drop the stale one.
		select {
		case old := <-r.queue:
			logger.Debugf("replacing the pending snapshot: %v", old.ID)
			r.metrics.RecordSnapshotPush("dropped")
		default:
		}
	}
}

// Run sends the queued snapshots until ctx is canceled.
func (r *Notifier) Run(ctx context.Context) {
	logger.Infof("topology notifier started: address=%v", r.conf.Address)
	defer logger.Infof("topology notifier stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-r.queue:
			if err := r.send(ctx, s); err != nil {
				logger.Warningf("failed to push the topology snapshot (%v): %v", s.ID, err)
				r.metrics.RecordSnapshotPush("failed")
				continue
			}
			logger.Debugf("pushed the topology snapshot: %v", s)
			r.metrics.RecordSnapshotPush("sent")
		}
	}
}

func (r *Notifier) send(ctx context.Context, s *Snapshot) error {
	data, err := s.MarshalDOT()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.conf.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", r.conf.Address)
	if err != nil {
		return errors.Wrap(err, "failed to connect to the visualizer")
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(data); err != nil {
		return errors.Wrap(err, "failed to write the snapshot")
	}

	return nil
}
