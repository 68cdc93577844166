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
	"encoding/json"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSnapshot(t *testing.T) {
	c, _ := linear(Config{})

	s := c.Snapshot()
	if len(s.Nodes) != 5 {
		t.Fatalf("Expected 5 nodes, got=%v", s.Nodes)
	}
	if s.Nodes[0].ID != "s1" || s.Nodes[3].ID != mac1.String() {
		t.Fatalf("Unexpected node order: %v", s.Nodes)
	}
	if len(s.Nodes[3].IPs) != 1 || s.Nodes[3].IPs[0] != "10.0.0.1" {
		t.Fatalf("Unexpected host addresses: %v", s.Nodes[3].IPs)
	}
	// Two links and two host attachments.
	if len(s.Edges) != 4 {
		t.Fatalf("Expected 4 edges, got=%v", s.Edges)
	}
	if e := s.Edges[0]; e.A != "s1" || e.B != "s2" || e.PortA != 2 || e.PortB != 1 {
		t.Fatalf("Unexpected first edge: %+v", e)
	}
	if c.Snapshot().ID == s.ID {
		t.Fatal("Expected a new ID for each snapshot")
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"port_a":2`) {
		t.Fatalf("Unexpected JSON: %s", data)
	}
}

func TestSnapshotDOT(t *testing.T) {
	c, _ := linear(Config{})

	data, err := c.Snapshot().MarshalDOT()
	if err != nil {
		t.Fatal(err)
	}
	dot := string(data)
	for _, v := range []string{"topology {", "s1 -- s2", "s2 -- s3", "taillabel=2", "headlabel=1"} {
		if !strings.Contains(dot, v) {
			t.Fatalf("Expected %q in the DOT output:\n%v", v, dot)
		}
	}

	bad := &Snapshot{Edges: []SnapshotEdge{{A: "s1", B: "s2"}}}
	if _, err := bad.MarshalDOT(); err == nil {
		t.Fatal("Expected error for an edge with unknown endpoints")
	}
}

func TestNotifierLatestWins(t *testing.T) {
	n := NewNotifier(NotifierConfig{Address: "127.0.0.1:1"})
	snapshots := []*Snapshot{{}, {}, {}}
	for _, v := range snapshots {
		n.Push(v)
	}
	if v := <-n.queue; v != snapshots[2] {
		t.Fatal("Expected only the latest snapshot to be queued")
	}
	select {
	case <-n.queue:
		t.Fatal("Expected an empty queue")
	default:
	}
}

func TestNotifierPush(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- string(data)
	}()

	n := NewNotifier(NotifierConfig{Address: l.Addr().String(), Timeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	// Every topology change queues a snapshot.
	linear(Config{Listener: n})

	select {
	case data := <-received:
		if !strings.Contains(data, "s1") {
			t.Fatalf("Unexpected snapshot: %v", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout while waiting for a snapshot")
	}
}

func TestConcurrentSnapshot(t *testing.T) {
	c, _ := linear(Config{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			ip := net.IPv4(10, 0, 1, byte(i))
			if err := c.Handle(HostJoined{MAC: mac1, IPs: []net.IP{ip}, DPID: 1, Port: 1}); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	for i := 0; i < 200; i++ {
		if s := c.Snapshot(); len(s.Nodes) != 5 {
			t.Fatalf("Expected 5 nodes, got=%v", s.Nodes)
		}
		if c.String() == "" {
			t.Fatal("Expected a non-empty controller dump")
		}
	}
	wg.Wait()

	for _, n := range c.Snapshot().Nodes {
		if n.MAC == mac1.String() && len(n.IPs) != 201 {
			t.Fatalf("Expected 201 addresses of %v, got=%v", mac1, len(n.IPs))
		}
	}
}
