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

package core

import (
	"net"
	"testing"

	"github.com/superkkt/spswitch/api"
	"github.com/superkkt/spswitch/network"

	"github.com/ant0ine/go-json-rest/rest/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type datapath struct {
	dpid uint64
}

func (r datapath) ID() uint64 { return r.dpid }

func (r datapath) InstallRule(network.Rule) error { return nil }

func (r datapath) DeleteRule(network.Match) error { return nil }

func (r datapath) PacketOut(uint32, []byte) error { return nil }

func newAPI(t *testing.T) *API {
	c := network.NewController(network.Config{})
	events := []network.Event{
		network.SwitchJoined{Datapath: datapath{1}, Ports: []network.Port{{Number: 1}, {Number: 2}}},
		network.SwitchJoined{Datapath: datapath{2}, Ports: []network.Port{{Number: 1}, {Number: 2}}},
		network.LinkAdded{Src: network.Endpoint{DPID: 1, Port: 2}, Dst: network.Endpoint{DPID: 2, Port: 1}},
		network.HostJoined{MAC: net.HardwareAddr{0, 0, 0, 0, 0, 1}, IPs: []net.IP{net.IPv4(10, 0, 0, 1)}, DPID: 1, Port: 1},
		network.HostJoined{MAC: net.HardwareAddr{0, 0, 0, 0, 0, 2}, IPs: []net.IP{net.IPv4(10, 0, 0, 2)}, DPID: 2, Port: 2},
	}
	for _, ev := range events {
		require.NoError(t, c.Handle(ev))
	}

	return &API{Server: api.Server{Controller: c}}
}

type pathResponse struct {
	Status  api.Status `json:"status"`
	Message string     `json:"message"`
	Data    path       `json:"data"`
}

func TestInstallPath(t *testing.T) {
	handler, err := newAPI(t).Handler()
	require.NoError(t, err)

	req := test.MakeSimpleRequest("POST", "http://localhost/api/v1/path", map[string]string{
		"src_ip": "10.0.0.1",
		"dst_ip": "10.0.0.2",
	})
	recorded := test.RunRequest(t, handler, req)
	recorded.CodeIs(200)
	recorded.ContentTypeIsJson()
	assert.Equal(t, "*", recorded.Recorder.Header().Get("Access-Control-Allow-Origin"))

	var resp pathResponse
	require.NoError(t, recorded.DecodeJsonPayload(&resp))
	assert.Equal(t, api.Status(api.StatusOkay), resp.Status)
	assert.Equal(t, []uint64{1, 2}, resp.Data.Path)
	assert.Equal(t, "00:00:00:00:00:01", resp.Data.SrcMAC)
	assert.Equal(t, 4, resp.Data.Installed)
	require.Len(t, resp.Data.Hops, 2)
	assert.Equal(t, hop{DPID: 2, InPort: 1, OutPort: 2}, resp.Data.Hops[1])
}

func TestInstallPathErrors(t *testing.T) {
	handler, err := newAPI(t).Handler()
	require.NoError(t, err)

	src := []struct {
		Param    map[string]string
		Expected api.Status
	}{
		{Param: map[string]string{"src_ip": "10.0.0.1", "dst_ip": "10.0.0.9"}, Expected: api.StatusNotFound},
		{Param: map[string]string{"src_ip": "10.0.0.1", "dst_ip": "invalid"}, Expected: api.StatusInvalidParameter},
		{Param: map[string]string{"src_ip": "10.0.0.1", "dst_ip": "10.0.0.1"}, Expected: api.StatusInvalidParameter},
	}
	for _, v := range src {
		recorded := test.RunRequest(t, handler, test.MakeSimpleRequest("POST", "http://localhost/api/v1/path", v.Param))
		recorded.CodeIs(200)

		var resp api.Response
		require.NoError(t, recorded.DecodeJsonPayload(&resp))
		assert.Equal(t, v.Expected, resp.Status, "param=%v", v.Param)
		assert.NotEmpty(t, resp.Message)
	}
}

func TestFlows(t *testing.T) {
	a := newAPI(t)
	handler, err := a.Handler()
	require.NoError(t, err)
	_, err = a.Controller.InstallPath(net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2))
	require.NoError(t, err)

	recorded := test.RunRequest(t, handler, test.MakeSimpleRequest("GET", "http://localhost/api/v1/flow", nil))
	recorded.CodeIs(200)
	var flows struct {
		Status api.Status `json:"status"`
		Data   []flow     `json:"data"`
	}
	require.NoError(t, recorded.DecodeJsonPayload(&flows))
	require.Len(t, flows.Data, 4)
	assert.Equal(t, flow{DPID: 1, InPort: 1, SrcMAC: "00:00:00:00:00:01", DstMAC: "00:00:00:00:00:02", OutPort: 2}, flows.Data[0])

	recorded = test.RunRequest(t, handler, test.MakeSimpleRequest("DELETE", "http://localhost/api/v1/flow", nil))
	recorded.CodeIs(200)
	var removed struct {
		Data struct {
			Removed int `json:"removed"`
		} `json:"data"`
	}
	require.NoError(t, recorded.DecodeJsonPayload(&removed))
	assert.Equal(t, 4, removed.Data.Removed)
	assert.Empty(t, a.Controller.FlowRules())
}

func TestTopologyAndStatus(t *testing.T) {
	handler, err := newAPI(t).Handler()
	require.NoError(t, err)

	recorded := test.RunRequest(t, handler, test.MakeSimpleRequest("GET", "http://localhost/api/v1/topology", nil))
	recorded.CodeIs(200)
	var topo struct {
		Data network.Snapshot `json:"data"`
	}
	require.NoError(t, recorded.DecodeJsonPayload(&topo))
	assert.Len(t, topo.Data.Nodes, 4)
	assert.Len(t, topo.Data.Edges, 3)

	recorded = test.RunRequest(t, handler, test.MakeSimpleRequest("GET", "http://localhost/api/v1/status", nil))
	recorded.CodeIs(200)
	var status struct {
		Data struct {
			Switches int `json:"switches"`
			Hosts    int `json:"hosts"`
		} `json:"data"`
	}
	require.NoError(t, recorded.DecodeJsonPayload(&status))
	assert.Equal(t, 2, status.Data.Switches)
	assert.Equal(t, 2, status.Data.Hosts)
}

func TestNilController(t *testing.T) {
	_, err := (&API{}).Handler()
	assert.Error(t, err)
}
