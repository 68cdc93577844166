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
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/superkkt/spswitch/api"
	"github.com/superkkt/spswitch/network"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/davecgh/go-spew/spew"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("core")
)

type API struct {
	api.Server
}

func (r *API) routes() []*rest.Route {
	return []*rest.Route{
		rest.Get("/api/v1/status", r.status),
		rest.Post("/api/v1/path", r.installPath),
		rest.Get("/api/v1/topology", r.topology),
		rest.Get("/api/v1/flow", r.listFlows),
		rest.Delete("/api/v1/flow", r.removeFlows),
	}
}

func (r *API) Serve() error {
	return r.Server.Serve(r.routes()...)
}

func (r *API) Handler() (http.Handler, error) {
	return r.Server.Handler(r.routes()...)
}

func (r *API) status(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("status request from %v", req.RemoteAddr)

	s := r.Controller.Snapshot()
	v := struct {
		Switches int `json:"switches"`
		Hosts    int `json:"hosts"`
		Edges    int `json:"edges"`
		Flows    int `json:"flows"`
	}{
		Edges: len(s.Edges),
		Flows: len(r.Controller.FlowRules()),
	}
	for _, n := range s.Nodes {
		if n.Kind == "switch" {
			v.Switches++
		} else {
			v.Hosts++
		}
	}

	w.WriteJson(&api.Response{Status: api.StatusOkay, Data: v})
}

func (r *API) installPath(w rest.ResponseWriter, req *rest.Request) {
	p := new(pathParam)
	if err := req.DecodeJsonPayload(p); err != nil {
		w.WriteJson(api.Response{Status: api.StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("path request from %v: %v", req.RemoteAddr, spew.Sdump(p))

	result, err := r.Controller.InstallPath(p.SrcIP, p.DstIP)
	if err != nil {
		logger.Infof("failed to install a path (%v -> %v): %v", p.SrcIP, p.DstIP, err)
		w.WriteJson(api.Response{Status: pathStatus(err), Message: err.Error()})
		return
	}

	w.WriteJson(api.Response{Status: api.StatusOkay, Data: newPath(result)})
}

func pathStatus(err error) api.Status {
	switch {
	case errors.Is(err, network.ErrUnknownHost):
		return api.StatusNotFound
	case errors.Is(err, network.ErrSameHost):
		return api.StatusInvalidParameter
	case errors.Is(err, network.ErrNoPath), errors.Is(err, network.ErrMissingAdjacency):
		return api.StatusUnreachable
	default:
		return api.StatusInternalServerError
	}
}

type pathParam struct {
	SrcIP net.IP
	DstIP net.IP
}

func (r *pathParam) UnmarshalJSON(data []byte) error {
	v := struct {
		SrcIP string `json:"src_ip"`
		DstIP string `json:"dst_ip"`
	}{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	src := net.ParseIP(v.SrcIP)
	if src == nil {
		return fmt.Errorf("invalid source IP address: %v", v.SrcIP)
	}
	dst := net.ParseIP(v.DstIP)
	if dst == nil {
		return fmt.Errorf("invalid destination IP address: %v", v.DstIP)
	}
	r.SrcIP = src
	r.DstIP = dst

	return nil
}

type hop struct {
	DPID    uint64 `json:"dpid"`
	InPort  uint32 `json:"in_port"`
	OutPort uint32 `json:"out_port"`
}

type path struct {
	SrcMAC    string   `json:"src_mac"`
	DstMAC    string   `json:"dst_mac"`
	Path      []uint64 `json:"path"`
	Hops      []hop    `json:"hops"`
	Installed int      `json:"installed"`
	Evicted   int      `json:"evicted"`
}

func newPath(v network.PathResult) path {
	result := path{
		SrcMAC:    v.Src.String(),
		DstMAC:    v.Dst.String(),
		Path:      v.Path,
		Hops:      make([]hop, len(v.Hops)),
		Installed: v.Installed,
		Evicted:   v.Evicted,
	}
	for i, h := range v.Hops {
		result.Hops[i] = hop{DPID: h.DPID, InPort: h.InPort, OutPort: h.OutPort}
	}

	return result
}

func (r *API) topology(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("topology request from %v", req.RemoteAddr)

	w.WriteJson(api.Response{Status: api.StatusOkay, Data: r.Controller.Snapshot()})
}

type flow struct {
	DPID    uint64 `json:"dpid"`
	InPort  uint32 `json:"in_port"`
	SrcMAC  string `json:"src_mac,omitempty"`
	DstMAC  string `json:"dst_mac,omitempty"`
	OutPort uint32 `json:"out_port"`
}

func (r *API) listFlows(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("flow listing request from %v", req.RemoteAddr)

	rules := r.Controller.FlowRules()
	result := make([]flow, len(rules))
	for i, v := range rules {
		result[i] = flow{
			DPID:    v.DPID,
			InPort:  v.Match.InPort,
			OutPort: v.OutPort,
		}
		if v.Match.SrcMAC != nil {
			result[i].SrcMAC = v.Match.SrcMAC.String()
		}
		if v.Match.DstMAC != nil {
			result[i].DstMAC = v.Match.DstMAC.String()
		}
	}

	w.WriteJson(api.Response{Status: api.StatusOkay, Data: result})
}

func (r *API) removeFlows(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("flow removal request from %v", req.RemoteAddr)

	n := r.Controller.RemoveFlows()
	w.WriteJson(api.Response{
		Status: api.StatusOkay,
		Data: struct {
			Removed int `json:"removed"`
		}{
			Removed: n,
		},
	})
}
