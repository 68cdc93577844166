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

package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/superkkt/spswitch/network"

	"github.com/ant0ine/go-json-rest/rest"
)

type Server struct {
	Port uint16
	TLS  struct {
		Cert string // Path for a TLS certification file.
		Key  string // Path for a TLS private key file.
	}
	Controller Controller
}

type Controller interface {
	InstallPath(src, dst net.IP) (network.PathResult, error)
	FlowRules() []network.FlowRule
	RemoveFlows() int
	Snapshot() *network.Snapshot
}

func (r *Server) validate() error {
	if r.Controller == nil {
		return errors.New("nil controller")
	}

	return nil
}

// Handler returns the HTTP handler serving routes.
func (r *Server) Handler(routes ...*rest.Route) (http.Handler, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	api := rest.NewApi()
	// Middleware to set the CORS header.
	api.Use(rest.MiddlewareSimple(func(handler rest.HandlerFunc) rest.HandlerFunc {
		return func(writer rest.ResponseWriter, request *rest.Request) {
			writer.Header().Set("Access-Control-Allow-Origin", "*")
			handler(writer, request)
		}
	}))
	router, err := rest.MakeRouter(routes...)
	if err != nil {
		return nil, err
	}
	api.SetApp(router)

	return api.MakeHandler(), nil
}

func (r *Server) Serve(routes ...*rest.Route) error {
	handler, err := r.Handler(routes...)
	if err != nil {
		return err
	}

	// Listen on all interfaces.
	addr := fmt.Sprintf(":%v", r.Port)
	if r.TLS.Cert != "" && r.TLS.Key != "" {
		err = http.ListenAndServeTLS(addr, r.TLS.Cert, r.TLS.Key, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}

	return err
}
