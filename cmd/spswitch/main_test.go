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

package main

import (
	"testing"

	"github.com/superkkt/spswitch/metrics"
	"github.com/superkkt/spswitch/network"

	"github.com/spf13/viper"
)

func TestValidateConfig(t *testing.T) {
	src := []struct {
		Key      string
		Value    interface{}
		Expected bool
	}{
		{Key: "default.log_level", Value: "verbose", Expected: false},
		{Key: "default.log_backend", Value: "kafka", Expected: false},
		{Key: "flow.match", Value: "vlan", Expected: false},
		{Key: "flow.priority", Value: 70000, Expected: false},
		{Key: "topology.path_cache_size", Value: -1, Expected: false},
		{Key: "rest.port", Value: 0, Expected: false},
		{Key: "rest.tls", Value: true, Expected: false},
		{Key: "metrics.port", Value: 65536, Expected: false},
		{Key: "flow.match", Value: "port", Expected: true},
		{Key: "default.log_level", Value: "debug", Expected: true},
	}
	for _, v := range src {
		viper.Reset()
		setDefaults()
		viper.Set(v.Key, v.Value)
		if err := validateConfig(); (err == nil) != v.Expected {
			t.Fatalf("%v=%v: expected valid=%v, got err=%v", v.Key, v.Value, v.Expected, err)
		}
	}
}

func TestControllerConfig(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.Set("flow.match", "port")
	viper.Set("arp.learn_hosts", true)

	conf, err := controllerConfig(metrics.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if conf.MatchPolicy != network.MatchPort || !conf.LearnHosts || conf.Priority != 30 || conf.PathCacheSize != 1024 {
		t.Fatalf("Unexpected config: %+v", conf)
	}
}
