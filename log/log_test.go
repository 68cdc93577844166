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

package log

import (
	"strconv"
	"testing"

	"github.com/op/go-logging"
)

func TestParseLevel(t *testing.T) {
	src := []struct {
		Level    string
		Expected logging.Level
		Error    bool
	}{
		{Level: "debug", Expected: logging.DEBUG},
		{Level: "INFO", Expected: logging.INFO},
		{Level: "Warning", Expected: logging.WARNING},
		{Level: "error", Expected: logging.ERROR},
		{Level: "verbose", Expected: DefaultLevel, Error: true},
		{Level: "", Expected: DefaultLevel, Error: true},
	}
	for _, v := range src {
		level, err := ParseLevel(v.Level)
		if (err != nil) != v.Error {
			t.Fatalf("%v: expected error=%v, got=%v", v.Level, v.Error, err)
		}
		if level != v.Expected {
			t.Fatalf("%v: expected=%v, got=%v", v.Level, v.Expected, level)
		}
	}
}

func TestNewBackend(t *testing.T) {
	if _, err := NewBackend("stderr", "test"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewBackend("kafka", "test"); err == nil {
		t.Fatal("Expected error for an unknown backend")
	}
}

func TestInit(t *testing.T) {
	leveled := Init(NewStderr(), logging.WARNING)
	if leveled.GetLevel("") != logging.WARNING {
		t.Fatalf("Expected WARNING, got=%v", leveled.GetLevel(""))
	}
	leveled.SetLevel(logging.DEBUG, "")
	if !leveled.IsEnabledFor(logging.DEBUG, "network") {
		t.Fatal("Expected DEBUG to be enabled for all modules")
	}
}

func TestGoroutineID(t *testing.T) {
	if _, err := strconv.Atoi(goroutineID()); err != nil {
		t.Fatalf("Expected a numeric goroutine ID, got=%v", goroutineID())
	}
}
