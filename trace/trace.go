// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package trace provides simple timers for the phases of a reconciliation pass.
package trace

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
)

type Logger interface {
	Print(args ...interface{})
}

// HCLog is a Logger that uses the go-hclog log package to output timer information.
type HCLog struct {
	// Logger is the Logger to use to write the timer information.
	Logger hclog.Logger
	// Level is the log level at which to output the timer data.
	// The default level is Info if a level is not provided.
	Level hclog.Level
}

// Print writes timer information using the logger's Log function, with the configured level.
func (l HCLog) Print(args ...interface{}) {
	if l.Logger == nil {
		return
	}
	if l.Level == hclog.NoLevel {
		l.Level = hclog.Info
	}
	l.Logger.Log(l.Level, fmt.Sprint(args...))
}

// Tracer hands out timers. A nil or disabled Tracer hands out timers that do nothing.
type Tracer struct {
	// Tag is prepended to every trace message.
	Tag string
	log Logger
}

// New returns a Tracer writing to l, or nil when tracing is disabled.
func New(enabled bool, l Logger) *Tracer {
	if !enabled || l == nil {
		return nil
	}
	return &Tracer{Tag: "trace", log: l}
}

// Enabled reports whether timers from t will log anything.
func (t *Tracer) Enabled() bool {
	return t != nil
}

// Start a timer with the specified name.
func (t *Tracer) Start(name string) *Timer {
	if t == nil {
		return nil
	}
	return &Timer{tag: t.Tag, log: t.log, name: name, t0: time.Now()}
}

type Timer struct {
	tag  string
	log  Logger
	name string
	t0   time.Time
}

// Stop logs the time since the timer started. If present the optional args are appended to the message.
func (t *Timer) Stop(args ...interface{}) time.Duration {
	if t == nil {
		return 0
	}
	elapsed := time.Since(t.t0)
	msg := []interface{}{t.name, ": ", elapsed}
	if t.tag != "" {
		msg = append([]interface{}{t.tag, " "}, msg...)
	}
	if len(args) > 0 {
		msg = append(msg, " ")
		msg = append(msg, args...)
	}
	t.log.Print(msg...)
	return elapsed
}
