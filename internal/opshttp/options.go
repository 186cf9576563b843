package opshttp

import (
	"net/http"

	"github.com/cospark/hubspot-proxy/internal/probe"
)

type Options struct {
	Port         int
	Metrics      http.Handler
	EnablePprof  bool
	Health       probe.Probe
	Readiness    probe.Probe
	UseRecoverMW bool
	OnPanic      func() // Optional callback for recovered panics, e.g. to increment a counter.
}
