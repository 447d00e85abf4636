// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports whether the audit store is reachable. A failing
// store degrades the service without stopping analyses.
func HealthChecker(store Store) core.HealthChecker {
	return core.HealthCheckerFunc(func(ctx context.Context) core.HealthResult {
		result := core.HealthResult{Component: "audit", Status: core.HealthHealthy}
		if p, ok := store.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				result.Status = core.HealthDegraded
				result.Message = err.Error()
			}
		}
		return result
	})
}
