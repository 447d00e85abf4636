// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
)

// HealthChecker reports provider reachability. Providers that cannot be
// pinged are reported healthy.
func HealthChecker(name string, p Provider) core.HealthChecker {
	return core.HealthCheckerFunc(func(ctx context.Context) core.HealthResult {
		result := core.HealthResult{Component: name, Status: core.HealthHealthy}
		pinger, ok := p.(Pinger)
		if !ok {
			result.Message = "ping not supported"
			return result
		}
		if err := pinger.Ping(ctx); err != nil {
			result.Status = core.HealthUnhealthy
			result.Message = err.Error()
		}
		return result
	})
}
