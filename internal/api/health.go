package api

import (
	"context"

	"github.com/dataforgoodfr/bechdelai/internal/deps"
	"github.com/dataforgoodfr/bechdelai/internal/preflight"
)

// Health runs the local readiness checks. deep adds the remote service
// checks (TMDB, LLM, DeepFace), which cost network round trips.
func (s *Service) Health(ctx context.Context, deep bool) HealthResponse {
	var checks []preflight.Result
	if deep {
		checks = preflight.RunAll(ctx, s.cfg)
		checks = append(checks, preflight.CheckDeepFaceFromConfig(ctx, s.cfg))
	} else {
		checks = []preflight.Result{
			preflight.CheckDirectoryAccess("Data directory", s.cfg.Paths.DataDir),
			preflight.CheckDirectoryAccess("Cache directory", s.cfg.Paths.CacheDir),
			preflight.CheckDirectoryAccess("Work directory", s.cfg.Paths.WorkDir),
		}
	}
	checks = append(checks, preflight.CheckStorageFromConfig(s.cfg))

	statuses := preflight.CheckSystemDeps(ctx, s.cfg)
	resp := HealthResponse{
		Status:       "ok",
		Time:         formatTime(s.now()),
		Checks:       checks,
		Dependencies: FromDependencies(statuses),
	}
	for _, c := range checks {
		if !c.Passed {
			resp.Status = "degraded"
		}
	}
	if len(deps.Missing(statuses)) > 0 {
		resp.Status = "degraded"
	}
	return resp
}
