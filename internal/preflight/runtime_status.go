package preflight

import (
	"context"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/config"
)

// CheckDeepFaceFromConfig reports whether the DeepFace service answers.
// The service is only needed by the vision pipeline, so a missing URL is not
// a failure.
func CheckDeepFaceFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "DeepFace"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.Vision.DeepFaceURL), "/")
	if base == "" {
		return Result{Name: name, Passed: true, Detail: "Not configured"}
	}
	check := CheckHTTPService(ctx, name, base+"/")
	check.Name = name
	return check
}

// CheckStorageFromConfig summarises report publication settings without
// contacting the bucket.
func CheckStorageFromConfig(cfg *config.Config) Result {
	const name = "Report storage"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Storage.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if cfg.Storage.Bucket == "" {
		return Result{Name: name, Detail: "Missing bucket"}
	}
	target := "s3://" + cfg.Storage.Bucket
	if cfg.Storage.Prefix != "" {
		target += "/" + cfg.Storage.Prefix
	}
	if cfg.Storage.Endpoint != "" {
		target += " via " + cfg.Storage.Endpoint
	}
	return Result{Name: name, Passed: true, Detail: target}
}
