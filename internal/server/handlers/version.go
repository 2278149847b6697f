package handlers

import (
	"net/http"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// Deployment names the collaborators this instance was started against.
// Changing any of them needs a restart.
type Deployment struct {
	Driver string `json:"driver"`
	Model  string `json:"model"`
	Bucket string `json:"bucket"`
	Region string `json:"region"`
}

// VersionResponse is the body of GET /version.
type VersionResponse struct {
	App        BuildInfo         `json:"app"`
	Deployment Deployment        `json:"deployment"`
	Runtime    map[string]string `json:"runtime"`
}

// NewVersionHandler serves a fixed version document. Nothing in it changes
// while the process runs, so it is built once.
func NewVersionHandler(build BuildInfo, deployment Deployment) http.HandlerFunc {
	libs := crucible.GetVersion()
	body := VersionResponse{
		App:        build,
		Deployment: deployment,
		Runtime: map[string]string{
			"go":       runtime.Version(),
			"platform": runtime.GOOS + "/" + runtime.GOARCH,
			"gofulmen": libs.Gofulmen,
			"crucible": libs.Crucible,
		},
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, body)
	}
}
