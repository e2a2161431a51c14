package recover

import (
	"os"

	"github.com/deploymenttheory/go-keysalvage/pkg/app"
)

// Validate validates a recover request. Search options are validated
// later, only when the crack fallback actually runs: a source holding
// nothing encrypted needs no passphrase at all.
func (r *Request) Validate() error {
	if r.SourcePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "source path is required", nil)
	}
	if _, err := os.Stat(r.SourcePath); err != nil {
		return app.NewAccessError("cannot access source", err)
	}
	return nil
}
