package scan

import (
	"os"

	"github.com/deploymenttheory/go-keysalvage/pkg/app"
)

// Validate validates a scan request
func (r *Request) Validate() error {
	if r.SourcePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "source path is required", nil)
	}
	if _, err := os.Stat(r.SourcePath); err != nil {
		return app.NewAccessError("cannot access source path", err)
	}

	if r.StartOffset < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "start offset must not be negative", nil)
	}
	if r.MaxBytes < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "max-bytes must not be negative", nil)
	}
	if r.WindowSize < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "window size must not be negative", nil)
	}

	if r.AddressFilterPath != "" {
		if _, err := os.Stat(r.AddressFilterPath); err != nil {
			return app.NewAccessError("cannot access address filter file", err)
		}
	}

	return nil
}
