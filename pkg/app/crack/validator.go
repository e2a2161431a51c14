package crack

import (
	"encoding/hex"
	"os"

	"github.com/deploymenttheory/go-keysalvage/internal/search"
	"github.com/deploymenttheory/go-keysalvage/pkg/app"
)

// Validate validates a crack request
func (r *Request) Validate() error {
	hasDump := r.WalletDumpPath != ""
	hasHex := r.EncryptedKeyHex != "" || r.SaltHex != ""

	if hasDump && hasHex {
		return app.NewError(app.ErrCodeInvalidInput, "wallet dump and direct hex parameters are mutually exclusive", nil)
	}
	if !hasDump && !hasHex {
		return app.NewError(app.ErrCodeInvalidInput, "a master key source is required: wallet dump or encrypted-key with salt", nil)
	}

	if hasHex {
		if r.EncryptedKeyHex == "" {
			return app.NewError(app.ErrCodeInvalidInput, "encrypted-key is required alongside salt", nil)
		}
		if r.SaltHex == "" {
			return app.NewError(app.ErrCodeInvalidInput, "salt is required alongside encrypted-key", nil)
		}
		if _, err := hex.DecodeString(r.EncryptedKeyHex); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid hex in field encrypted-key", err)
		}
		if _, err := hex.DecodeString(r.SaltHex); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid hex in field salt", err)
		}
	}
	if hasDump {
		if _, err := os.Stat(r.WalletDumpPath); err != nil {
			return app.NewAccessError("cannot access wallet dump", err)
		}
	}

	if r.Iterations < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "iterations must be positive", nil)
	}

	return r.Search.Validate()
}

// Validate validates the shared search options
func (o *SearchOptions) Validate() error {
	if o.WordlistPath != "" {
		if o.Smart {
			return app.NewError(app.ErrCodeInvalidInput, "wordlist and smart modes are mutually exclusive", nil)
		}
		if o.WordlistPath != search.BuiltinWordlistName {
			if _, err := os.Stat(o.WordlistPath); err != nil {
				return app.NewAccessError("cannot access wordlist", err)
			}
		}
		return nil
	}

	if o.MinLength < 1 {
		return app.NewError(app.ErrCodeInvalidInput, "min-length must be at least 1", nil)
	}
	if o.MaxLength < o.MinLength {
		return app.NewError(app.ErrCodeInvalidInput, "max-length must not be below min-length", nil)
	}
	if o.Charset == "" {
		return app.NewError(app.ErrCodeInvalidInput, "charset must not be empty", nil)
	}
	if o.MaxConsecutive < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "max-consecutive must not be negative", nil)
	}
	if !search.Fits(len(o.Charset), o.MinLength, o.MaxLength) {
		return app.NewError(app.ErrCodeInvalidInput, "search space for max-length does not fit a 64-bit index domain", nil)
	}
	return nil
}
