package scan

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/deploymenttheory/go-keysalvage/internal/keys"
	"github.com/deploymenttheory/go-keysalvage/internal/scanner"
	"github.com/deploymenttheory/go-keysalvage/internal/wallet"
	"github.com/deploymenttheory/go-keysalvage/pkg/app"
)

// Handle processes a scan request
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var filter *keys.AddressFilter
	if req.AddressFilterPath != "" {
		loaded, err := keys.LoadAddressFilter(req.AddressFilterPath)
		if err != nil {
			return nil, app.NewError(app.ErrCodeInvalidInput, "failed to load address filter", err)
		}
		filter = loaded
		ctx.Log(fmt.Sprintf("Loaded %d known addresses", filter.Len()))
	}

	ctx.Log(fmt.Sprintf("Scanning %s", req.SourcePath))
	result, err := scanner.ScanPath(req.SourcePath, scanner.Options{
		StartOffset: req.StartOffset,
		MaxBytes:    req.MaxBytes,
		WindowSize:  req.WindowSize,
	})
	if err != nil {
		return nil, app.NewError(app.ErrCodeSourceAccess, "scan failed", err)
	}

	result.Repository.PairRecords()

	response := buildResponse(req, result, filter)
	response.ScanTime = time.Since(startTime)

	if req.DumpPath != "" {
		if err := writeDump(req.DumpPath, response); err != nil {
			return nil, err
		}
		ctx.Info(fmt.Sprintf("Wrote dump to %s", req.DumpPath))
	}

	ctx.Log(fmt.Sprintf("Scan completed: %d bytes in %v", response.BytesScanned, response.ScanTime))
	return response, nil
}

// buildResponse encodes scanner records, deriving addresses and WIF via
// the external encoding utilities.
func buildResponse(req *Request, result *scanner.Result, filter *keys.AddressFilter) *Response {
	params := keys.Params(req.Testnet)

	response := &Response{
		Source:       req.SourcePath,
		BytesScanned: result.BytesScanned,
		Truncated:    result.Truncated,
		repository:   result.Repository,

		RawKeys:       []RawKeyResult{},
		PublicKeys:    []PublicKeyResult{},
		EncryptedKeys: []EncryptedKeyResult{},
		MasterKeys:    []MasterKeyResult{},
	}

	for _, record := range result.RawKeys {
		entry := RawKeyResult{
			PrivateKey: hex.EncodeToString(record.PrivateKey),
			Compressed: record.Compressed(),
			ValidCurve: record.ValidCurve,
			Offset:     record.Offset,
		}
		if record.PublicKey != nil {
			entry.PublicKey = hex.EncodeToString(record.PublicKey)
			if address, err := keys.Address(record.PublicKey, params); err == nil {
				entry.Address = address
			}
		} else if record.ValidCurve {
			if address, err := keys.AddressForPrivateKey(record.PrivateKey, true, params); err == nil {
				entry.Address = address
			}
		}
		if record.ValidCurve {
			if wif, err := keys.WIF(record.PrivateKey, entry.Compressed, params); err == nil {
				entry.WIF = wif
			}
		}
		entry.KnownAddress = filter.Contains(entry.Address)
		response.RawKeys = append(response.RawKeys, entry)
	}

	for _, record := range result.PublicKeys {
		entry := PublicKeyResult{
			PublicKey: hex.EncodeToString(record.PublicKey),
			KeyID:     hex.EncodeToString(record.KeyID()),
			Offset:    record.Offset,
		}
		if address, err := keys.Address(record.PublicKey, params); err == nil {
			entry.Address = address
		}
		entry.KnownAddress = filter.Contains(entry.Address)
		response.PublicKeys = append(response.PublicKeys, entry)
	}

	for _, record := range result.EncryptedKeys {
		entry := EncryptedKeyResult{
			KeyID:        hex.EncodeToString(record.KeyID),
			EncryptedKey: hex.EncodeToString(record.Ciphertext),
			Offset:       record.Offset,
		}
		if record.PublicKey != nil {
			entry.PublicKey = hex.EncodeToString(record.PublicKey)
		}
		response.EncryptedKeys = append(response.EncryptedKeys, entry)
	}

	for _, record := range result.MasterKeys {
		response.MasterKeys = append(response.MasterKeys, MasterKeyResult{
			EncryptedKey: hex.EncodeToString(record.Ciphertext),
			Salt:         hex.EncodeToString(record.Salt),
			Iterations:   record.Iterations,
			Method:       record.Method,
			Offset:       record.Offset,
		})
	}

	return response
}

// writeDump serializes the response as the JSON wallet dump consumed by
// the crack command.
func writeDump(path string, response *Response) error {
	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "failed to encode dump", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return app.NewError(app.ErrCodeSourceAccess, "failed to write dump file", err)
	}
	return nil
}

// ParseDumpMasterKey reads the first master key from a wallet dump file
// written by this command.
func ParseDumpMasterKey(path string) (*wallet.MasterKeyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, app.NewError(app.ErrCodeSourceAccess, "failed to read wallet dump", err)
	}

	var dump struct {
		MasterKeys []MasterKeyResult `json:"master_keys"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "failed to parse wallet dump", err)
	}
	if len(dump.MasterKeys) == 0 {
		return nil, app.NewError(app.ErrCodeNotFound, "wallet dump contains no master keys", nil)
	}

	entry := dump.MasterKeys[0]
	ciphertext, err := hex.DecodeString(entry.EncryptedKey)
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid hex in dump field encrypted_key", err)
	}
	salt, err := hex.DecodeString(entry.Salt)
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid hex in dump field salt", err)
	}

	iterations := entry.Iterations
	if iterations == 0 {
		iterations = wallet.DefaultIterations
	}

	return &wallet.MasterKeyRecord{
		Ciphertext: ciphertext,
		Salt:       salt,
		Iterations: iterations,
		Method:     entry.Method,
		Offset:     entry.Offset,
	}, nil
}
