package recover

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/chaincfg"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/deploymenttheory/go-keysalvage/internal/bruteforce"
	"github.com/deploymenttheory/go-keysalvage/internal/crypto"
	"github.com/deploymenttheory/go-keysalvage/internal/keys"
	"github.com/deploymenttheory/go-keysalvage/internal/wallet"
	"github.com/deploymenttheory/go-keysalvage/pkg/app"
	"github.com/deploymenttheory/go-keysalvage/pkg/app/crack"
	"github.com/deploymenttheory/go-keysalvage/pkg/app/scan"
)

// qrSize is the pixel edge of generated QR images, comfortable for
// phone-camera import.
const qrSize = 256

// Handle processes a recover request: scan the source, then decrypt
// every paired encrypted key under a given or cracked passphrase.
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	scanResp, err := scan.Handle(ctx, &scan.Request{
		SourcePath:  req.SourcePath,
		StartOffset: req.StartOffset,
		MaxBytes:    req.MaxBytes,
		WindowSize:  req.WindowSize,
		Testnet:     req.Testnet,
	})
	if err != nil {
		return nil, err
	}

	response := &Response{
		Source:        req.SourcePath,
		Keys:          []KeyResult{},
		MasterKeys:    len(scanResp.MasterKeys),
		EncryptedKeys: len(scanResp.EncryptedKeys),
	}

	for _, raw := range scanResp.RawKeys {
		response.Keys = append(response.Keys, KeyResult{
			PrivateKey: raw.PrivateKey,
			PublicKey:  raw.PublicKey,
			WIF:        raw.WIF,
			Address:    raw.Address,
			Compressed: raw.Compressed,
			Offset:     raw.Offset,
		})
	}

	switch {
	case response.EncryptedKeys == 0:
		response.Outcome = OutcomePlainOnly
	case response.MasterKeys == 0:
		response.Outcome = OutcomeLocked
		ctx.Error("encrypted keys present but no master key record was found")
	default:
		if err := unlock(ctx, req, scanResp.Repository(), response); err != nil {
			return nil, err
		}
	}

	if req.QR {
		attachQR(ctx, response)
	}

	if req.DumpPath != "" {
		if err := writeDump(req.DumpPath, response); err != nil {
			return nil, err
		}
		ctx.Info(fmt.Sprintf("Wrote recovered keys to %s", req.DumpPath))
	}

	return response, nil
}

// unlock resolves the master key, from the request passphrase or the
// crack fallback, and decrypts the paired records.
func unlock(ctx *app.Context, req *Request, repo *wallet.Repository, response *Response) error {
	master := repo.MasterKeys()[0]
	pair := repo.BestPair()

	validator := &crypto.Validator{
		Ciphertext: master.Ciphertext,
		Salt:       master.Salt,
		Iterations: master.Iterations,
	}
	if pair != nil {
		validator.PairCiphertext = pair.Ciphertext
		validator.PairPublicKey = pair.PublicKey
	}

	var masterKey []byte
	if req.Passphrase != "" {
		key, err := validator.MasterKey([]byte(req.Passphrase))
		if err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "passphrase does not unlock the master key", err)
		}
		masterKey = key
	} else {
		if err := req.Search.Validate(); err != nil {
			return err
		}

		result, _, err := crack.RunSearch(ctx, master, pair, &req.Search)
		if err != nil {
			return err
		}
		if result.Outcome != bruteforce.OutcomeFound {
			response.Outcome = OutcomeLocked
			ctx.Info(fmt.Sprintf("Passphrase search ended %s after %d attempts", result.Outcome, result.Attempts))
			return nil
		}

		response.Password = result.Password
		key, err := validator.MasterKey([]byte(result.Password))
		if err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "cracked passphrase failed final validation", err)
		}
		masterKey = key
	}

	unlocked, skipped, err := repo.Unlock(masterKey)
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "unlock failed", err)
	}

	params := keys.Params(req.Testnet)
	for _, record := range unlocked {
		response.Keys = append(response.Keys, keyResult(record, params))
	}
	response.Unlocked = len(unlocked)
	response.Skipped = skipped
	response.Outcome = OutcomeUnlocked
	return nil
}

// keyResult encodes one decrypted record into its export forms.
func keyResult(record *wallet.RawKeyRecord, params *chaincfg.Params) KeyResult {
	entry := KeyResult{
		PrivateKey: hex.EncodeToString(record.PrivateKey),
		Compressed: record.Compressed(),
		Offset:     record.Offset,
	}
	if record.PublicKey != nil {
		entry.PublicKey = hex.EncodeToString(record.PublicKey)
		if address, err := keys.Address(record.PublicKey, params); err == nil {
			entry.Address = address
		}
	}
	if record.ValidCurve {
		if wif, err := keys.WIF(record.PrivateKey, entry.Compressed, params); err == nil {
			entry.WIF = wif
		}
	}
	return entry
}

// attachQR renders a QR PNG per key, preferring the WIF form wallets
// import directly.
func attachQR(ctx *app.Context, response *Response) {
	for i := range response.Keys {
		key := &response.Keys[i]
		payload := key.WIF
		if payload == "" {
			payload = key.PrivateKey
		}

		png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
		if err != nil {
			ctx.Error(fmt.Sprintf("qr encoding for key at offset %d: %v", key.Offset, err))
			continue
		}
		key.QR = base64.StdEncoding.EncodeToString(png)
	}
}

// writeDump serializes recovered keys to a file instead of stdout.
func writeDump(path string, response *Response) error {
	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "failed to encode recovered keys", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return app.NewError(app.ErrCodeSourceAccess, "failed to write dump file", err)
	}
	return nil
}
