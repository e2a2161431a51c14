package crack

import (
	"time"
)

// SearchOptions are the search-space and run settings shared by the
// crack command and the recover command's crack fallback.
type SearchOptions struct {
	MinLength      int
	MaxLength      int
	Charset        string
	Processes      int
	WordlistPath   string // file path or "bip39"
	Smart          bool
	MaxConsecutive int

	CheckpointPath     string
	CheckpointInterval int // seconds

	MetricsAddr string
	ShowCurrent bool
}

// Request represents a passphrase search request. The master key comes
// from exactly one source: a wallet dump file or the discrete hex
// parameters.
type Request struct {
	WalletDumpPath  string
	EncryptedKeyHex string
	SaltHex         string
	Iterations      int

	Search SearchOptions
}

// Response represents the terminal state of a search run
type Response struct {
	Outcome   string        `json:"outcome"`
	Password  string        `json:"password,omitempty"`
	Attempts  uint64        `json:"attempts"`
	Cursor    uint64        `json:"cursor"`
	Total     uint64        `json:"total"`
	Elapsed   time.Duration `json:"elapsed"`
	MasterKey string        `json:"master_key"`
	Space     string        `json:"space"`
}
