package keys

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/willf/bloom"
)

// bloomErrorRate keeps bloom false positives rare; the exact set confirms
// every hit anyway.
const bloomErrorRate = 0.000001

// AddressFilter answers membership queries against a known-address list. A
// bloom filter screens candidates cheaply and an exact set confirms hits,
// so a false positive never surfaces to the caller.
type AddressFilter struct {
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// LoadAddressFilter reads one address per line from path, ignoring empty
// lines and surrounding whitespace.
func LoadAddressFilter(path string) (*AddressFilter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open address list: %w", err)
	}
	defer file.Close()

	// First pass sizes the bloom filter.
	count := uint(0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read address list: %w", err)
	}
	if count == 0 {
		count = 1
	}

	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("failed to rewind address list: %w", err)
	}

	f := &AddressFilter{
		filter: bloom.NewWithEstimates(count, bloomErrorRate),
		exact:  make(map[string]struct{}, count),
	}

	scanner = bufio.NewScanner(file)
	for scanner.Scan() {
		address := strings.TrimSpace(scanner.Text())
		if address == "" {
			continue
		}
		f.filter.Add([]byte(address))
		f.exact[address] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read address list: %w", err)
	}

	return f, nil
}

// Contains reports whether address appears in the loaded list.
func (f *AddressFilter) Contains(address string) bool {
	if f == nil {
		return false
	}
	if !f.filter.Test([]byte(address)) {
		return false
	}
	_, ok := f.exact[address]
	return ok
}

// Len returns the number of distinct addresses loaded.
func (f *AddressFilter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.exact)
}
