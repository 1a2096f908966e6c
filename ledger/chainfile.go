package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// loadChainFile reads the fallback chain file. A missing file is an empty
// chain, not an error. Unlike record-store hydration, every hash is
// recomputed and the whole load REJECTED on the first mismatch: the file
// serves a single process, so there is no mid-repair reader to protect
// and failing fast is safe.
func loadChainFile(path string) ([]*Block, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read chain file: %w", err)
	}

	var blocks []*Block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, fmt.Errorf("ledger: parse chain file: %w", err)
	}
	if err := ValidateChain(blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// saveChainFile writes the whole chain as indented JSON, creating parent
// directories as needed.
func saveChainFile(path string, blocks []*Block) error {
	raw, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshal chain file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("ledger: create chain dir: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("ledger: write chain file: %w", err)
	}
	return nil
}
