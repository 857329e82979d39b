// Package primitives provides fingerprinting for MachineConfig.
package primitives

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Fingerprint computes a deterministic identifier for a MachineConfig from its canonical JSON.
// Equal configurations, whichever key scheme they were written in, share a fingerprint.
func Fingerprint(config *MachineConfig) (string, error) {
	data, err := json.Marshal(config.Canonical())
	if err != nil {
		return "", errors.Wrap(err, "marshal canonical config")
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8]), nil
}
