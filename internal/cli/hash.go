package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/lattice/pkg/status"
)

// EncodeHash prints the hash of ordered key=value arguments.
func EncodeHash(out io.Writer, pairs []string) error {
	kv := make([]string, 0, 2*len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid pair %q: expected key=value", pair)
		}
		kv = append(kv, key, value)
	}
	_, err := fmt.Fprintln(out, status.Encode(status.FromPairs(kv...)))
	return err
}

// DecodeHash prints a hash as an ordered JSON object together with the
// nesting depth it addresses.
func DecodeHash(out io.Writer, hash string) error {
	st := status.Decode(hash)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Depth  int           `json:"depth"`
		Status status.Status `json:"status"`
	}{status.Depth(st), st})
}
