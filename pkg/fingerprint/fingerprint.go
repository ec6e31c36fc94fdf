package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Entry is the identity-affecting metadata of one included file. Any change
// to a file's name, size, or modification time changes the folder etag, as
// does adding or removing an included file.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Compute digests the direct contents of a folder into an opaque etag. Only
// regular files accepted by include participate; subdirectories and excluded
// files never affect the result. Pure function over filesystem metadata.
func Compute(folderPath string, include func(name string) bool) (string, error) {
	dirEntries, err := os.ReadDir(folderPath)
	if err != nil {
		return "", errors.WithStack(err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !de.Type().IsRegular() {
			continue
		}
		if include != nil && !include(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return "", errors.WithStack(err)
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().UTC(),
		})
	}

	// ReadDir already sorts by name, but don't depend on it.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	data, err := json.Marshal(entries)
	if err != nil {
		return "", errors.WithStack(err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
