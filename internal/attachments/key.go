package attachments

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BuildKey returns the blob key for a file: {owner}/{unix_ms}-{id}-{name}.
// The owner prefix gives every submission its own namespace; the object id
// keeps files that share a name and upload instant apart.
func BuildKey(owner string, uploadedAt time.Time, id uuid.UUID, name string) string {
	return fmt.Sprintf("%s/%d-%s-%s", owner, uploadedAt.UnixMilli(), id, sanitizeName(name))
}

// sanitizeName reduces a client file name to a single safe path segment.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}
