package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newRef builds a customer-facing reference: the year and month, then eight
// random characters, e.g. 202608-A3F09B1C. It loops until the reference is
// unused; collisions are vanishingly rare so the loop almost never repeats.
func newRef(exists func(string) (bool, error)) (string, error) {
	for {
		ref := fmt.Sprintf("%s-%s", time.Now().Format("200601"), randomSuffix())
		taken, err := exists(ref)
		if err != nil {
			return "", fmt.Errorf("check ref: %w", err)
		}
		if !taken {
			return ref, nil
		}
	}
}

func randomSuffix() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:8]
}

// newToken mints the unguessable access token carried in public URLs. It is
// never derived from the ref or the row ID.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
