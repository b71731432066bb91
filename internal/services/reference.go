package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newReference builds the unique transfer reference:
// <initiator>_<unix-millis>_<random>.
func newReference(initiator string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", initiator, time.Now().UnixMilli(), random)
}
