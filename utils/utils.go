package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateCertificateNumber builds a unique, human-readable certificate number
func GenerateCertificateNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("CERT-%d-%s", time.Now().Year(), suffix)
}

// GenerateClientReference builds an opaque reference passed to the payment provider
func GenerateClientReference() string {
	return "ord_" + uuid.NewString()
}
