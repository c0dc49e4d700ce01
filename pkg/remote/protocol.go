package remote

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skiff-vcs/skiff/pkg/object"
)

const (
	// ProtocolVersion is the current Skiff protocol version.
	ProtocolVersion = "1"

	// ClientCapabilities lists all capabilities this client supports.
	ClientCapabilities = "pack,zstd"

	headerProtocol     = "Skiff-Protocol"
	headerCapabilities = "Skiff-Capabilities"
)

// ValidateHash checks that a hash is a valid 64-character hex string (SHA-256).
func ValidateHash(h object.Hash) error {
	s := strings.TrimSpace(string(h))
	if s == "" {
		return fmt.Errorf("hash is empty")
	}
	if len(s) != 64 {
		return fmt.Errorf("hash length %d, expected 64", len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return fmt.Errorf("hash contains non-hex characters: %w", err)
	}
	return nil
}

// RemoteError is a structured error payload returned by the server.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Code != "" {
		return fmt.Sprintf("remote error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("remote error: %s", e.Message)
}

// tryParseRemoteError decodes a structured error body, returning nil when
// the body is not one.
func tryParseRemoteError(body []byte) *RemoteError {
	var re RemoteError
	if err := json.Unmarshal(body, &re); err != nil {
		return nil
	}
	if strings.TrimSpace(re.Message) == "" {
		return nil
	}
	return &re
}
