package live

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"tickvault/pkg/core"
)

// Handshake field keys. Every control line is a pipe-delimited list of
// key=value fields ending in a newline.
const (
	fieldVersion   = "gateway_version"
	fieldChallenge = "cram"
	fieldSuccess   = "success"
	fieldSessionID = "session_id"
)

// recordEncoding is the only record encoding this client negotiates.
const recordEncoding = "tvz"

// authTailLen is how many trailing key characters are appended to the auth
// digest, letting gateway logs attribute a session without holding the key.
const authTailLen = 5

// parseFields splits a control line into its key=value fields. A part
// without '=' violates the protocol.
func parseFields(context, line string) (map[string]string, error) {
	fields := make(map[string]string)
	for _, part := range strings.Split(line, "|") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			return nil, &core.ProtocolError{Context: context, Payload: line}
		}
		fields[key] = value
	}
	return fields, nil
}

// authResponse computes the CRAM reply for a challenge: the hex SHA-256 of
// "challenge|key", tagged with the key tail.
func authResponse(challenge, key string) string {
	digest := sha256.Sum256([]byte(challenge + "|" + key))
	return hex.EncodeToString(digest[:]) + "-" + key[len(key)-authTailLen:]
}
