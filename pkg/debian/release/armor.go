package release

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
)

var ErrMalformedEnvelope = errors.New("malformed clear-signed envelope")

const (
	beginSignedMessage = "-----BEGIN PGP SIGNED MESSAGE-----"
	beginSignature     = "-----BEGIN PGP SIGNATURE-----"
)

// IsArmored reports whether data looks like a clear-signed document.
func IsArmored(data []byte) bool {
	return bytes.Contains(data, []byte(beginSignedMessage))
}

// ExtractSignedPayload returns the text of a clear-signed document
// with dash-escaping removed. The signature is not verified. A
// non-empty payload always ends with a newline.
func ExtractSignedPayload(data []byte) ([]byte, error) {
	if block, _ := clearsign.Decode(data); block != nil {
		return terminate(block.Plaintext), nil
	}
	// clearsign.Decode gives up when the signature armor is damaged,
	// but the payload is still usable.
	out, err := extractPayload(data)
	if err != nil {
		return nil, err
	}
	// the line break before the signature belongs to the armor
	return terminate(bytes.TrimSuffix(out, []byte{'\n'})), nil
}

func terminate(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] != '\n' {
		return append(b, '\n')
	}
	return b
}

func extractPayload(data []byte) ([]byte, error) {
	const (
		stateLeading = iota
		stateHeaders
		statePayload
		stateDone
	)
	state := stateLeading
	var out bytes.Buffer

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch state {
		case stateLeading:
			if strings.TrimSpace(line) == beginSignedMessage {
				state = stateHeaders
			}
		case stateHeaders:
			// armor headers (e.g. "Hash: SHA256") end at the first blank line
			if strings.TrimSpace(line) == "" {
				state = statePayload
			}
		case statePayload:
			if strings.TrimSpace(line) == beginSignature {
				state = stateDone
				break
			}
			out.WriteString(strings.TrimRight(strings.TrimPrefix(line, "- "), " \t"))
			out.WriteByte('\n')
		}
		if state == stateDone {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	switch state {
	case stateLeading:
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedEnvelope, beginSignedMessage)
	case stateHeaders, statePayload:
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedEnvelope, beginSignature)
	}
	return out.Bytes(), nil
}
