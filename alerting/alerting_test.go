package alerting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chargepoint/ocpp/security"
)

func TestNewWithEmptyTokenIsDisabled(t *testing.T) {
	sink, err := New("", nil, nil)
	require.NoError(t, err)
	require.Nil(t, sink)

	// Every method must tolerate a nil receiver.
	sink.Fatal("store", "disk full")
	sink.SecurityEvent(security.SecurityEventConnectionLoss, "reconnecting")
}

func TestSanitizeEscapesReservedCharacters(t *testing.T) {
	require.Equal(t, "v2\\.1 \\[beta\\]", sanitize("v2.1 [beta]"))
}
