package pin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, content := range []string{"", "hello", "line one\nline two\n", "#pin", "#pinned"} {
		pinned, _ := Decode(Encode(content, true))
		assert.True(t, pinned, "Encode(%q, true) should decode as pinned", content)

		pinned, display := Decode(Encode(content, false))
		assert.False(t, pinned)
		assert.Equal(t, content, display)
	}
}

func TestEncodeIdempotent(t *testing.T) {
	once := Encode("text", true)
	assert.Equal(t, once, Encode(once, true))
	assert.Equal(t, "#pinned\ntext", once)
}

func TestEncodeUnpinStripsOnlyFirstMarker(t *testing.T) {
	content := MarkerLine + MarkerLine + "body"
	assert.Equal(t, MarkerLine+"body", Encode(content, false))
}

func TestDecodeUnpinnedUnchanged(t *testing.T) {
	pinned, display := Decode("body\n#pinned\n")
	assert.False(t, pinned)
	assert.Equal(t, "body\n#pinned\n", display)
}

func TestMarkerWithoutLineBreakIsNotPinned(t *testing.T) {
	assert.False(t, IsPinned("#pinned"))
	assert.False(t, IsPinned("#pinned\r\nbody"))
	assert.True(t, IsPinned("#pinned\n"))
}

// A first line that equals the marker is indistinguishable from a pin flag.
func TestMarkerAmbiguity(t *testing.T) {
	pinned, display := Decode("#pinned\nmy real text")
	assert.True(t, pinned)
	assert.Equal(t, "my real text", display)
}
