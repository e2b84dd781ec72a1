package help

import (
	"strings"
	"testing"
)

func TestKeysEmbedded(t *testing.T) {
	for _, want := range []string{"SQRT", "AC", "DEL", ":quit"} {
		if !strings.Contains(Keys, want) {
			t.Errorf("key reference missing %q", want)
		}
	}
}
