package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBanner(t *testing.T) {
	prev := [3]string{Version, Commit, Date}
	t.Cleanup(func() { Version, Commit, Date = prev[0], prev[1], prev[2] })

	Version, Commit, Date = "v0.3.1", "1a2b3c4", "2026-10-01"
	assert.Equal(t, "radvsupd v0.3.1 (1a2b3c4) built on 2026-10-01", Banner("radvsupd"))
}
