package shelly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientFactory(t *testing.T) {
	factory := NewClientFactory("secret", time.Second)

	gen1 := factory.ClientFor("192.168.1.10", Gen1)
	assert.Equal(t, Gen1, gen1.Generation())

	gen2 := factory.ClientFor("192.168.1.10", Gen2)
	assert.Equal(t, Gen2, gen2.Generation())

	assert.Nil(t, factory.ClientFor("192.168.1.10", GenUnknown))
}

func TestGenerationString(t *testing.T) {
	assert.Equal(t, "gen1", Gen1.String())
	assert.Equal(t, "gen2", Gen2.String())
	assert.Equal(t, "unknown", GenUnknown.String())
}
