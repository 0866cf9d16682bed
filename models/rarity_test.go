package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidRarity(t *testing.T) {
	assert.True(t, IsValidRarity("rare_holo"))
	assert.True(t, IsValidRarity("illustration_rare"))
	assert.False(t, IsValidRarity("Rare Holo"), "display names are not accepted")
	assert.False(t, IsValidRarity(""))
}

func TestRarityDisplayName(t *testing.T) {
	tests := map[string]string{
		"common":             "Common",
		"rare_holo":          "Rare Holo",
		"rare_holo_gx":       "Rare Holo GX",
		"rare_break":         "Rare BREAK",
		"rare_holo_ex":       "Rare Holo EX",
		"classic_collection": "Classic Collection",
	}
	for in, want := range tests {
		assert.Equal(t, want, RarityDisplayName(in), in)
	}
}
