package services

import (
	"strings"
	"testing"

	"battle-room-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIsParticipant(t *testing.T) {
	m := &models.Match{
		Slot1: models.Slot{OccupantID: "alice"},
		Slot2: models.Slot{OccupantID: "bob"},
	}
	assert.True(t, isParticipant(m, "alice"))
	assert.True(t, isParticipant(m, "bob"))
	assert.False(t, isParticipant(m, "carol"))
	assert.False(t, isParticipant(&models.Match{}, ""))
}

func TestSecretMatches(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("abc"), bcrypt.MinCost)
	require.NoError(t, err)

	private := &models.Match{Visibility: models.VisibilityPrivate, SecretHash: string(hash)}
	assert.True(t, secretMatches(private, "abc"))
	assert.False(t, secretMatches(private, "ABC"), "comparison is case-sensitive")
	assert.False(t, secretMatches(private, " abc"), "no whitespace normalization")
	assert.False(t, secretMatches(private, ""))

	long := strings.Repeat("a", maxSecretLength)
	longHash, err := bcrypt.GenerateFromPassword([]byte(long), bcrypt.MinCost)
	require.NoError(t, err)
	longRoom := &models.Match{Visibility: models.VisibilityPrivate, SecretHash: string(longHash)}
	assert.True(t, secretMatches(longRoom, long))
	assert.False(t, secretMatches(longRoom, long+"x"), "bytes past the bcrypt limit still count")

	public := &models.Match{Visibility: models.VisibilityPublic}
	assert.True(t, secretMatches(public, ""))
	assert.True(t, secretMatches(public, "whatever"))
}
