package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	token, expiresAt, err := signer.Generate("export-1", "attendance/sheet.csv")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	id, path, parsedExp, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "export-1", id)
	assert.Equal(t, "attendance/sheet.csv", path)
	assert.Equal(t, expiresAt.Unix(), parsedExp.Unix())
}

func TestSignedURLRejectsTamperedSignature(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("export-1", "attendance/sheet.pdf")
	require.NoError(t, err)

	other := NewSignedURLSigner("different", time.Hour)
	_, _, _, err = other.Parse(token, false)
	assert.Error(t, err)
}

func TestSignedURLExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", -time.Minute)
	token, _, err := signer.Generate("export-1", "attendance/sheet.csv")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token, false)
	assert.Error(t, err)

	_, _, _, err = signer.Parse(token, true)
	assert.NoError(t, err)
}

func TestSignedURLRejectsEmptyInput(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	_, _, err := signer.Generate("", "path")
	assert.Error(t, err)
	_, _, _, err = signer.Parse("not-a-token", false)
	assert.Error(t, err)
}
