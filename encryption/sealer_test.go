package encryption_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/alwitt/bunker/encryption"
	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
)

// TestSealerRoundTrip verifies seal / unseal round trips and master key
// file handling.
func TestSealerRoundTrip(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// -------------------------------------------------------------------------
	// 1 – A missing key file is generated on first use
	keyFile := fmt.Sprintf("/tmp/bunker_ut_%s.key", ulid.Make().String())
	uut, err := encryption.NewSealer(utCtx, encryption.SealerParams{MasterKeyFile: keyFile})
	assert.Nil(err)

	keyContent, err := os.ReadFile(keyFile)
	assert.Nil(err)
	assert.NotEmpty(keyContent)

	// -------------------------------------------------------------------------
	// 2 – Seal then unseal returns the original plain text
	plainText := []byte(uuid.NewString())
	sealed, err := uut.Seal(utCtx, plainText)
	assert.Nil(err)
	assert.NotEmpty(sealed.CipherText)
	assert.NotEmpty(sealed.Nonce)
	assert.NotEqual(plainText, sealed.CipherText)

	recovered, err := uut.Unseal(utCtx, sealed)
	assert.Nil(err)
	assert.Equal(plainText, recovered)

	// 3 – Sealing twice produces distinct nonces
	sealedAgain, err := uut.Seal(utCtx, plainText)
	assert.Nil(err)
	assert.NotEqual(sealed.Nonce, sealedAgain.Nonce)

	// -------------------------------------------------------------------------
	// 4 – A second sealer loading the same key file can open the value
	other, err := encryption.NewSealer(utCtx, encryption.SealerParams{MasterKeyFile: keyFile})
	assert.Nil(err)
	recovered, err = other.Unseal(utCtx, sealed)
	assert.Nil(err)
	assert.Equal(plainText, recovered)

	// 5 – A sealer with a different key cannot
	otherKeyFile := fmt.Sprintf("/tmp/bunker_ut_%s.key", ulid.Make().String())
	stranger, err := encryption.NewSealer(utCtx, encryption.SealerParams{MasterKeyFile: otherKeyFile})
	assert.Nil(err)
	_, err = stranger.Unseal(utCtx, sealed)
	assert.Error(err)

	// -------------------------------------------------------------------------
	// 6 – A key file of the wrong size is rejected
	badKeyFile := fmt.Sprintf("/tmp/bunker_ut_%s.key", ulid.Make().String())
	assert.Nil(os.WriteFile(badKeyFile, []byte("short"), 0600))
	_, err = encryption.NewSealer(utCtx, encryption.SealerParams{MasterKeyFile: badKeyFile})
	assert.Error(err)
}
