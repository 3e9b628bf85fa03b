// Package encryption - vault value sealing engine
package encryption

import (
	"context"
	"fmt"
	"os"

	cgoCrypto "github.com/alwitt/cgoutils/crypto"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

// EncryptedData a sealed value together with the nonce used to seal it
type EncryptedData struct {
	// CipherText the sealed value
	CipherText []byte
	// Nonce the seal nonce
	Nonce []byte
}

/*
Sealer seals and unseals vault values with a symmetric master key.

Key management is deliberately minimal: one master key held in a local key
file, generated on first use. There is no key rotation; the key file is the
single secret protecting the vault content at rest.
*/
type Sealer interface {
	/*
		Seal encrypt plain text

			@param ctx context.Context - execution context
			@param plainText []byte - the plain text to seal
			@return the sealed value with its nonce
	*/
	Seal(ctx context.Context, plainText []byte) (EncryptedData, error)

	/*
		Unseal decrypt cipher text

			@param ctx context.Context - execution context
			@param encrypted EncryptedData - the sealed value to open
			@return the plain text
	*/
	Unseal(ctx context.Context, encrypted EncryptedData) ([]byte, error)
}

// sealerImpl implements Sealer
type sealerImpl struct {
	goutils.Component

	crypto cgoCrypto.Engine

	masterKey []byte
}

// SealerParams sealer init parameters
type SealerParams struct {
	// MasterKeyFile file path of the symmetric master key. A new key is
	// generated and written here if the file does not exist.
	MasterKeyFile string `validate:"required"`
}

/*
NewSealer define new vault value sealer

	@param ctx context.Context - execution context
	@param params SealerParams - sealer parameters
	@returns sealer instance
*/
func NewSealer(ctx context.Context, params SealerParams) (Sealer, error) {
	// Prepare core crypto engine
	engine, err := cgoCrypto.NewEngine(log.Fields{
		"package": "cgoutils", "module": "crypto", "component": "crypto-engine",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare core cryptography [%w]", err)
	}

	logTags := log.Fields{"module": "encryption", "component": "sealer"}

	instance := &sealerImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		crypto: engine,
	}

	if err := validator.New().Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid sealer init parameters [%w]", err)
	}

	if err := instance.loadOrCreateMasterKey(ctx, params.MasterKeyFile); err != nil {
		return nil, fmt.Errorf("failed to prepare master key [%w]", err)
	}

	return instance, nil
}

// loadOrCreateMasterKey read the master key file, generating a new key when absent
func (s *sealerImpl) loadOrCreateMasterKey(ctx context.Context, keyFilePath string) error {
	aead, err := s.crypto.GetAEAD(ctx, cgoCrypto.AEADTypeXChaCha20Poly1305)
	if err != nil {
		return fmt.Errorf("unable to define AEAD client [%w]", err)
	}
	expectedKeyLen := aead.ExpectedKeyLen()

	content, err := os.ReadFile(keyFilePath)
	if err == nil {
		if len(content) != expectedKeyLen {
			return fmt.Errorf(
				"master key file %s holds %d bytes, expected %d", keyFilePath, len(content), expectedKeyLen,
			)
		}
		s.masterKey = content
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s [%w]", keyFilePath, err)
	}

	// Generate a new master key
	keyBuffer, err := s.crypto.GetRandomBuf(ctx, expectedKeyLen)
	if err != nil {
		return fmt.Errorf("failed to generate new master key [%w]", err)
	}
	keyCore, err := keyBuffer.GetSlice()
	if err != nil {
		return fmt.Errorf("failed to access new master key buffer [%w]", err)
	}

	newKey := make([]byte, expectedKeyLen)
	if copied := copy(newKey, keyCore); copied != expectedKeyLen {
		return fmt.Errorf("failed to copy new master key %d =/= %d", copied, expectedKeyLen)
	}

	if err := os.WriteFile(keyFilePath, newKey, 0600); err != nil {
		return fmt.Errorf("failed to write new master key to %s [%w]", keyFilePath, err)
	}

	log.WithFields(s.LogTags).WithField("key_file", keyFilePath).Info("Generated new master key")

	s.masterKey = newKey
	return nil
}

// setupAEAD prepare AEAD with the master key installed
func (s *sealerImpl) setupAEAD(ctx context.Context, nonce []byte) (cgoCrypto.AEAD, error) {
	aead, err := s.crypto.GetAEAD(ctx, cgoCrypto.AEADTypeXChaCha20Poly1305)
	if err != nil {
		return nil, fmt.Errorf("unable to define AEAD client [%w]", err)
	}

	// Set the AEAD encryption key
	keyBuffer, err := s.crypto.AllocateSecureCSlice(aead.ExpectedKeyLen())
	if err != nil {
		return nil, fmt.Errorf("failed to init AEAD key buffer [%w]", err)
	}
	keyBufferCore, err := keyBuffer.GetSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to access AEAD key buffer core [%w]", err)
	}
	if copied := copy(keyBufferCore, s.masterKey); copied != aead.ExpectedKeyLen() {
		return nil, fmt.Errorf(
			"failed to fill AEAD key buffer core %d =/= %d", copied, aead.ExpectedKeyLen(),
		)
	}
	if err := aead.SetKey(keyBuffer); err != nil {
		return nil, fmt.Errorf("failed to install AEAD key [%w]", err)
	}

	// Set the AEAD nonce
	if len(nonce) > 0 {
		// Use existing nonce
		nonceBuffer, err := s.crypto.AllocateSecureCSlice(aead.ExpectedNonceLen())
		if err != nil {
			return nil, fmt.Errorf("failed to init AEAD nonce buffer [%w]", err)
		}
		nonceBufferCore, err := nonceBuffer.GetSlice()
		if err != nil {
			return nil, fmt.Errorf("failed to access AEAD nonce buffer core [%w]", err)
		}
		if copied := copy(nonceBufferCore, nonce); copied != aead.ExpectedNonceLen() {
			return nil, fmt.Errorf(
				"failed to fill AEAD nonce buffer core %d =/= %d", copied, aead.ExpectedNonceLen(),
			)
		}
		if err := aead.SetNonce(nonceBuffer); err != nil {
			return nil, fmt.Errorf("failed to install AEAD nonce [%w]", err)
		}
	} else {
		// Generate random nonce
		nonceBuffer, err := s.crypto.GetRandomBuf(ctx, aead.ExpectedNonceLen())
		if err != nil {
			return nil, fmt.Errorf("failed to init AEAD nonce [%w]", err)
		}
		if err := aead.SetNonce(nonceBuffer); err != nil {
			return nil, fmt.Errorf("failed to install AEAD nonce [%w]", err)
		}
	}

	return aead, nil
}

/*
Seal encrypt plain text

	@param ctx context.Context - execution context
	@param plainText []byte - the plain text to seal
	@return the sealed value with its nonce
*/
func (s *sealerImpl) Seal(ctx context.Context, plainText []byte) (EncryptedData, error) {
	aead, err := s.setupAEAD(ctx, nil)
	if err != nil {
		return EncryptedData{}, fmt.Errorf("failed to setup AEAD client [%w]", err)
	}

	// Grab the nonce
	nonce, err := aead.Nonce().GetSlice()
	if err != nil {
		return EncryptedData{}, fmt.Errorf("failed to get nonce [%w]", err)
	}
	nonceCopy := make([]byte, aead.ExpectedNonceLen())
	if copied := copy(nonceCopy, nonce); copied != aead.ExpectedNonceLen() {
		return EncryptedData{}, fmt.Errorf(
			"failed to copy nonce %d =/= %d", copied, aead.ExpectedNonceLen(),
		)
	}

	// Encrypt the plain text
	cipherText := make([]byte, aead.ExpectedCipherLen(int64(len(plainText))))
	if err := aead.Seal(ctx, 0, plainText, nil, cipherText); err != nil {
		return EncryptedData{}, fmt.Errorf("failed to encrypt plain text [%w]", err)
	}

	return EncryptedData{CipherText: cipherText, Nonce: nonceCopy}, nil
}

/*
Unseal decrypt cipher text

	@param ctx context.Context - execution context
	@param encrypted EncryptedData - the sealed value to open
	@return the plain text
*/
func (s *sealerImpl) Unseal(ctx context.Context, encrypted EncryptedData) ([]byte, error) {
	aead, err := s.setupAEAD(ctx, encrypted.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to setup AEAD client [%w]", err)
	}

	// Decrypt the cipher text
	plainText := make([]byte, aead.ExpectedPlainTextLen(int64(len(encrypted.CipherText))))
	if err := aead.Unseal(ctx, 0, encrypted.CipherText, nil, plainText); err != nil {
		return nil, fmt.Errorf("failed to decrypt cipher text [%w]", err)
	}

	return plainText, nil
}
