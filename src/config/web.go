package config

import (
	"os"

	"github.com/adrg/xdg"
	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
)

type WebConfig struct {
	Listen string

	// Codec for the X-Auth-Token header. The identity service encodes
	// requester tokens with the same key material.
	TokenCodec *securecookie.SecureCookie
}

func NewWebConfig(listen, tokenHashKey, tokenBlockKey string) (WebConfig, error) {
	self := WebConfig{Listen: listen}

	var hashKey, blockKey []byte

	if tokenHashKey == "" {
		if v, err := xdg.DataFile("iaas/token-hash.key"); err != nil {
			return self, errors.WithMessage(err, "While resolving default token hash key path")
		} else {
			tokenHashKey = v
		}
	}
	if tokenBlockKey == "" {
		if v, err := xdg.DataFile("iaas/token-block.key"); err != nil {
			return self, errors.WithMessage(err, "While resolving default token block key path")
		} else {
			tokenBlockKey = v
		}
	}

	if v, err := os.ReadFile(tokenHashKey); err != nil {
		return self, errors.WithMessage(err, "While reading token hash key")
	} else {
		hashKey = v
	}
	if v, err := os.ReadFile(tokenBlockKey); err != nil {
		return self, errors.WithMessage(err, "While reading token block key")
	} else {
		blockKey = v
	}

	self.TokenCodec = securecookie.New(hashKey, blockKey)
	self.TokenCodec.MaxAge(0) // tokens carry no expiry, the identity service rotates keys

	return self, nil
}
