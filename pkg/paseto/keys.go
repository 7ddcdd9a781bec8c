package pasetotoken

import (
	"fmt"
	"strings"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/Alijeyrad/formora_backend/config"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, encrypted
	ModePublic Mode = "public" // v4.public, signed
)

// Keys holds the key material of one mode. In public mode a verify-only
// deployment carries Public without Secret.
type Keys struct {
	Mode      Mode
	Symmetric *paseto.V4SymmetricKey
	Secret    *paseto.V4AsymmetricSecretKey
	Public    *paseto.V4AsymmetricPublicKey
}

func (k Keys) canIssue() bool {
	if k.Mode == ModeLocal {
		return k.Symmetric != nil
	}
	return k.Secret != nil
}

func (k Keys) canVerify() bool {
	if k.Mode == ModeLocal {
		return k.Symmetric != nil
	}
	return k.Public != nil
}

// KeysFromConfig decodes the hex keys of the configured mode. A secret key
// alone is enough for public mode since the public half derives from it.
func KeysFromConfig(p config.PasetoConfig) (Keys, error) {
	switch mode := Mode(p.Mode); mode {
	case ModeLocal:
		raw := strings.TrimSpace(p.LocalKeyHex)
		if raw == "" {
			return Keys{}, ErrConfig{Msg: "local mode needs local_key_hex"}
		}
		k, err := paseto.V4SymmetricKeyFromHex(raw)
		if err != nil {
			return Keys{}, ErrConfig{Msg: fmt.Sprintf("local_key_hex: %v", err)}
		}
		return Keys{Mode: mode, Symmetric: &k}, nil

	case ModePublic:
		keys := Keys{Mode: mode}
		if raw := strings.TrimSpace(p.SecretKeyHex); raw != "" {
			sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(raw)
			if err != nil {
				return Keys{}, ErrConfig{Msg: fmt.Sprintf("secret_key_hex: %v", err)}
			}
			pk := sk.Public()
			keys.Secret, keys.Public = &sk, &pk
		}
		if raw := strings.TrimSpace(p.PublicKeyHex); raw != "" {
			pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(raw)
			if err != nil {
				return Keys{}, ErrConfig{Msg: fmt.Sprintf("public_key_hex: %v", err)}
			}
			keys.Public = &pk
		}
		if !keys.canVerify() {
			return Keys{}, ErrConfig{Msg: "public mode needs secret_key_hex or public_key_hex"}
		}
		return keys, nil
	}
	return Keys{}, ErrConfig{Msg: fmt.Sprintf("unknown mode %q", p.Mode)}
}

// GenerateKeys makes fresh random keys for mode.
func GenerateKeys(mode Mode) Keys {
	if mode == ModePublic {
		sk := paseto.NewV4AsymmetricSecretKey()
		pk := sk.Public()
		return Keys{Mode: mode, Secret: &sk, Public: &pk}
	}
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}
