package password

import (
	"cmp"

	"github.com/Alijeyrad/formora_backend/config"
)

// Params defines the Argon2id parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follows the OWASP recommendation for argon2id.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// LowMemoryParams trades memory for iterations on constrained hosts.
func LowMemoryParams() Params {
	return Params{
		Memory:      32 * 1024,
		Iterations:  4,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// ParamsFromConfig fills unset keys from the defaults.
func ParamsFromConfig(c config.PasswordConfig) Params {
	base := DefaultParams()
	if c.LowMemoryMode {
		base = LowMemoryParams()
	}
	p := Params{
		Memory:      cmp.Or(c.MemoryKiB, base.Memory),
		Iterations:  cmp.Or(c.Iterations, base.Iterations),
		Parallelism: cmp.Or(c.Parallelism, base.Parallelism),
		SaltLength:  cmp.Or(c.SaltLength, base.SaltLength),
		KeyLength:   cmp.Or(c.KeyLength, base.KeyLength),
	}
	if c.LowMemoryMode && p.Memory > base.Memory {
		p.Memory = base.Memory
	}
	return p
}
