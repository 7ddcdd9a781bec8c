package password

import (
	"errors"
	"strings"
	"testing"

	"github.com/Alijeyrad/formora_backend/config"
)

// cheap parameters keep the tests fast
var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHasher_Hash(t *testing.T) {
	h := NewHasher(testParams)

	hash, err := h.Hash("correcthorsebatterystaple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("Hash() format invalid, got %s", hash)
	}

	other, _ := h.Hash("correcthorsebatterystaple")
	if hash == other {
		t.Error("Hash() should salt every call")
	}
}

func TestVerify(t *testing.T) {
	h := NewHasher(testParams)
	hash, err := h.Hash("mysecretpassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error
	}{
		{"correct password", hash, "mysecretpassword", nil},
		{"wrong password", hash, "wrongpassword", ErrMismatch},
		{"empty password", hash, "", ErrMismatch},
		{"invalid hash format", "notahash", "mysecretpassword", ErrInvalidHash},
		{"wrong algorithm", "$argon2i$v=19$m=1,t=1,p=1$AAAA$AAAA", "x", ErrInvalidHash},
		{"wrong version", "$argon2id$v=16$m=1,t=1,p=1$AAAA$AAAA", "x", ErrIncompatibleVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.Verify(tt.hash, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHasher_NeedsRehash(t *testing.T) {
	old := NewHasher(testParams)
	hash, _ := old.Hash("pw")

	if old.NeedsRehash(hash) {
		t.Error("same params should not need a rehash")
	}
	stronger := testParams
	stronger.Iterations = 2
	if !NewHasher(stronger).NeedsRehash(hash) {
		t.Error("changed params should need a rehash")
	}
	if !old.NeedsRehash("garbage") {
		t.Error("invalid hash should need a rehash")
	}
}

func TestParamsFromConfig(t *testing.T) {
	tests := []struct {
		name string
		in   config.PasswordConfig
		want Params
	}{
		{"empty uses defaults", config.PasswordConfig{}, DefaultParams()},
		{"low memory", config.PasswordConfig{LowMemoryMode: true}, LowMemoryParams()},
		{"low memory caps memory", config.PasswordConfig{LowMemoryMode: true, MemoryKiB: 128 * 1024}, LowMemoryParams()},
		{
			"explicit",
			config.PasswordConfig{MemoryKiB: 2048, Iterations: 5, Parallelism: 4, SaltLength: 8, KeyLength: 16},
			Params{Memory: 2048, Iterations: 5, Parallelism: 4, SaltLength: 8, KeyLength: 16},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParamsFromConfig(tt.in); got != tt.want {
				t.Errorf("ParamsFromConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
