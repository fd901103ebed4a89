package scheme

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nrednav/cuid2"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/ksuid"
)

// Built-in scheme tags.
const (
	UUID   = "uuid"
	CUID   = "cuid"
	NanoID = "nanoid"
	ULID   = "ulid"
	KSUID  = "ksuid"
)

const (
	nanoidLength   = 21
	nanoidAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Builtin returns the descriptors shipped with vaultid.
func Builtin() []Descriptor {
	return []Descriptor{
		{
			Tag:         UUID,
			Label:       "UUID",
			Description: "Universally Unique Identifier",
			URL:         "https://github.com/google/uuid",
			Generate: func() (string, error) {
				id, err := uuid.NewRandom()
				if err != nil {
					return "", err
				}
				return id.String(), nil
			},
			Validate: func(v string) error {
				_, err := uuid.Parse(v)
				return err
			},
		},
		{
			Tag:         CUID,
			Label:       "CUID",
			Description: "Collision-resistant Unique Identifier",
			URL:         "https://github.com/nrednav/cuid2",
			Generate: func() (string, error) {
				return cuid2.Generate(), nil
			},
			Validate: func(v string) error {
				if !cuid2.IsCuid(v) {
					return fmt.Errorf("not a cuid2")
				}
				return nil
			},
		},
		{
			Tag:         NanoID,
			Label:       "NanoID",
			Description: "Secure, URL-friendly Unique Identifier",
			URL:         "https://github.com/matoous/go-nanoid",
			Generate: func() (string, error) {
				return gonanoid.New(nanoidLength)
			},
			Validate: func(v string) error {
				if len(v) != nanoidLength {
					return fmt.Errorf("length %d, want %d", len(v), nanoidLength)
				}
				if i := strings.IndexFunc(v, func(r rune) bool {
					return !strings.ContainsRune(nanoidAlphabet, r)
				}); i >= 0 {
					return fmt.Errorf("invalid character at %d", i)
				}
				return nil
			},
		},
		{
			Tag:         ULID,
			Label:       "ULID",
			Description: "Universally Unique Lexicographically Sortable Identifier",
			URL:         "https://github.com/oklog/ulid",
			Generate: func() (string, error) {
				return ulid.Make().String(), nil
			},
			Validate: func(v string) error {
				_, err := ulid.ParseStrict(v)
				return err
			},
		},
		{
			Tag:         KSUID,
			Label:       "KSUID",
			Description: "K-Sortable Unique Identifier",
			URL:         "https://github.com/segmentio/ksuid",
			Generate: func() (string, error) {
				id, err := ksuid.NewRandom()
				if err != nil {
					return "", err
				}
				return id.String(), nil
			},
			Validate: func(v string) error {
				_, err := ksuid.Parse(v)
				return err
			},
		},
	}
}

// Default returns a registry with the built-in schemes.
func Default() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(fmt.Sprintf("scheme: builtin registry: %v", err))
	}
	return r
}
