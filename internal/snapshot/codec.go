// Package snapshot serialises the whole store and keeps it in local durable
// storage.
//
// The wire format is a versioned envelope:
//
//	{"schemaVersion": 2, "bundles": {"<entity id>": {...}, ...}}
//
// A payload without schemaVersion is the bare id-to-bundle mapping written by
// the first release (version 1). Older payloads are upgraded by the
// migrations table before they are returned.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vbonduro/islandlife/internal/domain"
)

// SchemaVersion is the version written by Encode.
const SchemaVersion = 2

var (
	ErrEmptySnapshot      = errors.New("snapshot has no bundles")
	ErrUnsupportedVersion = errors.New("unsupported snapshot schema version")
)

type envelope struct {
	SchemaVersion int                             `json:"schemaVersion"`
	Bundles       map[string]*domain.EntityBundle `json:"bundles"`
}

// migrations[v] upgrades bundles from schema v to v+1.
var migrations = map[int]func(map[string]*domain.EntityBundle){
	1: seedMissingVouchers,
}

func Encode(bundles map[string]*domain.EntityBundle) ([]byte, error) {
	data, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, Bundles: bundles})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses any supported schema version and returns bundles in the
// current layout. A payload with no bundles is rejected.
func Decode(data []byte) (map[string]*domain.EntityBundle, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	var (
		bundles map[string]*domain.EntityBundle
		version int
	)
	if _, ok := probe["schemaVersion"]; ok {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		bundles, version = env.Bundles, env.SchemaVersion
	} else {
		legacy, err := decodeLegacy(data)
		if err != nil {
			return nil, err
		}
		bundles, version = legacy, 1
	}

	if version < 1 || version > SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if len(bundles) == 0 {
		return nil, ErrEmptySnapshot
	}

	for id, b := range bundles {
		if b == nil {
			return nil, fmt.Errorf("failed to decode snapshot: bundle %q is null", id)
		}
		if b.Entity.ID == "" {
			b.Entity.ID = id
		}
	}

	for v := version; v < SchemaVersion; v++ {
		migrations[v](bundles)
	}
	return bundles, nil
}

func seedMissingVouchers(bundles map[string]*domain.EntityBundle) {
	for _, b := range bundles {
		if b.Vouchers == nil {
			b.Vouchers = domain.DefaultVouchers()
		}
	}
}
