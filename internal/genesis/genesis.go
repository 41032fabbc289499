// Package genesis loads the genesis manifest that seeds a replay run:
// the initial object set, the system-state object and the checkpoint
// sequence number replay starts from.
package genesis

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ledgerlab/replayer/internal/types"
)

// Manifest is the parsed genesis file.
type Manifest struct {
	// Sequence is the genesis checkpoint sequence number.
	Sequence uint64 `yaml:"sequence"`

	// SystemState becomes the contents of the well-known system-state
	// object. Its Next* fields carry epoch-0 parameters so the initial
	// epoch context derives the same way an epoch transition does.
	SystemState types.SystemState `yaml:"system_state"`

	// Objects are the remaining genesis objects.
	Objects []ObjectSpec `yaml:"objects"`
}

// ObjectSpec is one genesis object in the manifest.
type ObjectSpec struct {
	ID       types.ObjectID `yaml:"id"`
	Version  types.Version  `yaml:"version"`
	Contents map[string]any `yaml:"contents"`
}

// Genesis is the validated genesis state, ready to seed a working store.
type Genesis struct {
	sequence uint64
	objects  []types.ObjectRecord
}

// Load reads and validates a genesis manifest file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis manifest: %w", err)
	}
	return Parse(data)
}

// Parse validates genesis manifest bytes. Unknown YAML fields are rejected;
// a typo in a genesis file must fail loudly, not seed a wrong store.
func Parse(data []byte) (*Genesis, error) {
	var manifest Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("parse genesis manifest: %w", err)
	}
	return build(manifest)
}

// FromManifest builds a Genesis from an already-constructed manifest.
// Used by tests and the scenario harness.
func FromManifest(manifest Manifest) (*Genesis, error) {
	return build(manifest)
}

func build(manifest Manifest) (*Genesis, error) {
	if manifest.SystemState.NextCommittee.Epoch != 0 {
		return nil, fmt.Errorf("genesis system state: next committee epoch must be 0, got %d",
			manifest.SystemState.NextCommittee.Epoch)
	}
	if len(manifest.SystemState.NextCommittee.Validators) == 0 {
		return nil, fmt.Errorf("genesis system state: committee has no validators")
	}

	sysRec, err := types.NewObjectRecord(types.SystemStateObjectID, 1, manifest.SystemState.Contents())
	if err != nil {
		return nil, fmt.Errorf("genesis system state: %w", err)
	}

	objects := []types.ObjectRecord{sysRec}
	seen := map[types.ObjectID]bool{types.SystemStateObjectID: true}
	for i, spec := range manifest.Objects {
		if spec.ID == "" {
			return nil, fmt.Errorf("genesis object %d: missing id", i)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("genesis object %d: duplicate id %s", i, spec.ID)
		}
		seen[spec.ID] = true

		version := spec.Version
		if version == 0 {
			version = 1
		}
		contents, err := types.ToObject(spec.Contents)
		if err != nil {
			return nil, fmt.Errorf("genesis object %s: %w", spec.ID, err)
		}
		rec, err := types.NewObjectRecord(spec.ID, version, contents)
		if err != nil {
			return nil, fmt.Errorf("genesis object %s: %w", spec.ID, err)
		}
		objects = append(objects, rec)
	}

	return &Genesis{sequence: manifest.Sequence, objects: objects}, nil
}

// Objects returns the genesis object set, system-state object first.
func (g *Genesis) Objects() []types.ObjectRecord { return g.objects }

// Sequence returns the genesis checkpoint sequence number.
func (g *Genesis) Sequence() uint64 { return g.sequence }
