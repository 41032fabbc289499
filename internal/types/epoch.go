package types

import "fmt"

// SystemStateObjectID is the well-known identifier of the ledger-wide
// system-state object. It exists from genesis and is rewritten by every
// change-epoch transaction.
const SystemStateObjectID ObjectID = "0x0000000000000000000000000000000000000000000000000000000000000005"

// ProtocolParams is the protocol parameter set active for one epoch.
type ProtocolParams struct {
	Version         int64  `json:"version" yaml:"version"`
	MaxInputObjects int64  `json:"max_input_objects" yaml:"max_input_objects"`
	MaxGasBudget    uint64 `json:"max_gas_budget" yaml:"max_gas_budget"`
}

// VMConfig configures the execution engine for one epoch.
type VMConfig struct {
	BytecodeVersion int64 `json:"bytecode_version" yaml:"bytecode_version"`
}

// Validator is one committee member.
type Validator struct {
	Name  string `json:"name" yaml:"name"`
	Stake int64  `json:"stake" yaml:"stake"`
}

// Committee is the validator set of one epoch.
type Committee struct {
	Epoch      uint64      `json:"epoch" yaml:"epoch"`
	Validators []Validator `json:"validators" yaml:"validators"`
}

// SystemState is the decoded contents of the system-state object. It carries
// the active epoch plus everything the NEXT epoch starts from: committee,
// protocol parameters, VM configuration and reference gas price.
type SystemState struct {
	Epoch             uint64         `json:"epoch" yaml:"epoch"`
	NextCommittee     Committee      `json:"next_committee" yaml:"next_committee"`
	NextProtocol      ProtocolParams `json:"next_protocol" yaml:"next_protocol"`
	NextVMConfig      VMConfig       `json:"next_vm_config" yaml:"next_vm_config"`
	NextGasPrice      uint64         `json:"next_gas_price" yaml:"next_gas_price"`
	SafeMode          bool           `json:"safe_mode" yaml:"safe_mode"`
	EpochStartUnixSec int64          `json:"epoch_start_unix_sec" yaml:"epoch_start_unix_sec"`
}

// Contents encodes the system state as object contents.
func (s SystemState) Contents() Object {
	validators := make(Array, len(s.NextCommittee.Validators))
	for i, v := range s.NextCommittee.Validators {
		validators[i] = Object{
			"name":  String(v.Name),
			"stake": Int(v.Stake),
		}
	}
	return Object{
		"epoch": Int(s.Epoch),
		"next_committee": Object{
			"epoch":      Int(s.NextCommittee.Epoch),
			"validators": validators,
		},
		"next_protocol": Object{
			"version":           Int(s.NextProtocol.Version),
			"max_input_objects": Int(s.NextProtocol.MaxInputObjects),
			"max_gas_budget":    Int(s.NextProtocol.MaxGasBudget),
		},
		"next_vm_config": Object{
			"bytecode_version": Int(s.NextVMConfig.BytecodeVersion),
		},
		"next_gas_price":       Int(s.NextGasPrice),
		"safe_mode":            Bool(s.SafeMode),
		"epoch_start_unix_sec": Int(s.EpochStartUnixSec),
	}
}

// SystemStateFromContents decodes a system-state object's contents.
// Returns an error on any missing or mistyped field: a malformed system
// object means the store diverged and the run cannot continue.
func SystemStateFromContents(contents Object) (SystemState, error) {
	var s SystemState
	var err error

	if s.Epoch, err = objUint(contents, "epoch"); err != nil {
		return SystemState{}, err
	}

	committee, err := objObject(contents, "next_committee")
	if err != nil {
		return SystemState{}, err
	}
	if s.NextCommittee.Epoch, err = objUint(committee, "epoch"); err != nil {
		return SystemState{}, fmt.Errorf("next_committee: %w", err)
	}
	rawValidators, err := objArray(committee, "validators")
	if err != nil {
		return SystemState{}, fmt.Errorf("next_committee: %w", err)
	}
	for i, raw := range rawValidators {
		vo, ok := raw.(Object)
		if !ok {
			return SystemState{}, fmt.Errorf("next_committee.validators[%d]: not an object", i)
		}
		name, err := objString(vo, "name")
		if err != nil {
			return SystemState{}, fmt.Errorf("next_committee.validators[%d]: %w", i, err)
		}
		stake, err := objInt(vo, "stake")
		if err != nil {
			return SystemState{}, fmt.Errorf("next_committee.validators[%d]: %w", i, err)
		}
		s.NextCommittee.Validators = append(s.NextCommittee.Validators, Validator{Name: name, Stake: stake})
	}

	protocol, err := objObject(contents, "next_protocol")
	if err != nil {
		return SystemState{}, err
	}
	if s.NextProtocol.Version, err = objInt(protocol, "version"); err != nil {
		return SystemState{}, fmt.Errorf("next_protocol: %w", err)
	}
	if s.NextProtocol.MaxInputObjects, err = objInt(protocol, "max_input_objects"); err != nil {
		return SystemState{}, fmt.Errorf("next_protocol: %w", err)
	}
	if s.NextProtocol.MaxGasBudget, err = objUint(protocol, "max_gas_budget"); err != nil {
		return SystemState{}, fmt.Errorf("next_protocol: %w", err)
	}

	vmConfig, err := objObject(contents, "next_vm_config")
	if err != nil {
		return SystemState{}, err
	}
	if s.NextVMConfig.BytecodeVersion, err = objInt(vmConfig, "bytecode_version"); err != nil {
		return SystemState{}, fmt.Errorf("next_vm_config: %w", err)
	}

	if s.NextGasPrice, err = objUint(contents, "next_gas_price"); err != nil {
		return SystemState{}, err
	}
	if v, ok := contents["safe_mode"].(Bool); ok {
		s.SafeMode = bool(v)
	}
	if v, ok := contents["epoch_start_unix_sec"].(Int); ok {
		s.EpochStartUnixSec = int64(v)
	}

	return s, nil
}

func objObject(obj Object, key string) (Object, error) {
	v, ok := obj[key].(Object)
	if !ok {
		return nil, fmt.Errorf("field %q: missing or not an object", key)
	}
	return v, nil
}

func objArray(obj Object, key string) (Array, error) {
	v, ok := obj[key].(Array)
	if !ok {
		return nil, fmt.Errorf("field %q: missing or not an array", key)
	}
	return v, nil
}

func objString(obj Object, key string) (string, error) {
	v, ok := obj[key].(String)
	if !ok {
		return "", fmt.Errorf("field %q: missing or not a string", key)
	}
	return string(v), nil
}

func objInt(obj Object, key string) (int64, error) {
	v, ok := obj[key].(Int)
	if !ok {
		return 0, fmt.Errorf("field %q: missing or not an integer", key)
	}
	return int64(v), nil
}

func objUint(obj Object, key string) (uint64, error) {
	v, err := objInt(obj, key)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("field %q: negative value %d", key, v)
	}
	return uint64(v), nil
}

// EpochStartConfig anchors an epoch's starting point: the system state it
// began from and the digest of the last checkpoint of the previous epoch.
type EpochStartConfig struct {
	State                SystemState `json:"state"`
	LastCheckpointDigest Digest      `json:"last_checkpoint_digest"`
}

// EpochContext is the complete set of ambient execution parameters for one
// epoch. It is immutable: the epoch transition builds a fresh context and
// replaces the active one wholesale, never field by field, so no transaction
// can observe parameters from two different epochs.
type EpochContext struct {
	Epoch             uint64
	Protocol          ProtocolParams
	VMConfig          VMConfig
	ReferenceGasPrice uint64
	StartConfig       EpochStartConfig
}

// NewEpochContext derives the context for the committee's epoch from an
// epoch-start configuration.
func NewEpochContext(committee Committee, start EpochStartConfig) *EpochContext {
	return &EpochContext{
		Epoch:             committee.Epoch,
		Protocol:          start.State.NextProtocol,
		VMConfig:          start.State.NextVMConfig,
		ReferenceGasPrice: start.State.NextGasPrice,
		StartConfig:       start,
	}
}
