package dataset

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// SectionType classifies a contiguous run of messages in a chat comparison
type SectionType string

const (
	// SectionMatch is a run present and equal on both sides
	SectionMatch SectionType = "match"
	// SectionConflict is a run present on both sides with differing content
	SectionConflict SectionType = "conflict"
	// SectionRetention is a run present only in master
	SectionRetention SectionType = "retention"
	// SectionAddition is a run present only in slave
	SectionAddition SectionType = "addition"
)

// Toggleable reports whether the user decides the fate of sections of this type
func (t SectionType) Toggleable() bool {
	return t == SectionConflict || t == SectionAddition
}

// Range is the inclusive message id range a section covers on each side.
// A side with NoMessage bounds contributes nothing.
type Range struct {
	FirstMasterID MessageID `json:"first_master_id" yaml:"first_master_id"`
	LastMasterID  MessageID `json:"last_master_id" yaml:"last_master_id"`
	FirstSlaveID  MessageID `json:"first_slave_id" yaml:"first_slave_id"`
	LastSlaveID   MessageID `json:"last_slave_id" yaml:"last_slave_id"`
}

// emptyRange has every bound unset
func emptyRange() Range {
	return Range{FirstMasterID: NoMessage, LastMasterID: NoMessage, FirstSlaveID: NoMessage, LastSlaveID: NoMessage}
}

// UnmarshalJSON implements json.Unmarshaler. Omitted bounds are NoMessage.
func (r *Range) UnmarshalJSON(data []byte) error {
	type plain Range
	out := plain(emptyRange())
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*r = Range(out)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Omitted bounds are NoMessage.
func (r *Range) UnmarshalYAML(value *yaml.Node) error {
	type plain Range
	out := plain(emptyRange())
	if err := value.Decode(&out); err != nil {
		return err
	}
	*r = Range(out)
	return nil
}

// HasMaster reports whether the master side of the range is non-empty
func (r Range) HasMaster() bool {
	return r.FirstMasterID.Valid() && r.LastMasterID.Valid()
}

// HasSlave reports whether the slave side of the range is non-empty
func (r Range) HasSlave() bool {
	return r.FirstSlaveID.Valid() && r.LastSlaveID.Valid()
}

// Section is one classified range of a chat comparison
type Section struct {
	Type  SectionType `json:"type" yaml:"type"`
	Range Range       `json:"range" yaml:"range"`
}

// ChatAnalysis is the backend's comparison of one master chat with one slave chat
type ChatAnalysis struct {
	MasterChat ChatRef   `json:"master_chat"`
	SlaveChat  ChatRef   `json:"slave_chat"`
	Sections   []Section `json:"sections"`
}

// HasToggleable reports whether any section needs a user decision
func (a *ChatAnalysis) HasToggleable() bool {
	for _, s := range a.Sections {
		if s.Type.Toggleable() {
			return true
		}
	}
	return false
}
