package population

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/austin-mroz/stk/internal/model"
	"github.com/austin-mroz/stk/internal/workdir"
)

const (
	currentSchemaVersion = 1
	currentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("checkpoint version mismatch")

type treeRecord struct {
	model.VersionedRecord
	Name    string            `json:"name,omitempty"`
	Members []model.Candidate `json:"members,omitempty"`
	Subs    []treeRecord      `json:"subpopulations,omitempty"`
}

func (p *Population) toRecord() treeRecord {
	rec := treeRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: currentSchemaVersion,
			CodecVersion:  currentCodecVersion,
		},
		Name:    p.name,
		Members: p.members,
	}
	for _, sub := range p.subs {
		rec.Subs = append(rec.Subs, sub.toRecord())
	}
	return rec
}

func fromRecord(rec treeRecord) (*Population, error) {
	if rec.SchemaVersion != currentSchemaVersion || rec.CodecVersion != currentCodecVersion {
		return nil, fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, rec.SchemaVersion, rec.CodecVersion)
	}
	p := &Population{
		name:    rec.Name,
		members: rec.Members,
	}
	for _, sub := range rec.Subs {
		child, err := fromRecord(sub)
		if err != nil {
			return nil, err
		}
		p.subs = append(p.subs, child)
	}
	return p, nil
}

// Encode serializes the full tree, including per-candidate fitness state.
func (p *Population) Encode() ([]byte, error) {
	return json.Marshal(p.toRecord())
}

// Decode rebuilds a population from a checkpoint blob. A decode failure
// never yields a partially populated tree.
func Decode(data []byte) (*Population, error) {
	var rec treeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode population checkpoint: %w", err)
	}
	return fromRecord(rec)
}

// Dump writes the checkpoint blob to path, temp-then-rename so concurrent
// readers never observe a partial file.
func (p *Population) Dump(path string) error {
	data, err := p.Encode()
	if err != nil {
		return fmt.Errorf("encode population checkpoint: %w", err)
	}
	if err := workdir.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("dump population: %w", err)
	}
	return nil
}

// Load reads a checkpoint written by Dump.
func Load(path string) (*Population, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load population checkpoint %s: %w", path, err)
	}
	return Decode(data)
}
