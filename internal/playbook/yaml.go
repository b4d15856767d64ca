package playbook

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// playbookFile is the on-disk YAML representation of a playbook. Field
// names match the established playbook file format so files remain
// portable across installations.
type playbookFile struct {
	Name         string       `yaml:"PB_Name"`
	Author       string       `yaml:"PB_Author"`
	CreationDate string       `yaml:"PB_Creation_Date"`
	Description  string       `yaml:"PB_Description"`
	References   []string     `yaml:"PB_References"`
	Sequence     map[int]Step `yaml:"PB_Sequence"`
}

// requiredFields are the top-level keys every playbook file must carry.
var requiredFields = []string{
	"PB_Name",
	"PB_Author",
	"PB_Creation_Date",
	"PB_Description",
	"PB_Sequence",
}

// Encode serializes a playbook to its YAML wire format.
func Encode(p *Playbook) ([]byte, error) {
	file := playbookFile{
		Name:         p.Name,
		Author:       p.Author,
		CreationDate: p.CreationDate,
		Description:  p.Description,
		References:   p.References,
		Sequence:     make(map[int]Step, len(p.Steps)),
	}

	for i, step := range p.Steps {
		if step.Params == nil {
			step.Params = map[string]any{}
		}
		file.Sequence[i+1] = step
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return nil, WrapPlaybookError(ErrPlaybookIO, "failed to encode playbook", err)
	}
	return data, nil
}

// Decode parses playbook YAML content into a Playbook, validating the
// file structure: required top-level fields, and a 1-based contiguous
// step sequence where every step carries a module and a non-negative wait.
func Decode(data []byte) (*Playbook, error) {
	// Presence check on raw keys so a missing field is reported by name
	// instead of surfacing as a zero value.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, NewParseError(err)
	}
	if raw == nil {
		return nil, NewParseError(fmt.Errorf("empty document"))
	}
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return nil, WrapPlaybookError(ErrPlaybookParse,
				"playbook data corrupt", fmt.Errorf("missing required field: %s", field))
		}
	}

	var file playbookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, NewParseError(err)
	}

	steps, err := sequenceToSteps(file.Sequence)
	if err != nil {
		return nil, err
	}

	p := &Playbook{
		Name:         file.Name,
		Description:  file.Description,
		Author:       file.Author,
		References:   file.References,
		CreationDate: file.CreationDate,
		Steps:        steps,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// sequenceToSteps converts the 1-based position map into an ordered slice,
// enforcing contiguity: positions must be exactly 1..N.
func sequenceToSteps(sequence map[int]Step) ([]Step, error) {
	if len(sequence) == 0 {
		return []Step{}, nil
	}

	positions := make([]int, 0, len(sequence))
	for pos := range sequence {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	steps := make([]Step, 0, len(sequence))
	for i, pos := range positions {
		if pos != i+1 {
			return nil, WrapPlaybookError(ErrPlaybookParse,
				"playbook data corrupt",
				fmt.Errorf("step positions must be contiguous starting at 1, found %d", pos))
		}

		step := sequence[pos]
		if step.Module == "" {
			return nil, WrapPlaybookError(ErrPlaybookParse,
				"playbook data corrupt",
				fmt.Errorf("step %d is missing the Module field", pos))
		}
		if step.Wait < 0 {
			return nil, WrapPlaybookError(ErrPlaybookParse,
				"playbook data corrupt",
				fmt.Errorf("step %d has a negative wait", pos))
		}
		if step.Params == nil {
			step.Params = map[string]any{}
		}
		steps = append(steps, step)
	}

	return steps, nil
}
