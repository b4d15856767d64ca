package technique

import (
	"fmt"
	"strings"
)

// AttackSurface identifies the cloud surface a technique targets.
type AttackSurface string

const (
	SurfaceAzure   AttackSurface = "azure"
	SurfaceEntraID AttackSurface = "entra_id"
	SurfaceAWS     AttackSurface = "aws"
	SurfaceM365    AttackSurface = "m365"
	SurfaceGCP     AttackSurface = "gcp"
)

// AllSurfaces lists every valid attack surface.
func AllSurfaces() []AttackSurface {
	return []AttackSurface{SurfaceAzure, SurfaceEntraID, SurfaceAWS, SurfaceM365, SurfaceGCP}
}

// String returns the string representation of AttackSurface.
func (s AttackSurface) String() string {
	return string(s)
}

// IsValid checks if the AttackSurface is a valid value.
func (s AttackSurface) IsValid() bool {
	switch s {
	case SurfaceAzure, SurfaceEntraID, SurfaceAWS, SurfaceM365, SurfaceGCP:
		return true
	default:
		return false
	}
}

// MitreTechnique tags a technique with its MITRE ATT&CK classification.
type MitreTechnique struct {
	// TechniqueID is the ATT&CK identifier, e.g. "T1580" or "T1530.001".
	TechniqueID string `json:"technique_id" yaml:"technique_id"`

	// TechniqueName is the ATT&CK technique name.
	TechniqueName string `json:"technique_name" yaml:"technique_name"`

	// Tactics lists the ATT&CK tactics this technique serves.
	Tactics []string `json:"tactics" yaml:"tactics"`

	// SubTechniqueName is set when the ID refers to a sub-technique.
	SubTechniqueName string `json:"sub_technique_name,omitempty" yaml:"sub_technique_name,omitempty"`
}

// URL returns the attack.mitre.org page for this technique.
func (m MitreTechnique) URL() string {
	if m.SubTechniqueName != "" {
		return fmt.Sprintf("https://attack.mitre.org/techniques/%s/", strings.ReplaceAll(m.TechniqueID, ".", "/"))
	}
	return fmt.Sprintf("https://attack.mitre.org/techniques/%s/", m.TechniqueID)
}

// AzureTRMTechnique tags a technique with its Azure Threat Research Matrix
// classification.
type AzureTRMTechnique struct {
	TechniqueID      string   `json:"technique_id" yaml:"technique_id"`
	TechniqueName    string   `json:"technique_name" yaml:"technique_name"`
	Tactics          []string `json:"tactics" yaml:"tactics"`
	SubTechniqueName string   `json:"sub_technique_name,omitempty" yaml:"sub_technique_name,omitempty"`
}

// URL returns the Azure Threat Research Matrix page for this technique.
func (a AzureTRMTechnique) URL() string {
	if len(a.Tactics) == 0 {
		return ""
	}
	tactic := strings.ReplaceAll(a.Tactics[0], " ", "")
	base := strings.SplitN(a.TechniqueID, ".", 2)[0]
	if a.SubTechniqueName != "" {
		return fmt.Sprintf("https://microsoft.github.io/Azure-Threat-Research-Matrix/%s/%s/%s/",
			tactic, base, strings.ReplaceAll(a.TechniqueID, ".", "-"))
	}
	return fmt.Sprintf("https://microsoft.github.io/Azure-Threat-Research-Matrix/%s/%s/%s/", tactic, base, base)
}

// Reference is a single external reference attached to a technique.
type Reference struct {
	Title string `json:"title" yaml:"title"`
	Link  string `json:"link" yaml:"link"`
}

// Descriptor is the immutable metadata attached to a technique. It is
// created once at registration time and never mutated; the registry owns
// the authoritative copy.
type Descriptor struct {
	// ID is the stable registry key, unique across all loaded techniques.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable technique name.
	Name string `json:"name" yaml:"name"`

	// Description is free-text documentation of what the technique does.
	Description string `json:"description" yaml:"description"`

	// Surface is the cloud surface this technique targets.
	Surface AttackSurface `json:"surface" yaml:"surface"`

	// MitreTechniques classifies the technique against MITRE ATT&CK.
	MitreTechniques []MitreTechnique `json:"mitre_techniques" yaml:"mitre_techniques"`

	// AzureTRMTechniques classifies the technique against the Azure
	// Threat Research Matrix, where applicable.
	AzureTRMTechniques []AzureTRMTechnique `json:"azure_trm_techniques,omitempty" yaml:"azure_trm_techniques,omitempty"`

	// References lists external documentation links.
	References []Reference `json:"references,omitempty" yaml:"references,omitempty"`

	// Notes holds free-text operator notes.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Validate checks that the descriptor carries the minimum required metadata.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("descriptor ID cannot be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("descriptor name cannot be empty")
	}
	if !d.Surface.IsValid() {
		return fmt.Errorf("invalid attack surface: %s", d.Surface)
	}
	return nil
}

// Tactics returns the deduplicated MITRE tactics across all classification tags.
func (d Descriptor) Tactics() []string {
	seen := make(map[string]struct{})
	var tactics []string
	for _, mt := range d.MitreTechniques {
		for _, tactic := range mt.Tactics {
			if _, ok := seen[tactic]; ok {
				continue
			}
			seen[tactic] = struct{}{}
			tactics = append(tactics, tactic)
		}
	}
	return tactics
}
