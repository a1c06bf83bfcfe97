package stix

import "time"

type ExternalReference struct {
	SourceName  string `json:"source_name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
}

type KillChainPhase struct {
	KillChainName string `json:"kill_chain_name"`
	PhaseName     string `json:"phase_name"`
}

// CommonProperties are shared by every STIX domain and relationship object
type CommonProperties struct {
	Type               string              `json:"type"`
	SpecVersion        string              `json:"spec_version,omitempty"`
	ID                 Id                  `json:"id"`
	CreatedByRef       Id                  `json:"created_by_ref,omitempty"`
	Created            time.Time           `json:"created"`
	Modified           time.Time           `json:"modified"`
	IsRevoked          bool                `json:"revoked,omitempty"`
	Labels             []string            `json:"labels,omitempty"`
	ExternalReferences []ExternalReference `json:"external_references,omitempty"`
	ObjectMarkingRefs  []Id                `json:"object_marking_refs,omitempty"`

	// MITRE ATT&CK extensions
	MitreDeprecated bool     `json:"x_mitre_deprecated,omitempty"`
	MitreVersion    string   `json:"x_mitre_version,omitempty"`
	MitreDomains    []string `json:"x_mitre_domains,omitempty"`
}

func (cp *CommonProperties) Common() *CommonProperties {
	return cp
}

func (cp *CommonProperties) Revoked() bool {
	return cp.IsRevoked
}

func (cp *CommonProperties) Deprecated() bool {
	return cp.MitreDeprecated
}

// ExternalID returns the external id from the first reference with the given source, e.g. "mitre-attack"
func (cp *CommonProperties) ExternalID(source string) (string, bool) {
	for _, er := range cp.ExternalReferences {
		if er.SourceName == source && er.ExternalID != "" {
			return er.ExternalID, true
		}
	}
	return "", false
}
