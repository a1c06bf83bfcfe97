package stix

const (
	TypeAttackPattern     = "attack-pattern"
	TypeMalware           = "malware"
	TypeTool              = "tool"
	TypeIntrusionSet      = "intrusion-set"
	TypeCampaign          = "campaign"
	TypeCourseOfAction    = "course-of-action"
	TypeTactic            = "x-mitre-tactic"
	TypeIdentity          = "identity"
	TypeMarkingDefinition = "marking-definition"
	TypeRelationship      = "relationship"
	TypeBundle            = "bundle"
)

type AttackPattern struct {
	CommonProperties
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	KillChainPhases  []KillChainPhase `json:"kill_chain_phases,omitempty"`
	IsSubtechnique   bool             `json:"x_mitre_is_subtechnique,omitempty"`
	MitrePlatforms   []string         `json:"x_mitre_platforms,omitempty"`
	MitreDetection   string           `json:"x_mitre_detection,omitempty"`
	MitreDataSources []string         `json:"x_mitre_data_sources,omitempty"`
}

func (AttackPattern) ObjectType() string { return TypeAttackPattern }

type Malware struct {
	CommonProperties
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	IsFamily    bool     `json:"is_family,omitempty"`
	Aliases     []string `json:"x_mitre_aliases,omitempty"`
	Platforms   []string `json:"x_mitre_platforms,omitempty"`
}

func (Malware) ObjectType() string { return TypeMalware }

type Tool struct {
	CommonProperties
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Aliases     []string `json:"x_mitre_aliases,omitempty"`
	Platforms   []string `json:"x_mitre_platforms,omitempty"`
}

func (Tool) ObjectType() string { return TypeTool }

type IntrusionSet struct {
	CommonProperties
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

func (IntrusionSet) ObjectType() string { return TypeIntrusionSet }

type Campaign struct {
	CommonProperties
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

func (Campaign) ObjectType() string { return TypeCampaign }

type CourseOfAction struct {
	CommonProperties
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (CourseOfAction) ObjectType() string { return TypeCourseOfAction }

type Tactic struct {
	CommonProperties
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ShortName   string `json:"x_mitre_shortname,omitempty"`
}

func (Tactic) ObjectType() string { return TypeTactic }

type Identity struct {
	CommonProperties
	Name          string `json:"name"`
	IdentityClass string `json:"identity_class,omitempty"`
}

func (Identity) ObjectType() string { return TypeIdentity }

type MarkingDefinition struct {
	CommonProperties
	DefinitionType string            `json:"definition_type,omitempty"`
	Definition     map[string]string `json:"definition,omitempty"`
}

func (MarkingDefinition) ObjectType() string { return TypeMarkingDefinition }

// GenericObject holds objects of types we have no dedicated kind for
type GenericObject struct {
	CommonProperties
}

func (g GenericObject) ObjectType() string { return g.Type }

// Name returns the display name of o, or "" for kinds without one
func Name(o Object) string {
	switch v := o.(type) {
	case *AttackPattern:
		return v.Name
	case *Malware:
		return v.Name
	case *Tool:
		return v.Name
	case *IntrusionSet:
		return v.Name
	case *Campaign:
		return v.Name
	case *CourseOfAction:
		return v.Name
	case *Tactic:
		return v.Name
	case *Identity:
		return v.Name
	}
	return ""
}

func Description(o Object) string {
	switch v := o.(type) {
	case *AttackPattern:
		return v.Description
	case *Malware:
		return v.Description
	case *Tool:
		return v.Description
	case *IntrusionSet:
		return v.Description
	case *Campaign:
		return v.Description
	case *CourseOfAction:
		return v.Description
	case *Tactic:
		return v.Description
	case *Relationship:
		return v.Description()
	}
	return ""
}
