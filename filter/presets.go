package filter

// Config controls how elements are reduced before downstream consumption.
// Fields is an allow-list of field names; the single entry "*" keeps every
// field. An empty Fields list falls back to the named preset's list.
type Config struct {
	Preset     string   `json:"filter_preset"`
	Fields     []string `json:"fields"`
	IncludeIDs bool     `json:"include_element_ids"`
}

// DefaultConfig keeps everything and preserves element ids.
func DefaultConfig() Config {
	return Config{
		Preset:     PresetLLMReady,
		Fields:     []string{FieldAll},
		IncludeIDs: true,
	}
}

// FieldAll is the wildcard allow-list entry.
const FieldAll = "*"

// Synthetic field names the filter can add to an element.
const (
	FieldElementIndex  = "elementIndex"
	FieldParentSection = "parentSection"
	FieldPageNumber    = "pageNumber"
	FieldElementType   = "elementType"
	FieldContent       = "content"
	FieldID            = "_id"
)

// Preset names. Presets are configuration data: each maps to a fixed
// allow-list and can be extended without touching the filtering algorithm.
const (
	// PresetNoFilter keeps every field.
	PresetNoFilter = "no_filter"
	// PresetLLMReady is the balanced set for LLM consumption.
	PresetLLMReady = "llm_ready"
	// PresetForensic adds positional context for audit-heavy workloads.
	PresetForensic = "forensic_extraction"
	// PresetCitation is the minimal set needed to cite a passage.
	PresetCitation = "citation_optimized"
)

var presets = map[string][]string{
	PresetNoFilter: {FieldAll},
	PresetLLMReady: {
		FieldID, FieldContent, "role", FieldPageNumber, FieldElementType, FieldParentSection,
	},
	PresetForensic: {
		FieldID, FieldContent, "role", FieldPageNumber, FieldElementType,
		FieldParentSection, FieldElementIndex, "rowIndex", "columnIndex", "columnHeader",
	},
	PresetCitation: {
		FieldID, FieldContent, FieldPageNumber, FieldElementType,
	},
}

// PresetFields returns the allow-list for a named preset.
func PresetFields(name string) ([]string, bool) {
	fields, ok := presets[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), fields...), true
}

// Presets returns the known preset names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}

// resolveFields returns the effective allow-list for a config: explicit
// fields win, otherwise the preset's list.
func (c Config) resolveFields() ([]string, bool) {
	if len(c.Fields) > 0 {
		return c.Fields, true
	}
	return PresetFields(c.Preset)
}
