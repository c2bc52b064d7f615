package sync

import "fmt"

// Mappable provides a common interface for types that can be mapped.
// This enables shared field mapping logic.
type Mappable interface {
	GetFields() map[string]string
	SetField(key string, value string)
	DeleteField(key string)
}

// ContactProperties holds HubSpot contact properties keyed by internal name.
type ContactProperties map[string]string

func (p ContactProperties) GetFields() map[string]string {
	return p
}

func (p ContactProperties) SetField(key string, value string) {
	p[key] = value
}

func (p ContactProperties) DeleteField(key string) {
	delete(p, key)
}

// FieldMapping maps a destination property from one or more source paths.
// Paths are tried in order and the first non-empty value wins.
type FieldMapping struct {
	Property string
	Paths    []string
	// Modifier is applied to each path when a phone region is configured.
	Modifier string
	// Type is the expected HubSpot property type.
	Type string
}

// ContactFieldMappings is the fixed set of contact properties that are synced.
var ContactFieldMappings = []FieldMapping{
	{Property: "email", Paths: []string{"email"}, Type: "string"},
	{Property: "firstname", Paths: []string{"firstName", "firstname"}, Type: "string"},
	{Property: "lastname", Paths: []string{"lastName", "lastname"}, Type: "string"},
	{Property: "phone", Paths: []string{"phone"}, Modifier: "@phone", Type: "string"},
	{Property: "company", Paths: []string{"company"}, Type: "string"},
}

// ContactPropertyNames returns the names of the mapped properties in mapping order.
func ContactPropertyNames() []string {
	var result []string
	for _, m := range ContactFieldMappings {
		result = append(result, m.Property)
	}
	return result
}

func (m FieldMapping) pathFor(path string, settings MappingSettings) string {
	if m.Modifier == "" || settings.PhoneRegion == "" {
		return path
	}
	return fmt.Sprintf("%s|%s:%s", path, m.Modifier, settings.PhoneRegion)
}

// MapContactFields maps a source record onto destination.
// A property with no present source path is omitted. When every present path
// is empty the property is mapped to "".
func MapContactFields(source Source, destination Mappable, settings MappingSettings) {
	for _, m := range ContactFieldMappings {
		var value string
		var found bool
		for _, path := range m.Paths {
			result, exists := source.StringForPath(m.pathFor(path, settings))
			if !exists {
				continue
			}
			found = true
			if result != "" {
				value = result
				break
			}
		}
		if found {
			destination.SetField(m.Property, value)
		} else {
			destination.DeleteField(m.Property)
		}
	}
}
