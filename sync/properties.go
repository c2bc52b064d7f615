package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

const (
	PropertyStatusOK      = "ok"
	PropertyStatusMissing = "missing"
)

// PropertyLister lists the contact property definitions held by the destination.
type PropertyLister interface {
	ListContactProperties(ctx context.Context) ([]ContactProperty, error)
}

// CheckContactProperties checks that every mapped contact property exists in
// HubSpot with the expected type. The result maps each property name to
// PropertyStatusOK or a description of what is missing.
func CheckContactProperties(ctx context.Context, lister PropertyLister) (map[string]string, error) {
	result := make(map[string]string)
	for _, m := range ContactFieldMappings {
		result[m.Property] = PropertyStatusMissing
	}

	properties, err := lister.ListContactProperties(ctx)
	if err != nil {
		return result, err
	}

	expected := make(map[string]string)
	for _, m := range ContactFieldMappings {
		expected[m.Property] = m.Type
	}
	for _, p := range properties {
		if t, exists := expected[p.Name]; exists && (t == "" || strings.EqualFold(t, p.Type)) {
			result[p.Name] = PropertyStatusOK
		}
	}

	for k, v := range result {
		if v != PropertyStatusOK {
			result[k] = fmt.Sprintf(`%s %s (%s)`, PropertyStatusMissing, PropertyLabel(k), expected[k])
		}
	}
	return result, nil
}

// PropertyLabel derives a display label from an internal property name,
// e.g. "job_title" -> "Job Title".
func PropertyLabel(name string) string {
	var parts []string
	for _, s := range strings.Split(strcase.ToSnake(name), "_") {
		if s != "" {
			parts = append(parts, strcase.ToCamel(s))
		}
	}
	return strings.Join(parts, " ")
}
