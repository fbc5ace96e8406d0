// Package i18n renders user-facing messages from embedded per-locale tables.
// Keys are "group.name" (e.g. "validation.required", "roomLine.capacityExceeded");
// {placeholders} in a message are filled from the params map.
package i18n

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"hotel_inventory/internal/domain"
)

//go:embed locales/*.yaml
var localesFS embed.FS

const DefaultLocale = "es"

type Messages struct {
	locale string
	table  map[string]string
}

// Load parses the table for locale.
func Load(locale string) (*Messages, error) {
	raw, err := localesFS.ReadFile("locales/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", locale, err)
	}
	var groups map[string]map[string]string
	if err := yaml.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("locale %q: %w", locale, err)
	}
	m := &Messages{locale: locale, table: map[string]string{}}
	for g, entries := range groups {
		for k, v := range entries {
			m.table[g+"."+k] = v
		}
	}
	return m, nil
}

// MustLoad is Load for locales known to be embedded; an unknown locale falls
// back to DefaultLocale.
func MustLoad(locale string) *Messages {
	if m, err := Load(locale); err == nil {
		return m
	}
	m, err := Load(DefaultLocale)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Messages) Locale() string { return m.locale }

// Message renders key, or returns key itself when the table lacks it.
func (m *Messages) Message(key string, params map[string]string) string {
	msg, ok := m.table[key]
	if !ok {
		return key
	}
	if len(params) == 0 {
		return msg
	}
	pairs := make([]string, 0, 2*len(params))
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Attribute is the display name of a payload field.
func (m *Messages) Attribute(field string) string {
	if a, ok := m.table["attributes."+field]; ok {
		return a
	}
	return field
}

// Validation renders a field rule failure such as ("nombre", "max", "255").
// Rules without their own message use validation.default.
func (m *Messages) Validation(field, rule, param string) string {
	key := "validation." + rule
	if _, ok := m.table[key]; !ok {
		key = "validation.default"
	}
	return m.Message(key, map[string]string{"attribute": m.Attribute(field), "param": param})
}

// RoomLine renders a room-line rejection.
func (m *Messages) RoomLine(e *domain.RoomLineError) string {
	p := map[string]string{}
	switch e.Kind {
	case domain.KindDuplicateRoomCombination:
		p["key"] = e.Key
	case domain.KindCapacityExceeded:
		p["total"] = strconv.Itoa(e.Total)
		p["capacity"] = strconv.Itoa(e.Capacity)
	case domain.KindUnknownReferenceCode:
		p["code"] = e.Code
		p["attribute"] = m.Attribute(e.CodeTable)
	case domain.KindInvalidQuantity:
		p["quantity"] = strconv.Itoa(e.Quantity)
	case domain.KindIncompatiblePair:
		p["tipo"] = e.RoomTypeDescription
		p["acomodacion"] = e.AccommodationDescription
	}
	return m.Message("roomLine."+string(e.Kind), p)
}
