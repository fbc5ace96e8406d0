package domain

import "sort"

type RoomType struct {
	Code        string `json:"codigo" db:"codigo"`
	Description string `json:"descripcion" db:"descripcion"`
}

type AccommodationType struct {
	Code        string `json:"codigo" db:"codigo"`
	Description string `json:"descripcion" db:"descripcion"`
}

// CompatibilityEdge says AccommodationCode may be offered under RoomTypeCode.
type CompatibilityEdge struct {
	RoomTypeCode      string `json:"tipoHabitacionCodigo" db:"tipo_habitacion_codigo"`
	AccommodationCode string `json:"tipoAcomodacionCodigo" db:"tipo_acomodacion_codigo"`
}

// CatalogData is the raw content of the reference tables.
type CatalogData struct {
	RoomTypes      []RoomType          `json:"tiposHabitacion"`
	Accommodations []AccommodationType `json:"tiposAcomodacion"`
	Edges          []CompatibilityEdge `json:"compatibilidad"`
}

// Catalog is an immutable, indexed view over CatalogData. Lookups are by
// exact code; unknown codes are reported as not found.
type Catalog struct {
	data           CatalogData
	roomTypes      map[string]string
	accommodations map[string]string
	edges          map[CompatibilityEdge]struct{}
}

func NewCatalog(d CatalogData) *Catalog {
	c := &Catalog{
		data:           d,
		roomTypes:      make(map[string]string, len(d.RoomTypes)),
		accommodations: make(map[string]string, len(d.Accommodations)),
		edges:          make(map[CompatibilityEdge]struct{}, len(d.Edges)),
	}
	for _, rt := range d.RoomTypes {
		c.roomTypes[rt.Code] = rt.Description
	}
	for _, a := range d.Accommodations {
		c.accommodations[a.Code] = a.Description
	}
	for _, e := range d.Edges {
		c.edges[e] = struct{}{}
	}
	return c
}

func (c *Catalog) IsValidPair(roomTypeCode, accommodationCode string) bool {
	_, ok := c.edges[CompatibilityEdge{RoomTypeCode: roomTypeCode, AccommodationCode: accommodationCode}]
	return ok
}

func (c *Catalog) DescribeRoomType(code string) (string, bool) {
	d, ok := c.roomTypes[code]
	return d, ok
}

func (c *Catalog) DescribeAccommodation(code string) (string, bool) {
	d, ok := c.accommodations[code]
	return d, ok
}

// RoomTypeDescriptions maps every known code in codes to its description.
// Unknown codes are left out.
func (c *Catalog) RoomTypeDescriptions(codes []string) map[string]string {
	return pick(c.roomTypes, codes)
}

// AccommodationDescriptions is RoomTypeDescriptions for accommodation codes.
func (c *Catalog) AccommodationDescriptions(codes []string) map[string]string {
	return pick(c.accommodations, codes)
}

// AccommodationsFor lists the accommodation codes allowed under a room type,
// sorted by code.
func (c *Catalog) AccommodationsFor(roomTypeCode string) []string {
	var out []string
	for e := range c.edges {
		if e.RoomTypeCode == roomTypeCode {
			out = append(out, e.AccommodationCode)
		}
	}
	sort.Strings(out)
	return out
}

// Data returns the tables the catalog was built from.
func (c *Catalog) Data() CatalogData { return c.data }

func pick(src map[string]string, codes []string) map[string]string {
	out := make(map[string]string, len(codes))
	for _, code := range codes {
		if d, ok := src[code]; ok {
			out[code] = d
		}
	}
	return out
}
