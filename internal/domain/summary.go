package domain

// RoomSummary counts the rooms of one (room type, accommodation) pair.
type RoomSummary struct {
	RoomTypeCode             string `json:"tipoHabitacionCodigo"`
	AccommodationCode        string `json:"tipoAcomodacionCodigo"`
	RoomTypeDescription      string `json:"tipoHabitacion"`
	AccommodationDescription string `json:"tipoAcomodacion"`
	Total                    int    `json:"total"`
}

// SummarizeRooms groups rooms by pair. Groups come out in the order their
// first room appears in rooms; readers load rooms by ascending id, so that
// is insertion order.
func SummarizeRooms(rooms []Room) []RoomSummary {
	out := []RoomSummary{}
	idx := map[CompatibilityEdge]int{}
	for _, r := range rooms {
		k := CompatibilityEdge{RoomTypeCode: r.RoomTypeCode, AccommodationCode: r.AccommodationCode}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, RoomSummary{
				RoomTypeCode:             r.RoomTypeCode,
				AccommodationCode:        r.AccommodationCode,
				RoomTypeDescription:      r.RoomTypeDescription,
				AccommodationDescription: r.AccommodationDescription,
			})
		}
		out[i].Total++
	}
	return out
}

// NewHotelView attaches the room summary to h.
func NewHotelView(h Hotel) HotelView {
	if h.Habitaciones == nil {
		h.Habitaciones = []Room{}
	}
	return HotelView{Hotel: h, InfoHabitaciones: SummarizeRooms(h.Habitaciones)}
}
