package core

// DiffPayload is a render update: changed text slots (s), changed HTML
// slots (h), or the whole view (f) when the markup has no slots.
type DiffPayload struct {
	Version   uint64            `json:"v"`
	Slots     map[string]string `json:"s,omitempty"`
	HTMLSlots map[string]string `json:"h,omitempty"`
	Full      string            `json:"f,omitempty"`
}

// IsEmpty reports whether nothing changed. The version alone is not news.
func (d *DiffPayload) IsEmpty() bool {
	return len(d.Slots) == 0 && len(d.HTMLSlots) == 0 && d.Full == ""
}

// Size is the number of content bytes carried.
func (d *DiffPayload) Size() int {
	n := len(d.Full)
	for _, m := range []map[string]string{d.Slots, d.HTMLSlots} {
		for _, v := range m {
			n += len(v)
		}
	}
	return n
}

// SendDiff pushes payload unless it is empty.
func (s *Socket) SendDiff(payload *DiffPayload) error {
	if payload == nil || payload.IsEmpty() {
		return nil
	}
	return s.Push("diff", map[string]any{
		"v": payload.Version,
		"s": payload.Slots,
		"h": payload.HTMLSlots,
		"f": payload.Full,
	})
}
