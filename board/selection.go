package board

// Selection is the set of selected element ids plus an optional marquee
// rectangle drawn by the select gesture.
type Selection struct {
	IDs     []string `yaml:"ids,omitempty"`
	Marquee *Rect    `yaml:"marquee,omitempty"`
}

func NewSelection(ids ...string) Selection {
	return Selection{IDs: append([]string(nil), ids...)}
}

func (s Selection) Contains(id string) bool {
	for _, sel := range s.IDs {
		if sel == id {
			return true
		}
	}
	return false
}

func (s Selection) Empty() bool {
	return len(s.IDs) == 0 && s.Marquee == nil
}

// Toggle returns a copy with id added or removed.
func (s Selection) Toggle(id string) Selection {
	out := Selection{}
	found := false
	for _, sel := range s.IDs {
		if sel == id {
			found = true
			continue
		}
		out.IDs = append(out.IDs, sel)
	}
	if !found {
		out.IDs = append(out.IDs, id)
	}
	return out
}

func (s Selection) Equal(o Selection) bool {
	if len(s.IDs) != len(o.IDs) {
		return false
	}
	for i := range s.IDs {
		if s.IDs[i] != o.IDs[i] {
			return false
		}
	}
	if (s.Marquee == nil) != (o.Marquee == nil) {
		return false
	}
	return s.Marquee == nil || *s.Marquee == *o.Marquee
}

func (s Selection) clone() Selection {
	out := Selection{IDs: append([]string(nil), s.IDs...)}
	if s.Marquee != nil {
		m := *s.Marquee
		out.Marquee = &m
	}
	return out
}
