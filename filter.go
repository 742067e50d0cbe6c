package docskema

// FilterPartial returns a copy of the payload keeping, at every object level,
// only the fields present in the matching level of inst. Generated values
// survive since the schema writes them on every save. Elements appended to an
// array are kept whole. p is not modified.
func FilterPartial(p *Payload, inst map[string]any) *Payload {
	if p == nil {
		return nil
	}
	return filterObject(p, inst)
}

func filterObject(p *Payload, inst map[string]any) *Payload {
	out := *p
	out.Fields = make([]*Payload, 0, len(p.Fields))
	for _, f := range p.Fields {
		raw, present := inst[f.Key]
		if !present && !f.Flags.Has(PresenceGenerated) {
			continue
		}
		out.Fields = append(out.Fields, filterValue(f, raw))
	}
	return &out
}

func filterValue(p *Payload, raw any) *Payload {
	if p.Null {
		return p
	}
	switch p.Node.Kind {
	case KindObject:
		if p.Elem && p.Intent.Mode == ModeCreate {
			return p
		}
		m, _ := asMap(raw)
		return filterObject(p, m)
	case KindArray:
		list, _ := asList(raw)
		out := *p
		out.Elems = make([]*Payload, len(p.Elems))
		for i, e := range p.Elems {
			var ev any
			if i < len(list) {
				ev = list[i]
			}
			out.Elems[i] = filterValue(e, ev)
		}
		return &out
	}
	return p
}
