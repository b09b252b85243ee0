package emit

// MultiEmitter fans one event out to several emitters in order.
type MultiEmitter struct {
	emitters []Emitter
}

// Multi combines emitters; nil entries are skipped.
func Multi(emitters ...Emitter) *MultiEmitter {
	out := make([]Emitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return &MultiEmitter{emitters: out}
}

func (m *MultiEmitter) Emit(event Event) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}
