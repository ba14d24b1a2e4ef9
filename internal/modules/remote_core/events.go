package remotecore

// Emitter delivers bridge events to listeners. Emit must not block on
// listeners and is called without bridge locks held.
type Emitter interface {
	Emit(name string, payload any)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(name string, payload any)

// Emit calls f.
func (f EmitterFunc) Emit(name string, payload any) {
	f(name, payload)
}

// MultiEmitter fans events out to every emitter in order.
type MultiEmitter []Emitter

// Emit forwards to all emitters.
func (m MultiEmitter) Emit(name string, payload any) {
	for _, emitter := range m {
		if emitter != nil {
			emitter.Emit(name, payload)
		}
	}
}

type nopEmitter struct{}

func (nopEmitter) Emit(string, any) {}
