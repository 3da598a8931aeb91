package rack

// DefaultRegistry returns a registry with the built-in effect units. Input
// and Output are not registered: every rack creates exactly one of each.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(KindDelay, func(rk *Rack) (Unit, error) {
		u, err := NewDelay(rk)
		if err != nil {
			return nil, err
		}

		return u, nil
	})
	r.MustRegister(KindDistortion, func(rk *Rack) (Unit, error) {
		u, err := NewDistortion(rk)
		if err != nil {
			return nil, err
		}

		return u, nil
	})
	r.MustRegister(KindReverb, func(rk *Rack) (Unit, error) {
		u, err := NewReverb(rk)
		if err != nil {
			return nil, err
		}

		return u, nil
	})

	return r
}
