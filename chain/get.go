package chain

type getConfig struct {
	def        any
	hasDefault bool
	target     Type
}

// GetOption adjusts a single lookup.
type GetOption func(*getConfig)

// Default supplies a fallback returned verbatim when the key is absent. The
// fallback is never cast: callers pass it in the type they want back. A nil
// default is a real default, distinct from supplying none at all.
func Default(v any) GetOption {
	return func(c *getConfig) {
		c.def = v
		c.hasDefault = true
	}
}

// As sets the target type a found value is cast to. Lookups default to
// Text.
func As(t Type) GetOption {
	return func(c *getConfig) { c.target = t }
}

// Get resolves key through the merged view and casts the stored value to
// the requested type. An absent key returns the Default verbatim when one
// was supplied, otherwise a *KeyError.
func (s *Store) Get(key string, opts ...GetOption) (any, error) {
	c := getConfig{target: Text}
	for _, opt := range opts {
		opt(&c)
	}
	v, ok := s.Lookup(key)
	if !ok {
		if c.hasDefault {
			return c.def, nil
		}
		return nil, &KeyError{Key: key}
	}
	return Cast(v, c.target)
}

// String resolves key as text. def, when given, is returned verbatim for
// an absent key.
func (s *Store) String(key string, def ...string) (string, error) {
	v, ok := s.Lookup(key)
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return "", &KeyError{Key: key}
	}
	cast, err := Cast(v, Text)
	if err != nil {
		return "", err
	}
	return cast.(string), nil
}

// Int resolves key as an integer.
func (s *Store) Int(key string, def ...int64) (int64, error) {
	v, ok := s.Lookup(key)
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return 0, &KeyError{Key: key}
	}
	cast, err := Cast(v, Int)
	if err != nil {
		return 0, err
	}
	return cast.(int64), nil
}

// Float resolves key as a floating-point number.
func (s *Store) Float(key string, def ...float64) (float64, error) {
	v, ok := s.Lookup(key)
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return 0, &KeyError{Key: key}
	}
	cast, err := Cast(v, Float)
	if err != nil {
		return 0, err
	}
	return cast.(float64), nil
}

// Bool resolves key as a boolean.
func (s *Store) Bool(key string, def ...bool) (bool, error) {
	v, ok := s.Lookup(key)
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return false, &KeyError{Key: key}
	}
	cast, err := Cast(v, Bool)
	if err != nil {
		return false, err
	}
	return cast.(bool), nil
}

// Raw resolves key without casting, for structured values.
func (s *Store) Raw(key string, def ...any) (any, error) {
	v, ok := s.Lookup(key)
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return nil, &KeyError{Key: key}
	}
	return v, nil
}
