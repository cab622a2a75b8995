package validator

// Options are the recognized configuration flags of §4.5.3.
type Options struct {
	UseCache              bool
	CacheMissed           bool
	ExpectTerms           bool
	ExpectTypes           bool
	AllowDefaultNamespace bool
	Resolve               bool
	ResolveField          string
	SaveTerm              bool
}

// DefaultOptions returns the §4.5.3 defaults.
func DefaultOptions() Options {
	return Options{
		UseCache:              true,
		CacheMissed:           true,
		ExpectTerms:           true,
		ExpectTypes:           false,
		AllowDefaultNamespace: false,
		Resolve:               false,
		ResolveField:          "_lid",
		SaveTerm:              true,
	}
}
