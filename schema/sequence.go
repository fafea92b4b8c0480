package schema

type Sequence struct {
	Name           Identifier
	AllocationSize int
	InitialValue   int
	Cache          int
}

type SequenceOption func(*Sequence)

func NewSequence(name string, opts ...SequenceOption) *Sequence {
	s := &Sequence{Name: NewIdentifier(name), AllocationSize: 1, InitialValue: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func WithAllocationSize(size int) SequenceOption {
	return func(s *Sequence) { s.AllocationSize = size }
}

func WithInitialValue(value int) SequenceOption {
	return func(s *Sequence) { s.InitialValue = value }
}

func WithCache(cache int) SequenceOption {
	return func(s *Sequence) { s.Cache = cache }
}

func (s *Sequence) SameSignature(other *Sequence) bool {
	return s.AllocationSize == other.AllocationSize &&
		s.InitialValue == other.InitialValue &&
		s.Cache == other.Cache
}
