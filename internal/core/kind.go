package core

// Kind is the capability tag carried by values the execution engine inspects
type Kind int

const (
	KindUnknown Kind = iota
	KindTable
	KindInteractiveFigure
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindInteractiveFigure:
		return "interactive_figure"
	default:
		return "unknown"
	}
}

// Tagged is implemented by runtime values that declare their capability
type Tagged interface {
	Kind() Kind
}

// KindOf returns the capability tag of v, or KindUnknown
func KindOf(v any) Kind {
	if t, ok := v.(Tagged); ok && t != nil {
		return t.Kind()
	}
	return KindUnknown
}
