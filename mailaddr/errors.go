package mailaddr

// Kind the category of a rejection.
type Kind int

// Rejection kinds.
const (
	KindSyntax Kind = iota + 1
	KindTooLong
	KindIDNConversion
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindTooLong:
		return "too long"
	case KindIDNConversion:
		return "IDN conversion"
	default:
		return "unknown"
	}
}

// Part identifies the component of the address a rejection is about.
type Part string

// Address parts.
const (
	PartAddress Part = "address"
	PartName    Part = "name"
	PartLocal   Part = "local part"
	PartDomain  Part = "domain"
)

// Sentinels for use with `errors.Is`. They match any `*Error` of the same kind.
var (
	ErrSyntax        = &Error{Kind: KindSyntax}
	ErrTooLong       = &Error{Kind: KindTooLong}
	ErrIDNConversion = &Error{Kind: KindIDNConversion}
)

// Error describes why an input is not a valid address.
// The message never contains the input itself.
type Error struct {
	Err     error
	Part    Part
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	msg := "mailaddr: " + e.Kind.String()
	if e.Part != "" {
		msg += ": " + string(e.Part)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the error reported by the IDN converter, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Part == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func syntaxError(part Part, message string) *Error {
	return &Error{Kind: KindSyntax, Part: part, Message: message}
}
