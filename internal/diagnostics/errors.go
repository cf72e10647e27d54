package diagnostics

import "fmt"

// Kind enumerates the closed taxonomy of Storm error variants (spec §4.9).
type Kind int

const (
	SyntaxError Kind = iota
	TypeError
	TypedefError
	RuntimeError
	InternalError
	InternalTypeError
	LangDefError
	BuiltInError
	ReplaceError
	DocError
	SerializationError
	MsgError
	ArrayError
	StrError
	ImageLoadError
	InvalidName
	DebugError
	AbstractFnCalled
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case TypeError:
		return "TypeError"
	case TypedefError:
		return "TypedefError"
	case RuntimeError:
		return "RuntimeError"
	case InternalError:
		return "InternalError"
	case InternalTypeError:
		return "InternalTypeError"
	case LangDefError:
		return "LangDefError"
	case BuiltInError:
		return "BuiltInError"
	case ReplaceError:
		return "ReplaceError"
	case DocError:
		return "DocError"
	case SerializationError:
		return "SerializationError"
	case MsgError:
		return "MsgError"
	case ArrayError:
		return "ArrayError"
	case StrError:
		return "StrError"
	case ImageLoadError:
		return "ImageLoadError"
	case InvalidName:
		return "InvalidName"
	case DebugError:
		return "DebugError"
	case AbstractFnCalled:
		return "AbstractFnCalled"
	default:
		return "UnknownError"
	}
}

// internalKinds never originate from user source; they indicate an
// invariant violation in the implementation (spec §7).
var internalKinds = map[Kind]bool{
	InternalError:     true,
	InternalTypeError: true,
	AbstractFnCalled:  true,
	DebugError:        true,
}

// IsInternal reports whether k is one of the kinds that never require a
// user-facing stack trace omission policy change — i.e. it is a bug in
// Storm itself, not a mistake in the compiled source.
func (k Kind) IsInternal() bool {
	return internalKinds[k]
}

// CodeError is the base of every user-facing (non-internal) error: it
// carries a position so a reader/IDE can point at the offending source.
type CodeError struct {
	Kind Kind
	Pos  SrcPos
	Msg  string
	// All lets an "ambiguous match" error list every tied candidate
	// instead of picking one arbitrarily (spec §4.3 NameSet.find step 2).
	All []string
}

func (e *CodeError) Error() string {
	if e.Pos.IsSynthetic() {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}

// New constructs a CodeError of the given kind at pos.
func New(kind Kind, pos SrcPos, format string, args ...any) *CodeError {
	return &CodeError{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Ambiguous constructs the typed "ambiguous match" error NameSet.find raises
// when overload resolution leaves more than one candidate at the minimum
// badness (spec §4.3).
func Ambiguous(pos SrcPos, name string, candidates []string) *CodeError {
	return &CodeError{
		Kind: TypeError,
		Pos:  pos,
		Msg:  fmt.Sprintf("ambiguous match for %q: %d candidates tied for best score", name, len(candidates)),
		All:  candidates,
	}
}

// IsInternal reports whether e represents an implementation bug rather
// than a mistake in compiled source.
func (e *CodeError) IsInternal() bool {
	return e.Kind.IsInternal()
}
