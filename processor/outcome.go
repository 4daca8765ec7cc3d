package processor

// Kind classifies the terminal result of one processing attempt. Exactly one
// Outcome is produced per attempt, initial pass or replay alike.
type Kind int

const (
	Success Kind = iota
	NameMismatch
	NoDataCopied
	AddressCopyFailed
	SystemError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case NameMismatch:
		return "name_mismatch"
	case NoDataCopied:
		return "no_data_copied"
	case AddressCopyFailed:
		return "address_copy_failed"
	case SystemError:
		return "system_error"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of processing one record.
type Outcome struct {
	Kind    Kind
	Address string // set only on Success
	Detail  string // extra context for SystemError and mismatches
}

// OK reports whether the attempt succeeded.
func (o Outcome) OK() bool { return o.Kind == Success }

// FailureReason is the text persisted to the failures file.
func (o Outcome) FailureReason() string {
	switch o.Kind {
	case NameMismatch:
		return "no creado - nombre no coincide"
	case NoDataCopied:
		return "no creado - sin nombre copiado"
	case AddressCopyFailed:
		return "sin direccion copiada - fallo tras reintento"
	case SystemError:
		return "exception: " + o.Detail
	default:
		return ""
	}
}
