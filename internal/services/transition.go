package services

import "github.com/fichaje-app/apiserver/types"

// RejectionError reports an illegal clock transition. It is
// user-correctable and maps to a 400 at the HTTP boundary; the message
// is the text shown on the kiosk.
type RejectionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RejectionError) Error() string {
	return e.Message
}

// The canonical rejections, one per rule. Every transition in the
// system is checked here and nowhere else.
var (
	errShiftAlreadyOpen = &RejectionError{
		Code:    "shift_already_open",
		Message: "Ya has fichado entrada y no has salido.",
	}
	errNoShiftForBreak = &RejectionError{
		Code:    "no_open_shift",
		Message: "Debes fichar entrada antes del desayuno.",
	}
	errBreakAlreadyOpen = &RejectionError{
		Code:    "break_already_open",
		Message: "Debes cerrar el desayuno anterior.",
	}
	errNoOpenBreak = &RejectionError{
		Code:    "no_open_break",
		Message: "Debes iniciar desayuno antes de finalizarlo.",
	}
	errNoShiftForExit = &RejectionError{
		Code:    "no_open_shift",
		Message: "No puedes fichar salida sin entrada.",
	}
	errBreakStillOpen = &RejectionError{
		Code:    "break_still_open",
		Message: "Debes finalizar el desayuno antes.",
	}
)

// ValidateTransition decides whether the requested kind is legal given
// the current status. Rules, in order of precedence:
//
//	entrada          requires no open shift
//	desayuno_inicio  requires an open shift and no open break
//	desayuno_fin     requires an open break
//	salida           requires an open shift and no open break
//
// Returns nil when the transition is legal, otherwise the rejection for
// the first violated rule.
func ValidateTransition(status types.DailyStatus, kind types.EventKind) *RejectionError {
	switch kind {
	case types.KindEntry:
		if status.ShiftOpen {
			return errShiftAlreadyOpen
		}
	case types.KindBreakStart:
		if !status.ShiftOpen {
			return errNoShiftForBreak
		}
		if status.BreakOpen {
			return errBreakAlreadyOpen
		}
	case types.KindBreakEnd:
		if !status.BreakOpen {
			return errNoOpenBreak
		}
	case types.KindExit:
		if !status.ShiftOpen {
			return errNoShiftForExit
		}
		if status.BreakOpen {
			return errBreakStillOpen
		}
	}
	return nil
}
