package manager

import "fmt"

// HangupCause - расшифровка кода причины завершения вызова (Q.931).
type HangupCause struct {
	Name        string
	Description string
}

// hangupCauses - коды, которые Asterisk реально присылает в Hangup.
var hangupCauses = map[int]HangupCause{
	0:   {"not_defined", "No cause provided"},
	1:   {"unallocated", "Unallocated (unassigned) number"},
	16:  {"normal_clearing", "Normal call clearing"},
	17:  {"user_busy", "User busy"},
	18:  {"no_user_response", "No user responding"},
	19:  {"no_answer", "No answer from user"},
	21:  {"call_rejected", "Call rejected"},
	22:  {"number_changed", "Number changed"},
	27:  {"destination_out_of_order", "Destination out of order"},
	28:  {"invalid_number_format", "Invalid number format"},
	34:  {"normal_circuit_congestion", "No circuit/channel available"},
	38:  {"network_out_of_order", "Network out of order"},
	41:  {"normal_temporary_failure", "Temporary failure"},
	42:  {"switch_congestion", "Switching equipment congestion"},
	58:  {"bearer_capability_not_available", "Bearer capability not presently available"},
	127: {"interworking", "Interworking, unspecified"},
}

// CauseText возвращает текстовое описание кода причины завершения.
// Используется, когда коммутатор не прислал заголовок Cause-txt.
func CauseText(code int) string {
	if c, ok := hangupCauses[code]; ok {
		return c.Description
	}
	return fmt.Sprintf("Unknown cause %d", code)
}

// CauseName возвращает короткое машинное имя кода причины.
func CauseName(code int) string {
	if c, ok := hangupCauses[code]; ok {
		return c.Name
	}
	return "unknown"
}
