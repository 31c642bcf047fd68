package decode

import (
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// Repairer turns near-JSON into text more likely to be strict JSON. It is
// best effort: a nil error does not mean the output parses.
type Repairer interface {
	Repair(text string) (string, error)
}

// RepairFunc adapts a function to Repairer.
type RepairFunc func(text string) (string, error)

func (f RepairFunc) Repair(text string) (string, error) { return f(text) }

// JSONRepair is the default Repairer backed by github.com/kaptinlin/jsonrepair.
// Text that is already strict JSON is returned unchanged; the library is not
// the identity on valid input (it doubles escaped backslashes).
var JSONRepair Repairer = RepairFunc(repairJSON)

func repairJSON(text string) (string, error) {
	if json.Valid([]byte(text)) {
		return text, nil
	}
	return jsonrepair.JSONRepair(text)
}

// safeRepair calls r and converts a panic into an error so a misbehaving
// repairer cannot abort the cascade.
func safeRepair(r Repairer, text string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = "", fmt.Errorf("repair panicked: %v", p)
		}
	}()
	return r.Repair(text)
}
