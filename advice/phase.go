package advice

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Phase tells when advice runs relative to the original implementation.
type Phase int

const (
	Before Phase = iota
	Around
	After
)

var Phases = [...]Phase{Before, Around, After}

var phaseNames = [...]string{
	Before: "before",
	Around: "around",
	After:  "after",
}

func (p Phase) String() string {
	if !p.valid() {
		return "phase(" + strconv.Itoa(int(p)) + ")"
	}
	return phaseNames[p]
}

func (p Phase) valid() bool {
	return p >= Before && p <= After
}

func ParsePhase(s string) (Phase, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Phases {
		if phaseNames[p] == name {
			return p, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownPhase, "'%s'", s)
}
