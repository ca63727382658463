package proxy

import (
	"fmt"
	"strings"

	"github.com/dogmatiq/permitkv/principal"
	"github.com/dogmatiq/permitkv/record"
)

// Visibility describes who, other than the owner, may read a value.
type Visibility struct {
	public bool
	reader principal.Principal
}

var (
	// Public allows any authenticated caller to read the value.
	Public = Visibility{public: true}

	// Private allows only the owner to read the value.
	Private = Visibility{}
)

// Protected allows p, in addition to the owner, to read the value.
func Protected(p principal.Principal) Visibility {
	return Visibility{reader: p}
}

// ParseVisibility parses the textual form of a visibility, as produced by
// [Visibility.String].
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "public":
		return Public, nil
	case "private":
		return Private, nil
	}

	if addr, ok := strings.CutPrefix(s, "protected:"); ok {
		p, err := principal.Parse(addr)
		if err != nil {
			return Visibility{}, err
		}
		return Protected(p), nil
	}

	return Visibility{}, fmt.Errorf("unrecognized visibility %q, expected public, private or protected:<address>", s)
}

func (v Visibility) String() string {
	switch {
	case v.public:
		return "public"
	case v.reader.IsAnonymous():
		return "private"
	default:
		return "protected:" + string(v.reader)
	}
}

// seed returns the initial access rules for a record with this visibility.
func (v Visibility) seed() record.Seed {
	s := record.Seed{PublicRead: v.public}
	if !v.reader.IsAnonymous() {
		s.Readers = []principal.Principal{v.reader}
	}
	return s
}
