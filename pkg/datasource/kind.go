package datasource

import (
	"fmt"
	"strings"
)

// Kind identifies the database technology a descriptor targets.
type Kind string

const (
	Postgres Kind = "POSTGRES"
	MySQL    Kind = "MYSQL"
	Mongo    Kind = "MONGO"
)

// Kinds returns every supported engine kind.
func Kinds() []Kind {
	return []Kind{Postgres, MySQL, Mongo}
}

func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case Postgres, MySQL, Mongo:
		return true
	}
	return false
}

// ParseKind normalises a kind name coming from metadata stores or config.
// Unknown kinds are a configuration error.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "POSTGRES", "POSTGRESQL", "PG":
		return Postgres, nil
	case "MYSQL", "MARIADB":
		return MySQL, nil
	case "MONGO", "MONGODB":
		return Mongo, nil
	}
	return "", ConfigurationError(
		fmt.Sprintf("unsupported engine kind %q", s),
		ErrUnsupportedKind,
		Fields{"kind": s},
	)
}

// UnmarshalText lets Kind be used directly in env-tagged config structs.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
