package persistence

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartspace/backend/internal/domain/shared"
)

// translateError maps gorm sentinel errors onto domain errors
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

func toDomainSlice[M any, D any](rows []M, convert func(*M) D) []D {
	out := make([]D, 0, len(rows))
	for i := range rows {
		out = append(out, convert(&rows[i]))
	}
	return out
}

func newID() uuid.UUID {
	return uuid.New()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes user input match literally inside a LIKE pattern that
// declares ESCAPE '\'
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
