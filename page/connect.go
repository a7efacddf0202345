package page

import (
	"bytes"

	"github.com/oklog/ulid/v2"
)


// comparable
type Id [16]byte

func NewId() Id {
	return Id(ulid.Make())
}

func ParseId(idStr string) (Id, error) {
	id, err := ulid.Parse(idStr)
	if err != nil {
		return Id{}, err
	}
	return Id(id), nil
}

func (self Id) LessThan(b Id) bool {
	return bytes.Compare(self[:], b[:]) < 0
}

func (self Id) String() string {
	return ulid.ULID(self).String()
}
