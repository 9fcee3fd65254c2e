package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/lib/clock"
)

// Header is the fixed column set of the participants table.
var Header = []string{"ticket", "name_ign", "wa", "user_id", "username", "status", "created_at", "updated_at"}

// WriteUsers writes the header and one row per user.
func WriteUsers(w io.Writer, users []*entity.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, u := range users {
		row := []string{
			u.Ticket,
			u.NameIGN,
			u.WA,
			strconv.FormatInt(u.UserId, 10),
			u.Username,
			string(u.Status),
			clock.Format(u.CreatedAt),
			clock.Format(u.UpdatedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", u.UserId, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// UsersCSV renders the table into memory, for sending as a document.
func UsersCSV(users []*entity.User) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteUsers(&buf, users); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
