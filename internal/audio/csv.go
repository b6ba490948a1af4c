package audio

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV writes rows as gender;start;end;transcription with times in
// seconds.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"gender", "start", "end", "transcription"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			string(r.Gender),
			strconv.FormatFloat(r.Start.Seconds(), 'f', 2, 64),
			strconv.FormatFloat(r.End.Seconds(), 'f', 2, 64),
			r.Transcription,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
