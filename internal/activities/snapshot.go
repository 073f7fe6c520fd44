package activities

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/yourorg/isp-sorter/internal/types"
)

// Snapshots hold one JSON record per line. EmailRecord never marshals its
// password, so a snapshot only carries addresses and verdicts.

func writeSnapshot(w io.Writer, recs []types.EmailRecord) error {
	bw := bufio.NewWriterSize(w, 1<<20)
	enc := json.NewEncoder(bw)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func readSnapshot(r io.Reader) ([]types.EmailRecord, error) {
	dec := json.NewDecoder(bufio.NewReader(r))
	var out []types.EmailRecord
	for {
		var rec types.EmailRecord
		err := dec.Decode(&rec)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}
