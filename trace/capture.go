package trace

import (
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/trannam110702/lighthouse-sub001/errors"
)

// Capture bundles everything recorded for one navigation.
type Capture struct {
	Navigation Navigation `json:"navigation"`
	Records    []*Record  `json:"records"`
	Tasks      []*Task    `json:"tasks"`
}

// Decode reads a JSON capture. Records and tasks are returned ordered by
// start time; ties keep their input order.
func Decode(r io.Reader) (*Capture, error) {
	var c Capture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, errors.Wrap(err, "failed to decode capture")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(c.Records, func(i, j int) bool { return c.Records[i].StartTime < c.Records[j].StartTime })
	sort.SliceStable(c.Tasks, func(i, j int) bool { return c.Tasks[i].StartTime < c.Tasks[j].StartTime })
	return &c, nil
}

// LoadFile decodes a capture from a JSON file.
func LoadFile(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open capture %s", path)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "capture %s", path)
	}
	return c, nil
}

// Validate checks the structural requirements the graph builder relies on.
func (c *Capture) Validate() error {
	if c.Navigation.MainDocumentURL == "" {
		return errors.NewInvalidRequestError("navigation.main_document_url is required")
	}
	seen := make(map[string]struct{}, len(c.Records))
	for i, r := range c.Records {
		if r == nil {
			return errors.NewInvalidRequestError("records[%d] is null", i)
		}
		if r.RequestID == "" {
			return errors.NewInvalidRequestError("records[%d] has no request_id", i)
		}
		if _, dup := seen[r.RequestID]; dup {
			return errors.WithHint(
				errors.NewInvalidRequestError("duplicate request_id %q", r.RequestID),
				"records must be deduplicated before simulation",
			)
		}
		seen[r.RequestID] = struct{}{}
		if r.EndTime < r.StartTime {
			return errors.NewInvalidRequestError("record %q ends before it starts", r.RequestID)
		}
	}
	for i, t := range c.Tasks {
		if t == nil {
			return errors.NewInvalidRequestError("tasks[%d] is null", i)
		}
		if t.Duration < 0 {
			return errors.NewInvalidRequestError("tasks[%d] has a negative duration", i)
		}
	}
	return nil
}
